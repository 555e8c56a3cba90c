package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/santara-erp/ledger/internal/config"
	"github.com/santara-erp/ledger/internal/ledger"
	"github.com/santara-erp/ledger/internal/store"
)

// Transfer moves funds between two cash/bank accounts, optionally with
// a fee charged to the source side.
type Transfer struct {
	ID              string
	FromAccountCode string
	ToAccountCode   string
	Amount          decimal.Decimal
	OtherCosts      decimal.Decimal
	Date            time.Time
	Reference       string
	Description     string
	BranchID        string
	DivisionID      string
	ProjectID       string
}

// TransferService posts transfers to the journal. Transfers never
// touch the cash/bank transaction feed: the ledger is their only
// record, which is why cash-flow lines sum both feeds.
type TransferService struct {
	store *store.Store
	cfg   config.ReconciliationConfig
	recon *Reconciler
}

func NewTransferService(st *store.Store, cfg config.ReconciliationConfig, recon *Reconciler) *TransferService {
	return &TransferService{store: st, cfg: cfg, recon: recon}
}

// Post writes the transfer's journal lines: credit the source for
// amount plus fee, debit the destination for amount, debit the fee
// account for the fee. Posting the same transfer id again replaces the
// previous lines, so re-posting an edited transfer is safe. After the
// write the reconciliation tracker runs for both sides.
func (s *TransferService) Post(ctx context.Context, t Transfer) error {
	if t.Amount.IsNegative() || t.OtherCosts.IsNegative() {
		return ledger.ErrNegativeAmount
	}
	from, err := s.store.GetAccountByCode(ctx, t.FromAccountCode)
	if err != nil {
		return fmt.Errorf("transfer source: %w", err)
	}
	to, err := s.store.GetAccountByCode(ctx, t.ToAccountCode)
	if err != nil {
		return fmt.Errorf("transfer destination: %w", err)
	}

	src := ledger.SourceRef{Kind: ledger.SourceCashBankTransfer, ID: t.ID}
	if err := s.store.DeleteGroupsBySource(ctx, src, ledger.JournalTransfer); err != nil {
		return err
	}

	line := func(accountID string, debit, credit decimal.Decimal) ledger.Posting {
		return ledger.Posting{
			AccountID:   accountID,
			Date:        t.Date,
			Reference:   t.Reference,
			Description: t.Description,
			Debit:       debit,
			Credit:      credit,
			JournalType: ledger.JournalTransfer,
			Source:      src,
			BranchID:    t.BranchID,
			DivisionID:  t.DivisionID,
			ProjectID:   t.ProjectID,
		}
	}

	group := &ledger.PostingGroup{
		Postings: []ledger.Posting{
			line(from.ID, decimal.Zero, t.Amount.Add(t.OtherCosts)),
			line(to.ID, t.Amount, decimal.Zero),
		},
	}
	if t.OtherCosts.IsPositive() {
		if s.cfg.FeeAccountCode == "" {
			return fmt.Errorf("transfer %s: fee charged but no fee account configured", t.ID)
		}
		fee, err := s.store.GetAccountByCode(ctx, s.cfg.FeeAccountCode)
		if err != nil {
			return fmt.Errorf("transfer fee account: %w", err)
		}
		group.Postings = append(group.Postings, line(fee.ID, t.OtherCosts, decimal.Zero))
	}

	if err := s.store.CreatePostingGroup(ctx, group); err != nil {
		return err
	}
	return s.recon.OnTransferPosted(ctx, group, t.Date)
}
