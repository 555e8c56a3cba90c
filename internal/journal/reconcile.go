package journal

import (
	"context"
	"strings"
	"time"

	"github.com/santara-erp/ledger/internal/config"
	"github.com/santara-erp/ledger/internal/ledger"
	"github.com/santara-erp/ledger/internal/store"
)

// Reconciler maintains per-month reconciliation records for bank
// accounts and clears transfer postings against them. System clearing
// and user confirmation are distinct: Confirm never touches cleared_at
// and OnTransferPosted never touches confirmed.
type Reconciler struct {
	store *store.Store
	cfg   config.ReconciliationConfig
	now   func() time.Time
}

func NewReconciler(st *store.Store, cfg config.ReconciliationConfig) *Reconciler {
	return &Reconciler{store: st, cfg: cfg, now: time.Now}
}

// OnTransferPosted runs after a transfer's journal lines are written.
// For each side of the transfer on a tracked bank account it
// finds-or-creates the reconciliation record for the calendar month
// containing the transfer date, recomputes that month's book balance,
// and marks the transfer's own postings cleared as of today.
func (r *Reconciler) OnTransferPosted(ctx context.Context, group *ledger.PostingGroup, transferDate time.Time) error {
	periodStart, periodEnd := monthBounds(transferDate)
	clearedAt := r.now().UTC()

	seen := map[string]bool{}
	for i := range group.Postings {
		accountID := group.Postings[i].AccountID
		if seen[accountID] {
			continue
		}
		seen[accountID] = true

		acct, err := r.store.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if !r.tracked(acct.Code) {
			continue
		}

		recon, err := r.store.FindOrCreateReconciliation(ctx, accountID, periodStart, periodEnd)
		if err != nil {
			return err
		}
		book, err := r.store.BookBalance(ctx, accountID, periodStart, periodEnd)
		if err != nil {
			return err
		}
		if err := r.store.UpdateBookBalance(ctx, recon.ID, book); err != nil {
			return err
		}
		if _, err := r.store.MarkCleared(ctx, group.TransactionID, accountID, recon.ID, clearedAt); err != nil {
			return err
		}
	}
	return nil
}

// Confirm toggles the user-driven "checked against the bank statement"
// flag on a single posting.
func (r *Reconciler) Confirm(ctx context.Context, postingID int64, confirmed bool) error {
	return r.store.SetConfirmed(ctx, postingID, confirmed)
}

func (r *Reconciler) tracked(code string) bool {
	for _, prefix := range r.cfg.BankPrefixes {
		if strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return start, end
}
