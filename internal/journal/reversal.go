// Package journal owns posting-side operations: transfer posting,
// reversal generation, and the bank reconciliation tracker. Report
// derivation lives in internal/report.
package journal

import (
	"context"
	"time"

	"github.com/santara-erp/ledger/internal/ledger"
	"github.com/santara-erp/ledger/internal/store"
)

// Reverser generates correcting entries. A reversal is additive: the
// original transaction is never mutated or deleted.
type Reverser struct {
	store *store.Store
	now   func() time.Time
}

func NewReverser(st *store.Store) *Reverser {
	return &Reverser{store: st, now: time.Now}
}

// Reverse posts a mirror image of the transaction dated today, with
// every line's debit and credit swapped. Returns the new transaction
// id. Fails with ErrAlreadyReversed if a reversal already exists and
// ErrTransactionNotFound if the original does not.
func (r *Reverser) Reverse(ctx context.Context, transactionID string) (string, error) {
	reversed, err := r.store.HasReversal(ctx, transactionID)
	if err != nil {
		return "", err
	}
	if reversed {
		return "", ledger.ErrAlreadyReversed
	}

	original, err := r.store.GetPostingGroup(ctx, transactionID)
	if err != nil {
		return "", err
	}

	today := r.now().UTC()
	group := &ledger.PostingGroup{
		TransactionID: "REV-" + transactionID,
		Postings:      make([]ledger.Posting, 0, len(original.Postings)),
	}
	for i := range original.Postings {
		orig := &original.Postings[i]
		group.Postings = append(group.Postings, ledger.Posting{
			AccountID:   orig.AccountID,
			Date:        today,
			Reference:   "REV-" + orig.Reference,
			Description: orig.Description,
			Debit:       orig.Credit,
			Credit:      orig.Debit,
			JournalType: ledger.JournalReversal,
			Source:      ledger.SourceRef{Kind: ledger.SourceReversal, ID: transactionID},
			IsReversal:  true,
			ReversalOf:  transactionID,
			BranchID:    orig.BranchID,
			DivisionID:  orig.DivisionID,
			ProjectID:   orig.ProjectID,
		})
	}

	if err := r.store.CreatePostingGroup(ctx, group); err != nil {
		return "", err
	}
	return group.TransactionID, nil
}
