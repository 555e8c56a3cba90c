package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/santara-erp/ledger/internal/ledger"
)

// CreatePostingGroup writes all lines of one balanced economic event
// atomically: either every line becomes visible or none does. The
// group is validated in Go and again by the posted-flag trigger.
func (s *Store) CreatePostingGroup(ctx context.Context, group *ledger.PostingGroup) error {
	if group.TransactionID == "" {
		group.TransactionID = uuid.Must(uuid.NewV7()).String()
	}
	if err := group.Validate(); err != nil {
		return err
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	src := group.Postings[0].Source
	_, err = tx.ExecContext(ctx,
		`INSERT INTO posting_groups (transaction_id, source_kind, source_id) VALUES (?, ?, ?)`,
		group.TransactionID, string(src.Kind), src.ID,
	)
	if err != nil {
		return fmt.Errorf("insert posting group: %w", err)
	}

	for i := range group.Postings {
		p := &group.Postings[i]
		p.TransactionID = group.TransactionID
		if p.Date.IsZero() {
			p.Date = time.Now().UTC()
		}
		if err := insertPosting(ctx, tx, p); err != nil {
			return fmt.Errorf("insert line %d: %w", i, err)
		}
	}

	// Trigger re-checks the balance before the group becomes posted.
	_, err = tx.ExecContext(ctx,
		`UPDATE posting_groups SET posted = 1 WHERE transaction_id = ?`, group.TransactionID)
	if err != nil {
		return fmt.Errorf("post group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertPosting(ctx context.Context, tx *sql.Tx, p *ledger.Posting) error {
	debit, _ := p.Debit.Round(2).Float64()
	credit, _ := p.Credit.Round(2).Float64()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO postings (account_id, date, reference, description, debit, credit, journal_type,
			source_kind, source_id, transaction_id, is_reversal, reversal_of, branch_id, division_id, project_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.AccountID, p.Date.Format(DateLayout), p.Reference, p.Description, debit, credit, p.JournalType,
		string(p.Source.Kind), p.Source.ID, nullString(p.TransactionID), boolToInt(p.IsReversal),
		nullString(p.ReversalOf), p.BranchID, p.DivisionID, p.ProjectID,
	)
	if err != nil {
		return err
	}
	p.ID, _ = res.LastInsertId()
	return nil
}

// GetPostingGroup fetches every line of a transaction.
func (s *Store) GetPostingGroup(ctx context.Context, transactionID string) (*ledger.PostingGroup, error) {
	rows, err := s.reader.QueryContext(ctx,
		postingColumns+` WHERE p.transaction_id = ? ORDER BY p.id`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get posting group: %w", err)
	}
	defer rows.Close()

	postings, err := scanPostings(rows)
	if err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		return nil, ledger.ErrTransactionNotFound
	}
	return &ledger.PostingGroup{TransactionID: transactionID, Postings: postings}, nil
}

// DeletePostingGroup removes a whole transaction atomically, as part
// of re-posting the same logical document. The posted flag is reset
// first so the immutability triggers allow the delete.
func (s *Store) DeletePostingGroup(ctx context.Context, transactionID string) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE posting_groups SET posted = 0 WHERE transaction_id = ?`, transactionID); err != nil {
		return fmt.Errorf("unpost group: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM postings WHERE transaction_id = ?`, transactionID); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM posting_groups WHERE transaction_id = ?`, transactionID); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return tx.Commit()
}

// DeleteGroupsBySource removes every posting group originating from
// one source document, for idempotent re-posting.
func (s *Store) DeleteGroupsBySource(ctx context.Context, src ledger.SourceRef, journalType string) error {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT DISTINCT transaction_id FROM postings
		 WHERE source_kind = ? AND source_id = ? AND journal_type = ? AND transaction_id IS NOT NULL`,
		string(src.Kind), src.ID, journalType)
	if err != nil {
		return fmt.Errorf("find source groups: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.DeletePostingGroup(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// HasReversal reports whether any posting reverses the given
// transaction.
func (s *Store) HasReversal(ctx context.Context, transactionID string) (bool, error) {
	var n int
	err := s.reader.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM postings WHERE reversal_of = ?`, transactionID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check reversal: %w", err)
	}
	return n > 0, nil
}

// DebitCredit holds raw period totals for one account.
type DebitCredit struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// SumByAccount aggregates debit and credit totals per account over a
// date window in a single grouped query. A nil from leaves the window
// open at the start (balance as of to); to is inclusive.
func (s *Store) SumByAccount(ctx context.Context, accountIDs []string, from, to *time.Time, f ledger.Filter) (map[string]DebitCredit, error) {
	if len(accountIDs) == 0 {
		return map[string]DebitCredit{}, nil
	}

	var query strings.Builder
	args := make([]any, 0, len(accountIDs)+4)
	query.WriteString(`SELECT p.account_id, COALESCE(SUM(p.debit), 0), COALESCE(SUM(p.credit), 0)
		FROM postings p WHERE p.account_id IN (` + placeholders(len(accountIDs)) + `)`)
	for _, id := range accountIDs {
		args = append(args, id)
	}
	if from != nil {
		query.WriteString(` AND p.date >= ?`)
		args = append(args, from.Format(DateLayout))
	}
	if to != nil {
		query.WriteString(` AND p.date <= ?`)
		args = append(args, to.Format(DateLayout))
	}
	filterClause("p", f, &query, &args)
	query.WriteString(` GROUP BY p.account_id`)

	rows, err := s.reader.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sum by account: %w", err)
	}
	defer rows.Close()

	out := make(map[string]DebitCredit, len(accountIDs))
	for rows.Next() {
		var id string
		var debit, credit float64
		if err := rows.Scan(&id, &debit, &credit); err != nil {
			return nil, fmt.Errorf("scan sum: %w", err)
		}
		out[id] = DebitCredit{
			Debit:  decimal.NewFromFloat(debit),
			Credit: decimal.NewFromFloat(credit),
		}
	}
	return out, rows.Err()
}

// SumTransferJournal totals debits and credits of transfer-sourced
// postings against the given accounts. Transfers post only to the
// ledger, so cash-flow reporting reads them here rather than from the
// cash/bank transaction feed.
func (s *Store) SumTransferJournal(ctx context.Context, accountIDs []string, from, to *time.Time) (DebitCredit, error) {
	if len(accountIDs) == 0 {
		return DebitCredit{}, nil
	}

	var query strings.Builder
	query.WriteString(`SELECT COALESCE(SUM(p.debit), 0), COALESCE(SUM(p.credit), 0)
		FROM postings p
		WHERE p.journal_type = ? AND p.source_kind = ?
		AND p.account_id IN (` + placeholders(len(accountIDs)) + `)`)
	args := []any{ledger.JournalTransfer, string(ledger.SourceCashBankTransfer)}
	for _, id := range accountIDs {
		args = append(args, id)
	}
	if from != nil {
		query.WriteString(` AND p.date >= ?`)
		args = append(args, from.Format(DateLayout))
	}
	if to != nil {
		query.WriteString(` AND p.date <= ?`)
		args = append(args, to.Format(DateLayout))
	}

	var debit, credit float64
	err := s.reader.QueryRowContext(ctx, query.String(), args...).Scan(&debit, &credit)
	if err != nil {
		return DebitCredit{}, fmt.Errorf("sum transfer journal: %w", err)
	}
	return DebitCredit{Debit: decimal.NewFromFloat(debit), Credit: decimal.NewFromFloat(credit)}, nil
}

// SumTransferJournalBefore totals transfer-sourced postings strictly
// before a date, for opening balances.
func (s *Store) SumTransferJournalBefore(ctx context.Context, accountIDs []string, before time.Time) (DebitCredit, error) {
	if len(accountIDs) == 0 {
		return DebitCredit{}, nil
	}
	args := []any{ledger.JournalTransfer, string(ledger.SourceCashBankTransfer)}
	for _, id := range accountIDs {
		args = append(args, id)
	}
	args = append(args, before.Format(DateLayout))

	var debit, credit float64
	err := s.reader.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(p.debit), 0), COALESCE(SUM(p.credit), 0)
		 FROM postings p
		 WHERE p.journal_type = ? AND p.source_kind = ?
		 AND p.account_id IN (`+placeholders(len(accountIDs))+`)
		 AND p.date < ?`, args...).Scan(&debit, &credit)
	if err != nil {
		return DebitCredit{}, fmt.Errorf("sum transfer journal before: %w", err)
	}
	return DebitCredit{Debit: decimal.NewFromFloat(debit), Credit: decimal.NewFromFloat(credit)}, nil
}

// BookBalance is the raw debit-minus-credit total for one account over
// a period, used for reconciliation snapshots.
func (s *Store) BookBalance(ctx context.Context, accountID string, start, end time.Time) (decimal.Decimal, error) {
	var net float64
	err := s.reader.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(debit - credit), 0) FROM postings
		 WHERE account_id = ? AND date >= ? AND date <= ?`,
		accountID, start.Format(DateLayout), end.Format(DateLayout)).Scan(&net)
	if err != nil {
		return decimal.Zero, fmt.Errorf("book balance: %w", err)
	}
	return decimal.NewFromFloat(net).Round(2), nil
}

// MarkCleared stamps a transaction's postings against one account as
// cleared by the reconciliation tracker. This is the system-side
// status; user confirmation is a separate flag.
func (s *Store) MarkCleared(ctx context.Context, transactionID, accountID string, reconID int64, clearedAt time.Time) (int64, error) {
	res, err := s.writer.ExecContext(ctx,
		`UPDATE postings SET recon_id = ?, cleared_at = ?
		 WHERE transaction_id = ? AND account_id = ?`,
		reconID, clearedAt.Format(DateLayout), transactionID, accountID)
	if err != nil {
		return 0, fmt.Errorf("mark cleared: %w", err)
	}
	return res.RowsAffected()
}

// SetConfirmed toggles the user-driven confirmed-against-statement
// flag on a single posting.
func (s *Store) SetConfirmed(ctx context.Context, postingID int64, confirmed bool) error {
	res, err := s.writer.ExecContext(ctx,
		`UPDATE postings SET confirmed = ? WHERE id = ?`, boolToInt(confirmed), postingID)
	if err != nil {
		return fmt.Errorf("set confirmed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrPostingNotFound
	}
	return nil
}

// GetPosting fetches one line by id.
func (s *Store) GetPosting(ctx context.Context, id int64) (*ledger.Posting, error) {
	rows, err := s.reader.QueryContext(ctx, postingColumns+` WHERE p.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get posting: %w", err)
	}
	defer rows.Close()
	postings, err := scanPostings(rows)
	if err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		return nil, ledger.ErrPostingNotFound
	}
	return &postings[0], nil
}

const postingColumns = `SELECT p.id, p.account_id, p.date, p.reference, p.description, p.debit, p.credit,
	p.journal_type, p.source_kind, p.source_id, p.transaction_id, p.is_reversal, p.reversal_of,
	p.branch_id, p.division_id, p.project_id, p.recon_id, p.cleared_at, p.confirmed, p.created_at
	FROM postings p`

func scanPostings(rows *sql.Rows) ([]ledger.Posting, error) {
	var postings []ledger.Posting
	for rows.Next() {
		var p ledger.Posting
		var date, createdAt string
		var debit, credit float64
		var sourceKind string
		var txnID, reversalOf, clearedAt sql.NullString
		var reconID sql.NullInt64
		var isReversal, confirmed int
		err := rows.Scan(&p.ID, &p.AccountID, &date, &p.Reference, &p.Description, &debit, &credit,
			&p.JournalType, &sourceKind, &p.Source.ID, &txnID, &isReversal, &reversalOf,
			&p.BranchID, &p.DivisionID, &p.ProjectID, &reconID, &clearedAt, &confirmed, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		p.Date, _ = time.Parse(DateLayout, date)
		p.Debit = decimal.NewFromFloat(debit)
		p.Credit = decimal.NewFromFloat(credit)
		p.Source.Kind = ledger.SourceKind(sourceKind)
		p.TransactionID = txnID.String
		p.IsReversal = isReversal == 1
		p.ReversalOf = reversalOf.String
		p.ReconID = reconID.Int64
		if clearedAt.Valid {
			t, err := time.Parse(DateLayout, clearedAt.String)
			if err == nil {
				p.ClearedAt = &t
			}
		}
		p.Confirmed = confirmed == 1
		p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		postings = append(postings, p)
	}
	return postings, rows.Err()
}
