package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/santara-erp/ledger/internal/ledger"
)

// Reconciliation is a per-period book-balance snapshot for one bank
// account, keyed by (account, calendar month).
type Reconciliation struct {
	ID               int64
	AccountID        string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	StatementBalance *decimal.Decimal
	BookBalance      decimal.Decimal
	Status           string
	Notes            string
}

// FindOrCreateReconciliation returns the reconciliation record for the
// account and period, creating it if absent. The unique constraint on
// (account, period start) guarantees at most one record per month.
func (s *Store) FindOrCreateReconciliation(ctx context.Context, accountID string, periodStart, periodEnd time.Time) (*Reconciliation, error) {
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO bank_reconciliations (account_id, period_start, period_end)
		 VALUES (?, ?, ?)
		 ON CONFLICT(account_id, period_start) DO NOTHING`,
		accountID, periodStart.Format(DateLayout), periodEnd.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("create reconciliation: %w", err)
	}
	return s.getReconciliation(ctx, accountID, periodStart)
}

func (s *Store) getReconciliation(ctx context.Context, accountID string, periodStart time.Time) (*Reconciliation, error) {
	row := s.reader.QueryRowContext(ctx,
		`SELECT id, account_id, period_start, period_end, statement_balance, book_balance, status, notes
		 FROM bank_reconciliations WHERE account_id = ? AND period_start = ?`,
		accountID, periodStart.Format(DateLayout))
	return scanReconciliation(row)
}

// GetReconciliation fetches a record by id.
func (s *Store) GetReconciliation(ctx context.Context, id int64) (*Reconciliation, error) {
	row := s.reader.QueryRowContext(ctx,
		`SELECT id, account_id, period_start, period_end, statement_balance, book_balance, status, notes
		 FROM bank_reconciliations WHERE id = ?`, id)
	return scanReconciliation(row)
}

// UpdateBookBalance refreshes the stored book-balance snapshot.
func (s *Store) UpdateBookBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	bal, _ := balance.Round(2).Float64()
	res, err := s.writer.ExecContext(ctx,
		`UPDATE bank_reconciliations SET book_balance = ? WHERE id = ?`, bal, id)
	if err != nil {
		return fmt.Errorf("update book balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrReconciliationMissing
	}
	return nil
}

// ListReconciliations returns all records ordered by account and
// period.
func (s *Store) ListReconciliations(ctx context.Context) ([]Reconciliation, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT id, account_id, period_start, period_end, statement_balance, book_balance, status, notes
		 FROM bank_reconciliations ORDER BY account_id, period_start`)
	if err != nil {
		return nil, fmt.Errorf("list reconciliations: %w", err)
	}
	defer rows.Close()

	var recons []Reconciliation
	for rows.Next() {
		r, err := scanReconciliationRow(rows)
		if err != nil {
			return nil, err
		}
		recons = append(recons, *r)
	}
	return recons, rows.Err()
}

func scanReconciliation(row *sql.Row) (*Reconciliation, error) {
	var r Reconciliation
	var start, end string
	var stmtBal sql.NullFloat64
	var bookBal float64
	err := row.Scan(&r.ID, &r.AccountID, &start, &end, &stmtBal, &bookBal, &r.Status, &r.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrReconciliationMissing
	}
	if err != nil {
		return nil, fmt.Errorf("scan reconciliation: %w", err)
	}
	fillReconciliation(&r, start, end, stmtBal, bookBal)
	return &r, nil
}

func scanReconciliationRow(rows *sql.Rows) (*Reconciliation, error) {
	var r Reconciliation
	var start, end string
	var stmtBal sql.NullFloat64
	var bookBal float64
	err := rows.Scan(&r.ID, &r.AccountID, &start, &end, &stmtBal, &bookBal, &r.Status, &r.Notes)
	if err != nil {
		return nil, fmt.Errorf("scan reconciliation row: %w", err)
	}
	fillReconciliation(&r, start, end, stmtBal, bookBal)
	return &r, nil
}

func fillReconciliation(r *Reconciliation, start, end string, stmtBal sql.NullFloat64, bookBal float64) {
	r.PeriodStart, _ = time.Parse(DateLayout, start)
	r.PeriodEnd, _ = time.Parse(DateLayout, end)
	if stmtBal.Valid {
		d := decimal.NewFromFloat(stmtBal.Float64)
		r.StatementBalance = &d
	}
	r.BookBalance = decimal.NewFromFloat(bookBal)
}
