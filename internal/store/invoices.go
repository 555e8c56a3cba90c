package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/santara-erp/ledger/internal/ledger"
)

// OpenInvoice is an outstanding receivable or payable line fed from
// invoicing workflows.
type OpenInvoice struct {
	ID          int64
	Number      string
	Kind        string // receivable | payable
	Party       string
	InvoiceDate time.Time
	Total       decimal.Decimal
	Paid        decimal.Decimal
	Remaining   decimal.Decimal
	BranchID    string
	Status      string
}

// AgingSchedule is a cached classification for one invoice. When a row
// exists it is authoritative, even if stale.
type AgingSchedule struct {
	InvoiceID       int64
	DaysOutstanding int
	Bucket          ledger.AgingBucket
}

func (s *Store) AddOpenInvoice(ctx context.Context, inv *OpenInvoice) error {
	total, _ := inv.Total.Round(2).Float64()
	paid, _ := inv.Paid.Round(2).Float64()
	remaining, _ := inv.Remaining.Round(2).Float64()
	if inv.Status == "" {
		inv.Status = "open"
	}
	res, err := s.writer.ExecContext(ctx,
		`INSERT INTO open_invoices (number, kind, party, invoice_date, total, paid, remaining, branch_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.Number, inv.Kind, inv.Party, inv.InvoiceDate.Format(DateLayout),
		total, paid, remaining, inv.BranchID, inv.Status)
	if err != nil {
		return fmt.Errorf("insert open invoice: %w", err)
	}
	inv.ID, _ = res.LastInsertId()
	return nil
}

// ListOpenInvoices returns outstanding invoices of one kind (or both
// when kind is empty), ordered by invoice date.
func (s *Store) ListOpenInvoices(ctx context.Context, kind string, f ledger.Filter) ([]OpenInvoice, error) {
	var query strings.Builder
	query.WriteString(`SELECT id, number, kind, party, invoice_date, total, paid, remaining, branch_id, status
		FROM open_invoices WHERE remaining > 0`)
	var args []any
	if kind != "" {
		query.WriteString(` AND kind = ?`)
		args = append(args, kind)
	}
	if len(f.Branches) > 0 {
		query.WriteString(` AND branch_id IN (` + placeholders(len(f.Branches)) + `)`)
		for _, b := range f.Branches {
			args = append(args, b)
		}
	}
	query.WriteString(` ORDER BY invoice_date, id`)

	rows, err := s.reader.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list open invoices: %w", err)
	}
	defer rows.Close()

	var invoices []OpenInvoice
	for rows.Next() {
		var inv OpenInvoice
		var date string
		var total, paid, remaining float64
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.Kind, &inv.Party, &date, &total, &paid, &remaining, &inv.BranchID, &inv.Status); err != nil {
			return nil, fmt.Errorf("scan open invoice: %w", err)
		}
		inv.InvoiceDate, _ = time.Parse(DateLayout, date)
		inv.Total = decimal.NewFromFloat(total)
		inv.Paid = decimal.NewFromFloat(paid)
		inv.Remaining = decimal.NewFromFloat(remaining)
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// GetAgingSchedule returns the cached classification for an invoice,
// or nil when none has been stored.
func (s *Store) GetAgingSchedule(ctx context.Context, invoiceID int64) (*AgingSchedule, error) {
	var sched AgingSchedule
	var bucket string
	err := s.reader.QueryRowContext(ctx,
		`SELECT invoice_id, days_outstanding, bucket FROM aging_schedules WHERE invoice_id = ?`,
		invoiceID).Scan(&sched.InvoiceID, &sched.DaysOutstanding, &bucket)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get aging schedule: %w", err)
	}
	sched.Bucket = ledger.AgingBucket(bucket)
	return &sched, nil
}

// PutAgingSchedule stores or replaces the cached classification.
func (s *Store) PutAgingSchedule(ctx context.Context, sched *AgingSchedule) error {
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO aging_schedules (invoice_id, days_outstanding, bucket) VALUES (?, ?, ?)
		 ON CONFLICT(invoice_id) DO UPDATE SET days_outstanding = excluded.days_outstanding, bucket = excluded.bucket`,
		sched.InvoiceID, sched.DaysOutstanding, string(sched.Bucket))
	if err != nil {
		return fmt.Errorf("put aging schedule: %w", err)
	}
	return nil
}
