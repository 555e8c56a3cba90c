package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/santara-erp/ledger/internal/ledger"
)

// The stock movement and cash/bank transaction tables are inbound
// feeds: inventory and treasury workflows write them, this engine only
// aggregates them.

// Stock movement kinds that add to or draw down raw material value.
var (
	StockInTypes  = []string{"purchase_in", "manufacture_in", "adjustment_in"}
	StockOutTypes = []string{"manufacture_out", "adjustment_out", "sales"}
)

// Cash/bank transaction kinds.
var (
	CashInTypes  = []string{"cash_in", "bank_in"}
	CashOutTypes = []string{"cash_out", "bank_out"}
)

type Product struct {
	ID            string
	Name          string
	IsRawMaterial bool
}

type StockMovement struct {
	ProductID   string
	WarehouseID string
	BranchID    string
	Date        time.Time
	Type        string
	Quantity    decimal.Decimal
	Value       decimal.Decimal
}

type CashBankTransaction struct {
	Number        string
	Date          time.Time
	Type          string
	Amount        decimal.Decimal
	AccountCode   string
	OffsetCode    string
	CashAccountID string
	BranchID      string
	DivisionID    string
	ProjectID     string
}

type Asset struct {
	Name         string
	PurchaseDate time.Time
	PurchaseCost decimal.Decimal
	AccountCode  string
}

type SalesReceiptLine struct {
	ReceiptNumber string
	Customer      string
	PaymentDate   time.Time
	Method        string
	Status        string
	Amount        decimal.Decimal
}

func (s *Store) AddProduct(ctx context.Context, p *Product) error {
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO products (id, name, is_raw_material) VALUES (?, ?, ?)`,
		p.ID, p.Name, boolToInt(p.IsRawMaterial))
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *Store) AddStockMovement(ctx context.Context, m *StockMovement) error {
	qty, _ := m.Quantity.Float64()
	value, _ := m.Value.Round(2).Float64()
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO stock_movements (product_id, warehouse_id, branch_id, date, type, quantity, value)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ProductID, m.WarehouseID, m.BranchID, m.Date.Format(DateLayout), m.Type, qty, value)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// SumRawMaterialStock totals the value of stock movements of the given
// kinds for raw-material products up to asOf, optionally restricted to
// branches.
func (s *Store) SumRawMaterialStock(ctx context.Context, types []string, asOf time.Time, f ledger.Filter) (decimal.Decimal, error) {
	var query strings.Builder
	query.WriteString(`SELECT COALESCE(SUM(m.value), 0)
		FROM stock_movements m
		JOIN products pr ON pr.id = m.product_id
		WHERE pr.is_raw_material = 1
		AND m.type IN (` + placeholders(len(types)) + `)
		AND m.date <= ?`)
	args := make([]any, 0, len(types)+2)
	for _, t := range types {
		args = append(args, t)
	}
	args = append(args, asOf.Format(DateLayout))
	if len(f.Branches) > 0 {
		query.WriteString(` AND m.branch_id IN (` + placeholders(len(f.Branches)) + `)`)
		for _, b := range f.Branches {
			args = append(args, b)
		}
	}

	var total float64
	if err := s.reader.QueryRowContext(ctx, query.String(), args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum raw material stock: %w", err)
	}
	return decimal.NewFromFloat(total).Round(2), nil
}

func (s *Store) AddCashBankTransaction(ctx context.Context, t *CashBankTransaction) error {
	amount, _ := t.Amount.Round(2).Float64()
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO cash_bank_transactions (number, date, type, amount, account_code, offset_code,
			cash_account_id, branch_id, division_id, project_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Number, t.Date.Format(DateLayout), t.Type, amount, t.AccountCode, t.OffsetCode,
		t.CashAccountID, t.BranchID, t.DivisionID, t.ProjectID)
	if err != nil {
		return fmt.Errorf("insert cash/bank transaction: %w", err)
	}
	return nil
}

// SumCashBankByOffset totals cash/bank transaction amounts of the given
// kinds whose offsetting account is one of offsetCodes, within [start,
// end].
func (s *Store) SumCashBankByOffset(ctx context.Context, offsetCodes, types []string, start, end time.Time, f ledger.Filter) (decimal.Decimal, error) {
	if len(offsetCodes) == 0 {
		return decimal.Zero, nil
	}
	var query strings.Builder
	query.WriteString(`SELECT COALESCE(SUM(t.amount), 0)
		FROM cash_bank_transactions t
		WHERE t.date >= ? AND t.date <= ?
		AND t.type IN (` + placeholders(len(types)) + `)
		AND t.offset_code IN (` + placeholders(len(offsetCodes)) + `)`)
	args := []any{start.Format(DateLayout), end.Format(DateLayout)}
	for _, t := range types {
		args = append(args, t)
	}
	for _, c := range offsetCodes {
		args = append(args, c)
	}
	cashBankFilter(f, &query, &args)

	var total float64
	if err := s.reader.QueryRowContext(ctx, query.String(), args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum cash/bank by offset: %w", err)
	}
	return decimal.NewFromFloat(total), nil
}

// CashBankBreakdownLine is a per-offset-account contribution total.
type CashBankBreakdownLine struct {
	Code   string          `json:"coa_code"`
	Name   string          `json:"coa_name"`
	Amount decimal.Decimal `json:"amount"`
}

// CashBankBreakdown groups period cash/bank transaction amounts by
// offsetting account for report metadata.
func (s *Store) CashBankBreakdown(ctx context.Context, offsetCodes, types []string, start, end time.Time, f ledger.Filter) ([]CashBankBreakdownLine, error) {
	if len(offsetCodes) == 0 {
		return nil, nil
	}
	var query strings.Builder
	query.WriteString(`SELECT t.offset_code, COALESCE(a.name, ''), COALESCE(SUM(t.amount), 0)
		FROM cash_bank_transactions t
		LEFT JOIN accounts a ON a.code = t.offset_code
		WHERE t.date >= ? AND t.date <= ?
		AND t.type IN (` + placeholders(len(types)) + `)
		AND t.offset_code IN (` + placeholders(len(offsetCodes)) + `)`)
	args := []any{start.Format(DateLayout), end.Format(DateLayout)}
	for _, t := range types {
		args = append(args, t)
	}
	for _, c := range offsetCodes {
		args = append(args, c)
	}
	cashBankFilter(f, &query, &args)
	query.WriteString(` GROUP BY t.offset_code ORDER BY t.offset_code`)

	rows, err := s.reader.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("cash/bank breakdown: %w", err)
	}
	defer rows.Close()

	var lines []CashBankBreakdownLine
	for rows.Next() {
		var l CashBankBreakdownLine
		var amount float64
		if err := rows.Scan(&l.Code, &l.Name, &amount); err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		l.Amount = decimal.NewFromFloat(amount).Round(2)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// SumCashBankByAccountBefore totals cash/bank transaction amounts of
// the given kinds against the cash accounts themselves, strictly
// before a date. Used for opening balances.
func (s *Store) SumCashBankByAccountBefore(ctx context.Context, accountCodes, types []string, before time.Time, f ledger.Filter) (decimal.Decimal, error) {
	if len(accountCodes) == 0 {
		return decimal.Zero, nil
	}
	var query strings.Builder
	query.WriteString(`SELECT COALESCE(SUM(t.amount), 0)
		FROM cash_bank_transactions t
		WHERE t.date < ?
		AND t.type IN (` + placeholders(len(types)) + `)
		AND t.account_code IN (` + placeholders(len(accountCodes)) + `)`)
	args := []any{before.Format(DateLayout)}
	for _, t := range types {
		args = append(args, t)
	}
	for _, c := range accountCodes {
		args = append(args, c)
	}
	if len(f.CashAccounts) > 0 {
		query.WriteString(` AND t.cash_account_id IN (` + placeholders(len(f.CashAccounts)) + `)`)
		for _, id := range f.CashAccounts {
			args = append(args, id)
		}
	}

	var total float64
	if err := s.reader.QueryRowContext(ctx, query.String(), args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum cash/bank opening: %w", err)
	}
	return decimal.NewFromFloat(total), nil
}

func cashBankFilter(f ledger.Filter, query *strings.Builder, args *[]any) {
	if len(f.Branches) > 0 {
		query.WriteString(` AND t.branch_id IN (` + placeholders(len(f.Branches)) + `)`)
		for _, b := range f.Branches {
			*args = append(*args, b)
		}
	}
	if f.DivisionID != "" {
		query.WriteString(` AND t.division_id = ?`)
		*args = append(*args, f.DivisionID)
	}
	if f.ProjectID != "" {
		query.WriteString(` AND t.project_id = ?`)
		*args = append(*args, f.ProjectID)
	}
	if len(f.CashAccounts) > 0 {
		query.WriteString(` AND t.cash_account_id IN (` + placeholders(len(f.CashAccounts)) + `)`)
		for _, id := range f.CashAccounts {
			*args = append(*args, id)
		}
	}
}

func (s *Store) AddAsset(ctx context.Context, a *Asset) error {
	cost, _ := a.PurchaseCost.Round(2).Float64()
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO assets (name, purchase_date, purchase_cost, account_code) VALUES (?, ?, ?, ?)`,
		a.Name, a.PurchaseDate.Format(DateLayout), cost, a.AccountCode)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// SumAssetPurchases totals acquisition cost of assets whose account is
// in accountCodes, purchased within [start, end].
func (s *Store) SumAssetPurchases(ctx context.Context, accountCodes []string, start, end time.Time) (decimal.Decimal, error) {
	if len(accountCodes) == 0 {
		return decimal.Zero, nil
	}
	args := []any{start.Format(DateLayout), end.Format(DateLayout)}
	for _, c := range accountCodes {
		args = append(args, c)
	}
	var total float64
	err := s.reader.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(purchase_cost), 0) FROM assets
		 WHERE purchase_date >= ? AND purchase_date <= ?
		 AND account_code IN (`+placeholders(len(accountCodes))+`)`, args...).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum asset purchases: %w", err)
	}
	return decimal.NewFromFloat(total), nil
}

func (s *Store) AddSalesReceiptLine(ctx context.Context, l *SalesReceiptLine) error {
	amount, _ := l.Amount.Round(2).Float64()
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO sales_receipt_lines (receipt_number, customer, payment_date, method, status, amount)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.ReceiptNumber, l.Customer, l.PaymentDate.Format(DateLayout), l.Method, l.Status, amount)
	if err != nil {
		return fmt.Errorf("insert sales receipt line: %w", err)
	}
	return nil
}

// SumSalesReceipts totals confirmed cash-like sales receipt lines
// dated in [start, end]: cash/bank/transfer/deposit methods in a paid
// or partial state.
func (s *Store) SumSalesReceipts(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	var total float64
	err := s.reader.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM sales_receipt_lines
		 WHERE payment_date >= ? AND payment_date <= ?
		 AND method IN ('Cash','Bank','Bank Transfer','Deposit')
		 AND LOWER(status) IN ('paid','partial')`,
		start.Format(DateLayout), end.Format(DateLayout)).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum sales receipts: %w", err)
	}
	return decimal.NewFromFloat(total), nil
}
