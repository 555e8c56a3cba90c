package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santara-erp/ledger/internal/config"
	"github.com/santara-erp/ledger/internal/ledger"
	"github.com/santara-erp/ledger/internal/store"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := time.Parse(store.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

type fixture struct {
	store  *store.Store
	engine *Engine
	byCode map[string]*ledger.Account
}

// newFixture opens a store seeded with a small manufacturing chart of
// accounts.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	chart := []struct {
		code, name string
		typ        ledger.AccountType
	}{
		{"1110", "Cash", ledger.TypeAsset},
		{"1111", "Bank", ledger.TypeAsset},
		{"1120", "Trade Receivables", ledger.TypeAsset},
		{"1140", "Inventory", ledger.TypeAsset},
		{"1140.01", "Raw Materials", ledger.TypeAsset},
		{"1140.02", "Work in Progress", ledger.TypeAsset},
		{"1210", "Equipment", ledger.TypeAsset},
		{"2110", "Trade Payables", ledger.TypeLiability},
		{"3100", "Owner Equity", ledger.TypeEquity},
		{"4100", "Sales", ledger.TypeRevenue},
		{"5110", "Raw Material Purchases", ledger.TypeExpense},
		{"5120", "Direct Labor", ledger.TypeExpense},
		{"5131", "Factory Overhead", ledger.TypeExpense},
		{"6311", "Depreciation Expense", ledger.TypeExpense},
		{"6390", "Bank Fees", ledger.TypeExpense},
	}

	f := &fixture{store: st, byCode: make(map[string]*ledger.Account)}
	for _, c := range chart {
		acct := &ledger.Account{Code: c.code, Name: c.name, Type: c.typ}
		require.NoError(t, st.CreateAccount(ctx, acct))
		f.byCode[c.code] = acct
	}

	f.engine, err = NewEngineFromStore(ctx, st)
	require.NoError(t, err)
	return f
}

// post writes a two-line balanced group: debit one account, credit
// another.
func (f *fixture) post(t *testing.T, date, debitCode, creditCode, amount string) {
	t.Helper()
	g := &ledger.PostingGroup{Postings: []ledger.Posting{
		{AccountID: f.byCode[debitCode].ID, Date: day(date), Debit: d(amount)},
		{AccountID: f.byCode[creditCode].ID, Date: day(date), Credit: d(amount)},
	}}
	require.NoError(t, f.store.CreatePostingGroup(context.Background(), g))
}

func TestBalanceSigning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post(t, "2026-01-10", "1110", "4100", "70.00")

	asOf := day("2026-01-31")
	cash, err := f.engine.Balance(ctx, f.engine.Resolve("1110"), asOf, ledger.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "70.00", cash.StringFixed(2))

	// Credit-normal revenue reads positive too.
	sales, err := f.engine.Balance(ctx, f.engine.Resolve("4100"), asOf, ledger.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "70.00", sales.StringFixed(2))

	// Raw balance ignores the convention.
	raw, err := f.engine.RawBalance(ctx, f.engine.Resolve("4100"), asOf, ledger.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "-70.00", raw.StringFixed(2))
}

func TestHierarchicalRollup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post(t, "2026-01-05", "1140.01", "3100", "100.00")
	f.post(t, "2026-01-06", "1140.02", "3100", "25.00")

	total, err := f.engine.Balance(ctx, f.engine.Resolve("1140"), day("2026-01-31"), ledger.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "125.00", total.StringFixed(2))
}

func TestPeriodMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post(t, "2026-01-10", "1110", "4100", "100.00")
	f.post(t, "2026-01-20", "6390", "1110", "40.00")

	m, err := f.engine.PeriodMovement(ctx, f.engine.Resolve("1110"), day("2026-01-01"), day("2026-01-31"), ledger.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "100.00", m.Debit.StringFixed(2))
	assert.Equal(t, "40.00", m.Credit.StringFixed(2))
}

func hppConfig() config.HPPConfig {
	return config.HPPConfig{
		RawMaterialInventory: []string{"1140.01"},
		RawMaterialPurchase:  []string{"5110"},
		DirectLabor:          []string{"5120"},
		WIPInventory:         []string{"1140.02"},
		Overheads: []config.OverheadItem{
			{Key: "factory", Label: "Factory Overhead", Prefixes: []string{"5131"}},
		},
	}
}

func TestHPPWaterfall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Opening raw materials 100 before the period.
	f.post(t, "2025-12-15", "1140.01", "3100", "100.00")
	// In-period: purchases 50, raw drawdown 70 (closing 30), labor 20,
	// overhead 10, closing WIP 20.
	f.post(t, "2026-01-10", "5110", "1110", "50.00")
	f.post(t, "2026-01-12", "6390", "1140.01", "70.00")
	f.post(t, "2026-01-15", "5120", "1110", "20.00")
	f.post(t, "2026-01-18", "5131", "1110", "10.00")
	f.post(t, "2026-01-25", "1140.02", "3100", "20.00")

	calc := NewHPPCalculator(f.engine, f.store, hppConfig())
	rep, err := calc.Generate(ctx, day("2026-01-01"), day("2026-01-31"), ledger.Filter{})
	require.NoError(t, err)

	assert.Equal(t, "100.00", rep.RawMaterials.Opening.StringFixed(2))
	assert.Equal(t, "50.00", rep.RawMaterials.Purchases.StringFixed(2))
	assert.Equal(t, "150.00", rep.RawMaterials.Available.StringFixed(2))
	assert.Equal(t, "30.00", rep.RawMaterials.Closing.StringFixed(2))
	assert.Equal(t, "120.00", rep.RawMaterials.Used.StringFixed(2))
	assert.Equal(t, "20.00", rep.DirectLabor.StringFixed(2))
	assert.Equal(t, "10.00", rep.Overhead.Total.StringFixed(2))
	assert.Equal(t, "150.00", rep.ProductionCost.StringFixed(2))
	assert.Equal(t, "0.00", rep.WIP.Opening.StringFixed(2))
	assert.Equal(t, "20.00", rep.WIP.Closing.StringFixed(2))
	assert.Equal(t, "130.00", rep.COGM.StringFixed(2))
}

func TestHPPStockFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No ledger postings for raw materials, but the stock ledger
	// carries 500 of raw material value.
	require.NoError(t, f.store.AddProduct(ctx, &store.Product{ID: "P1", Name: "Flour", IsRawMaterial: true}))
	require.NoError(t, f.store.AddStockMovement(ctx, &store.StockMovement{
		ProductID: "P1", Type: "purchase_in", Value: d("500.00"), Date: day("2026-01-10"),
	}))

	calc := NewHPPCalculator(f.engine, f.store, hppConfig())
	rep, err := calc.Generate(ctx, day("2026-01-01"), day("2026-01-31"), ledger.Filter{})
	require.NoError(t, err)

	assert.Equal(t, "500.00", rep.RawMaterials.Closing.StringFixed(2))
	// Available (0) minus closing (500) floors at zero.
	assert.Equal(t, "0.00", rep.RawMaterials.Used.StringFixed(2))
}

func TestHPPFallbackThresholds(t *testing.T) {
	tests := []struct {
		name          string
		ledgerBalance string
		stockBalance  string
		wantStock     bool
	}{
		{"stock near zero trusts ledger", "100.00", "0.005", false},
		{"ledger near zero defers to stock", "0.00", "500.00", true},
		{"within one unit trusts ledger", "100.50", "100.00", false},
		{"divergence over one unit defers to stock", "250.00", "100.00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := useStockFallback(d(tt.ledgerBalance), d(tt.stockBalance))
			assert.Equal(t, tt.wantStock, got)
		})
	}
}

func cashFlowConfig() config.CashFlowConfig {
	return config.CashFlowConfig{
		Sections: []config.Section{
			{Key: "operating", Label: "Operating Activities", Items: []config.Item{
				{Key: "sales_receipts", Label: "Customer Receipts", Resolver: "sales_receipts", Type: config.FlowInflow},
				{Key: "operating_expenses", Label: "Operating Expenses", Type: config.FlowOutflow,
					Prefixes: []config.PrefixEntry{{Prefix: "6"}}},
			}},
			{Key: "investing", Label: "Investing Activities", Items: []config.Item{
				{Key: "asset_purchases", Label: "Asset Purchases", Type: config.FlowNet, IncludeAssets: true,
					Prefixes: []config.PrefixEntry{{Prefix: "1210", IsAsset: true}}},
			}},
		},
		CashAccounts: []config.CashAccount{
			{Name: "Cash", Prefix: "1110", OpeningBalance: 50},
			{Name: "Bank", Prefix: "1111"},
		},
		Indirect: config.IndirectConfig{
			DepreciationPrefixes: []string{"6311"},
			ReceivablePrefix:     "1120",
			InventoryPrefix:      "1140",
			PayablePrefix:        "2110",
		},
	}
}

func TestCashFlowDirect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Pre-period transaction feed: 100 into cash, counts toward opening.
	require.NoError(t, f.store.AddCashBankTransaction(ctx, &store.CashBankTransaction{
		Number: "CB-0", Date: day("2025-12-20"), Type: "cash_in", Amount: d("100.00"), AccountCode: "1110", OffsetCode: "4100",
	}))
	// In-period: paid sales receipt of 200 and an 80 expense outflow.
	require.NoError(t, f.store.AddSalesReceiptLine(ctx, &store.SalesReceiptLine{
		ReceiptNumber: "SR-1", Customer: "Acme", PaymentDate: day("2026-01-10"), Method: "Bank Transfer", Status: "Paid", Amount: d("200.00"),
	}))
	require.NoError(t, f.store.AddCashBankTransaction(ctx, &store.CashBankTransaction{
		Number: "CB-1", Date: day("2026-01-15"), Type: "cash_out", Amount: d("80.00"), AccountCode: "1110", OffsetCode: "6390",
	}))
	// Asset purchase of 300 in the period.
	require.NoError(t, f.store.AddAsset(ctx, &store.Asset{
		Name: "Oven", PurchaseDate: day("2026-01-20"), PurchaseCost: d("300.00"), AccountCode: "1210",
	}))

	gen := NewCashFlowGenerator(f.engine, f.store, cashFlowConfig(), NewIncomeService(f.engine))
	stmt, err := gen.Generate(ctx, day("2026-01-01"), day("2026-01-31"), MethodDirect, ledger.Filter{})
	require.NoError(t, err)

	require.Len(t, stmt.Sections, 2)
	operating := stmt.Sections[0]
	require.Len(t, operating.Lines, 2)
	assert.Equal(t, "200.00", operating.Lines[0].Amount.StringFixed(2))
	assert.Equal(t, "-80.00", operating.Lines[1].Amount.StringFixed(2))
	assert.Equal(t, "120.00", operating.Total.StringFixed(2))

	investing := stmt.Sections[1]
	assert.Equal(t, "-300.00", investing.Total.StringFixed(2))

	assert.Equal(t, "-180.00", stmt.NetChange.StringFixed(2))
	// Opening = 50 configured + 100 pre-period inflow.
	assert.Equal(t, "150.00", stmt.OpeningBalance.StringFixed(2))
	assert.Equal(t, "-30.00", stmt.ClosingBalance.StringFixed(2))
	assert.Equal(t, "0.00", stmt.OpeningBalance.Add(stmt.NetChange).Sub(stmt.ClosingBalance).StringFixed(2))

	// The expense line carries its per-offset breakdown.
	require.Len(t, operating.Lines[1].Breakdown, 1)
	assert.Equal(t, "6390", operating.Lines[1].Breakdown[0].Code)
	assert.Equal(t, "80.00", operating.Lines[1].Breakdown[0].Amount.StringFixed(2))
}

func TestCashFlowIndirect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Pre-period receivable of 100.
	f.post(t, "2025-12-10", "1120", "4100", "100.00")
	// In-period: 70 of credit sales and 30 of depreciation.
	f.post(t, "2026-01-10", "1120", "4100", "70.00")
	f.post(t, "2026-01-20", "6311", "1210", "30.00")

	gen := NewCashFlowGenerator(f.engine, f.store, cashFlowConfig(), NewIncomeService(f.engine))
	stmt, err := gen.Generate(ctx, day("2026-01-01"), day("2026-01-31"), MethodIndirect, ledger.Filter{})
	require.NoError(t, err)

	require.Len(t, stmt.Sections, 3)
	operating := stmt.Sections[0]

	byKey := map[string]decimal.Decimal{}
	for _, l := range operating.Lines {
		byKey[l.Key] = l.Amount
	}
	// Net income 70 − 30 = 40, depreciation added back, receivables
	// grew by 70 so cash is 70 lower than income suggests.
	assert.Equal(t, "40.00", byKey["net_income"].StringFixed(2))
	assert.Equal(t, "30.00", byKey["depreciation"].StringFixed(2))
	assert.Equal(t, "-70.00", byKey["receivables_delta"].StringFixed(2))
	assert.Equal(t, "0.00", operating.Total.StringFixed(2))

	// Investing and financing stay empty under the indirect method.
	assert.Empty(t, stmt.Sections[1].Lines)
	assert.Empty(t, stmt.Sections[2].Lines)

	assert.Equal(t, "0.00", stmt.OpeningBalance.Add(stmt.NetChange).Sub(stmt.ClosingBalance).StringFixed(2))
}

func TestIncomeStatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post(t, "2026-01-10", "1110", "4100", "70.00")
	f.post(t, "2026-01-15", "6390", "1110", "30.00")

	stmt, err := NewIncomeService(f.engine).Generate(ctx, day("2026-01-01"), day("2026-01-31"), ledger.Filter{})
	require.NoError(t, err)

	assert.Equal(t, "70.00", stmt.TotalRevenue.StringFixed(2))
	assert.Equal(t, "30.00", stmt.TotalExpenses.StringFixed(2))
	assert.Equal(t, "40.00", stmt.NetIncome.StringFixed(2))
	require.Len(t, stmt.Revenue, 1)
	assert.Equal(t, "4100", stmt.Revenue[0].Code)
}

func TestTrialBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post(t, "2026-01-10", "1110", "4100", "70.00")
	f.post(t, "2026-01-15", "6390", "1110", "30.00")

	tb, err := f.engine.GenerateTrialBalance(ctx, day("2026-01-31"), ledger.Filter{})
	require.NoError(t, err)

	assert.True(t, tb.Balanced)
	assert.Equal(t, tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2))
	require.Len(t, tb.Lines, 3)
	for _, l := range tb.Lines {
		if l.Code == "1110" {
			assert.Equal(t, "40.00", l.Debit.StringFixed(2))
		}
	}
}

func TestAgingReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asOf := day("2026-03-01")
	addInvoice := func(number, date, remaining string) *store.OpenInvoice {
		inv := &store.OpenInvoice{
			Number: number, Kind: "receivable", Party: "Acme",
			InvoiceDate: day(date), Total: d(remaining), Remaining: d(remaining),
		}
		require.NoError(t, f.store.AddOpenInvoice(ctx, inv))
		return inv
	}

	addInvoice("INV-1", "2026-02-20", "100.00") // 9 days: Current
	addInvoice("INV-2", "2026-01-15", "200.00") // 45 days: 31–60
	cached := addInvoice("INV-3", "2026-02-25", "50.00")

	// A cached schedule row wins over recomputation, even when stale.
	require.NoError(t, f.store.PutAgingSchedule(ctx, &store.AgingSchedule{
		InvoiceID: cached.ID, DaysOutstanding: 120, Bucket: ledger.BucketOver90,
	}))

	rep, err := NewClassifier(f.store).Report(ctx, "receivable", asOf, ledger.Filter{})
	require.NoError(t, err)

	require.Len(t, rep.Lines, 3)
	assert.Equal(t, "100.00", rep.BucketTotals[ledger.BucketCurrent].StringFixed(2))
	assert.Equal(t, "200.00", rep.BucketTotals[ledger.Bucket31To60].StringFixed(2))
	assert.Equal(t, "0.00", rep.BucketTotals[ledger.Bucket61To90].StringFixed(2))
	assert.Equal(t, "50.00", rep.BucketTotals[ledger.BucketOver90].StringFixed(2))
	assert.Equal(t, "350.00", rep.Total.StringFixed(2))
}
