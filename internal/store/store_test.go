package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santara-erp/ledger/internal/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustAccount(t *testing.T, s *Store, code, name string, typ ledger.AccountType) *ledger.Account {
	t.Helper()
	acct := &ledger.Account{Code: code, Name: name, Type: typ}
	require.NoError(t, s.CreateAccount(context.Background(), acct))
	return acct
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCreateAccount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acct := mustAccount(t, s, "1110", "Cash", ledger.TypeAsset)
	assert.NotEmpty(t, acct.ID)
	assert.Equal(t, ledger.NormalDebit, acct.NormalBalance)

	got, err := s.GetAccountByCode(ctx, "1110")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)
	assert.True(t, got.IsActive)

	err = s.CreateAccount(ctx, &ledger.Account{Code: "1110", Name: "Cash again", Type: ledger.TypeAsset})
	assert.ErrorIs(t, err, ledger.ErrDuplicateAccount)

	_, err = s.GetAccountByCode(ctx, "9999")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestRetireAccount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mustAccount(t, s, "1110", "Cash", ledger.TypeAsset)
	require.NoError(t, s.RetireAccount(ctx, "1110"))

	active, err := s.ListAccounts(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := s.ListAccounts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.ErrorIs(t, s.RetireAccount(ctx, "9999"), ledger.ErrAccountNotFound)
}

func TestCreatePostingGroup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cash := mustAccount(t, s, "1110", "Cash", ledger.TypeAsset)
	sales := mustAccount(t, s, "4100", "Sales", ledger.TypeRevenue)

	group := &ledger.PostingGroup{Postings: []ledger.Posting{
		{AccountID: cash.ID, Date: day("2026-03-10"), Reference: "INV-1", Debit: d("150.00"), JournalType: ledger.JournalSales, Source: ledger.SourceRef{Kind: ledger.SourceInvoice, ID: "1"}},
		{AccountID: sales.ID, Date: day("2026-03-10"), Reference: "INV-1", Credit: d("150.00"), JournalType: ledger.JournalSales, Source: ledger.SourceRef{Kind: ledger.SourceInvoice, ID: "1"}},
	}}
	require.NoError(t, s.CreatePostingGroup(ctx, group))
	require.NotEmpty(t, group.TransactionID)

	got, err := s.GetPostingGroup(ctx, group.TransactionID)
	require.NoError(t, err)
	require.Len(t, got.Postings, 2)
	assert.Equal(t, "150.00", got.Postings[0].Debit.StringFixed(2))
	assert.Equal(t, "150.00", got.Postings[1].Credit.StringFixed(2))
}

func TestCreatePostingGroupRejectsUnbalanced(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cash := mustAccount(t, s, "1110", "Cash", ledger.TypeAsset)
	sales := mustAccount(t, s, "4100", "Sales", ledger.TypeRevenue)

	group := &ledger.PostingGroup{TransactionID: "bad", Postings: []ledger.Posting{
		{AccountID: cash.ID, Debit: d("150.00")},
		{AccountID: sales.ID, Credit: d("100.00")},
	}}
	assert.ErrorIs(t, s.CreatePostingGroup(ctx, group), ledger.ErrUnbalancedGroup)

	// Nothing from the rejected group is visible.
	_, err := s.GetPostingGroup(ctx, "bad")
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

func TestDeleteGroupsBySource(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cash := mustAccount(t, s, "1110", "Cash", ledger.TypeAsset)
	bank := mustAccount(t, s, "1111", "Bank", ledger.TypeAsset)

	src := ledger.SourceRef{Kind: ledger.SourceCashBankTransfer, ID: "T-1"}
	group := &ledger.PostingGroup{Postings: []ledger.Posting{
		{AccountID: cash.ID, Credit: d("50.00"), JournalType: ledger.JournalTransfer, Source: src},
		{AccountID: bank.ID, Debit: d("50.00"), JournalType: ledger.JournalTransfer, Source: src},
	}}
	require.NoError(t, s.CreatePostingGroup(ctx, group))

	require.NoError(t, s.DeleteGroupsBySource(ctx, src, ledger.JournalTransfer))
	_, err := s.GetPostingGroup(ctx, group.TransactionID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)

	// Deleting again is a no-op.
	require.NoError(t, s.DeleteGroupsBySource(ctx, src, ledger.JournalTransfer))
}

func TestSumByAccountWindowAndFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cash := mustAccount(t, s, "1110", "Cash", ledger.TypeAsset)
	sales := mustAccount(t, s, "4100", "Sales", ledger.TypeRevenue)

	post := func(date, debitAmt, creditAmt, branch string) {
		g := &ledger.PostingGroup{Postings: []ledger.Posting{
			{AccountID: cash.ID, Date: day(date), Debit: d(debitAmt), BranchID: branch},
			{AccountID: sales.ID, Date: day(date), Credit: d(creditAmt), BranchID: branch},
		}}
		require.NoError(t, s.CreatePostingGroup(ctx, g))
	}
	post("2026-01-15", "100.00", "100.00", "JKT")
	post("2026-02-15", "40.00", "40.00", "SBY")
	post("2026-03-15", "25.00", "25.00", "JKT")

	from, to := day("2026-01-01"), day("2026-02-28")
	sums, err := s.SumByAccount(ctx, []string{cash.ID, sales.ID}, &from, &to, ledger.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "140.00", sums[cash.ID].Debit.StringFixed(2))
	assert.Equal(t, "140.00", sums[sales.ID].Credit.StringFixed(2))

	sums, err = s.SumByAccount(ctx, []string{cash.ID}, &from, &to, ledger.Filter{Branches: []string{"JKT"}})
	require.NoError(t, err)
	assert.Equal(t, "100.00", sums[cash.ID].Debit.StringFixed(2))

	// Open start: balance as of a date.
	asOf := day("2026-03-31")
	sums, err = s.SumByAccount(ctx, []string{cash.ID}, nil, &asOf, ledger.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "165.00", sums[cash.ID].Debit.StringFixed(2))
}

func TestBookBalance(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bank := mustAccount(t, s, "1111", "Bank", ledger.TypeAsset)
	other := mustAccount(t, s, "6390", "Bank Fees", ledger.TypeExpense)

	g := &ledger.PostingGroup{Postings: []ledger.Posting{
		{AccountID: bank.ID, Date: day("2026-04-05"), Debit: d("500.00")},
		{AccountID: other.ID, Date: day("2026-04-05"), Credit: d("500.00")},
	}}
	require.NoError(t, s.CreatePostingGroup(ctx, g))
	g2 := &ledger.PostingGroup{Postings: []ledger.Posting{
		{AccountID: bank.ID, Date: day("2026-04-20"), Credit: d("120.00")},
		{AccountID: other.ID, Date: day("2026-04-20"), Debit: d("120.00")},
	}}
	require.NoError(t, s.CreatePostingGroup(ctx, g2))

	bal, err := s.BookBalance(ctx, bank.ID, day("2026-04-01"), day("2026-04-30"))
	require.NoError(t, err)
	assert.Equal(t, "380.00", bal.StringFixed(2))
}

func TestFindOrCreateReconciliation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bank := mustAccount(t, s, "1111", "Bank", ledger.TypeAsset)
	start, end := day("2026-04-01"), day("2026-04-30")

	first, err := s.FindOrCreateReconciliation(ctx, bank.ID, start, end)
	require.NoError(t, err)
	second, err := s.FindOrCreateReconciliation(ctx, bank.ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, s.UpdateBookBalance(ctx, first.ID, d("380.00")))
	got, err := s.GetReconciliation(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "380.00", got.BookBalance.StringFixed(2))

	assert.ErrorIs(t, s.UpdateBookBalance(ctx, 9999, d("1.00")), ledger.ErrReconciliationMissing)
}

func TestMarkClearedAndConfirmed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bank := mustAccount(t, s, "1111", "Bank", ledger.TypeAsset)
	cash := mustAccount(t, s, "1110", "Cash", ledger.TypeAsset)

	g := &ledger.PostingGroup{Postings: []ledger.Posting{
		{AccountID: cash.ID, Date: day("2026-04-05"), Credit: d("50.00")},
		{AccountID: bank.ID, Date: day("2026-04-05"), Debit: d("50.00")},
	}}
	require.NoError(t, s.CreatePostingGroup(ctx, g))

	recon, err := s.FindOrCreateReconciliation(ctx, bank.ID, day("2026-04-01"), day("2026-04-30"))
	require.NoError(t, err)

	clearedAt := day("2026-04-06")
	n, err := s.MarkCleared(ctx, g.TransactionID, bank.ID, recon.ID, clearedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetPostingGroup(ctx, g.TransactionID)
	require.NoError(t, err)
	var bankLine *ledger.Posting
	for i := range got.Postings {
		if got.Postings[i].AccountID == bank.ID {
			bankLine = &got.Postings[i]
		}
	}
	require.NotNil(t, bankLine)
	require.NotNil(t, bankLine.ClearedAt)
	assert.Equal(t, recon.ID, bankLine.ReconID)
	assert.False(t, bankLine.Confirmed, "system clearing must not confirm")

	// User confirmation is independent of clearing.
	require.NoError(t, s.SetConfirmed(ctx, bankLine.ID, true))
	p, err := s.GetPosting(ctx, bankLine.ID)
	require.NoError(t, err)
	assert.True(t, p.Confirmed)

	require.NoError(t, s.SetConfirmed(ctx, bankLine.ID, false))
	p, err = s.GetPosting(ctx, bankLine.ID)
	require.NoError(t, err)
	assert.False(t, p.Confirmed)
}

func TestSumRawMaterialStock(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddProduct(ctx, &Product{ID: "P1", Name: "Flour", IsRawMaterial: true}))
	require.NoError(t, s.AddProduct(ctx, &Product{ID: "P2", Name: "Cake", IsRawMaterial: false}))

	add := func(product, typ, value, date string) {
		require.NoError(t, s.AddStockMovement(ctx, &StockMovement{
			ProductID: product, Type: typ, Value: d(value), Date: day(date),
		}))
	}
	add("P1", "purchase_in", "500.00", "2026-01-10")
	add("P1", "manufacture_out", "200.00", "2026-01-20")
	add("P2", "manufacture_in", "900.00", "2026-01-15") // not raw material
	add("P1", "purchase_in", "100.00", "2026-03-01")    // after asOf

	in, err := s.SumRawMaterialStock(ctx, StockInTypes, day("2026-01-31"), ledger.Filter{})
	require.NoError(t, err)
	out, err := s.SumRawMaterialStock(ctx, StockOutTypes, day("2026-01-31"), ledger.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "300.00", in.Sub(out).StringFixed(2))
}
