package journal

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

func openSeededStore(t *testing.T) (*store.Store, map[string]*ledger.Account) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	byCode := map[string]*ledger.Account{}
	for _, c := range []struct {
		code, name string
		typ        ledger.AccountType
	}{
		{"1110", "Cash", ledger.TypeAsset},
		{"1111", "Bank", ledger.TypeAsset},
		{"4100", "Sales", ledger.TypeRevenue},
		{"6390", "Bank Fees", ledger.TypeExpense},
	} {
		acct := &ledger.Account{Code: c.code, Name: c.name, Type: c.typ}
		require.NoError(t, st.CreateAccount(ctx, acct))
		byCode[c.code] = acct
	}
	return st, byCode
}

func reconConfig() config.ReconciliationConfig {
	return config.ReconciliationConfig{
		BankPrefixes:   []string{"1111"},
		FeeAccountCode: "6390",
	}
}

func TestReverse(t *testing.T) {
	st, byCode := openSeededStore(t)
	ctx := context.Background()

	g := &ledger.PostingGroup{Postings: []ledger.Posting{
		{AccountID: byCode["1110"].ID, Date: day("2026-02-10"), Reference: "INV-7", Debit: d("200.00")},
		{AccountID: byCode["4100"].ID, Date: day("2026-02-10"), Reference: "INV-7", Credit: d("200.00")},
	}}
	require.NoError(t, st.CreatePostingGroup(ctx, g))

	r := NewReverser(st)
	r.now = func() time.Time { return day("2026-03-01") }

	newID, err := r.Reverse(ctx, g.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "REV-"+g.TransactionID, newID)

	rev, err := st.GetPostingGroup(ctx, newID)
	require.NoError(t, err)
	require.Len(t, rev.Postings, 2)
	for _, p := range rev.Postings {
		assert.True(t, p.IsReversal)
		assert.Equal(t, g.TransactionID, p.ReversalOf)
		assert.Equal(t, ledger.JournalReversal, p.JournalType)
		assert.Equal(t, "REV-INV-7", p.Reference)
		assert.Equal(t, "2026-03-01", p.Date.Format(store.DateLayout))
	}
	assert.Equal(t, "200.00", rev.Postings[0].Credit.StringFixed(2), "debit and credit swap")
	assert.Equal(t, "200.00", rev.Postings[1].Debit.StringFixed(2))

	// The original is untouched.
	orig, err := st.GetPostingGroup(ctx, g.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "200.00", orig.Postings[0].Debit.StringFixed(2))

	_, err = r.Reverse(ctx, g.TransactionID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyReversed)

	_, err = r.Reverse(ctx, "no-such-transaction")
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

func TestTransferPost(t *testing.T) {
	st, byCode := openSeededStore(t)
	ctx := context.Background()

	recon := NewReconciler(st, reconConfig())
	recon.now = func() time.Time { return day("2026-04-16") }
	svc := NewTransferService(st, reconConfig(), recon)

	err := svc.Post(ctx, Transfer{
		ID:              "T-1",
		FromAccountCode: "1110",
		ToAccountCode:   "1111",
		Amount:          d("500.00"),
		OtherCosts:      d("10.00"),
		Date:            day("2026-04-15"),
		Reference:       "TRF/2026/04/001",
	})
	require.NoError(t, err)

	start, end := day("2026-04-01"), day("2026-04-30")
	fromBal, err := st.BookBalance(ctx, byCode["1110"].ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, "-510.00", fromBal.StringFixed(2), "source pays amount plus fee")

	toBal, err := st.BookBalance(ctx, byCode["1111"].ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, "500.00", toBal.StringFixed(2))

	feeBal, err := st.BookBalance(ctx, byCode["6390"].ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, "10.00", feeBal.StringFixed(2))

	// Only the bank side is tracked for reconciliation.
	recons, err := st.ListReconciliations(ctx)
	require.NoError(t, err)
	require.Len(t, recons, 1)
	assert.Equal(t, byCode["1111"].ID, recons[0].AccountID)
	assert.Equal(t, "2026-04-01", recons[0].PeriodStart.Format(store.DateLayout))
	assert.Equal(t, "2026-04-30", recons[0].PeriodEnd.Format(store.DateLayout))
	assert.Equal(t, "500.00", recons[0].BookBalance.StringFixed(2))
}

func TestTransferRepostReplaces(t *testing.T) {
	st, byCode := openSeededStore(t)
	ctx := context.Background()

	recon := NewReconciler(st, reconConfig())
	svc := NewTransferService(st, reconConfig(), recon)

	transfer := Transfer{
		ID:              "T-2",
		FromAccountCode: "1110",
		ToAccountCode:   "1111",
		Amount:          d("500.00"),
		Date:            day("2026-04-15"),
	}
	require.NoError(t, svc.Post(ctx, transfer))

	// Re-posting the edited transfer replaces the earlier lines.
	transfer.Amount = d("400.00")
	require.NoError(t, svc.Post(ctx, transfer))

	start, end := day("2026-04-01"), day("2026-04-30")
	toBal, err := st.BookBalance(ctx, byCode["1111"].ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, "400.00", toBal.StringFixed(2))

	// Still a single reconciliation record, with a refreshed balance.
	recons, err := st.ListReconciliations(ctx)
	require.NoError(t, err)
	require.Len(t, recons, 1)
	assert.Equal(t, "400.00", recons[0].BookBalance.StringFixed(2))
}

func TestTransferValidation(t *testing.T) {
	st, _ := openSeededStore(t)
	ctx := context.Background()

	recon := NewReconciler(st, reconConfig())
	svc := NewTransferService(st, reconConfig(), recon)

	err := svc.Post(ctx, Transfer{ID: "T-3", FromAccountCode: "1110", ToAccountCode: "1111", Amount: d("-5.00"), Date: day("2026-04-15")})
	assert.ErrorIs(t, err, ledger.ErrNegativeAmount)

	err = svc.Post(ctx, Transfer{ID: "T-4", FromAccountCode: "9999", ToAccountCode: "1111", Amount: d("5.00"), Date: day("2026-04-15")})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}
