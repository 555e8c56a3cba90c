package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultNormalBalance(t *testing.T) {
	assert.Equal(t, NormalDebit, DefaultNormalBalance(TypeAsset))
	assert.Equal(t, NormalDebit, DefaultNormalBalance(TypeExpense))
	assert.Equal(t, NormalCredit, DefaultNormalBalance(TypeLiability))
	assert.Equal(t, NormalCredit, DefaultNormalBalance(TypeEquity))
	assert.Equal(t, NormalCredit, DefaultNormalBalance(TypeRevenue))
}

func TestAccountValidate(t *testing.T) {
	valid := Account{Code: "1140.01", Name: "Raw Materials", Type: TypeAsset, NormalBalance: NormalDebit, ParentCode: "1140"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*Account)
		wantErr error
	}{
		{"empty code", func(a *Account) { a.Code = "" }, ErrInvalidAccountCode},
		{"whitespace in code", func(a *Account) { a.Code = "11 40" }, ErrInvalidAccountCode},
		{"bad type", func(a *Account) { a.Type = "Contra" }, ErrInvalidAccountType},
		{"bad normal balance", func(a *Account) { a.NormalBalance = "both" }, ErrInvalidNormalBalance},
		{"parent not a prefix", func(a *Account) { a.ParentCode = "2110" }, ErrInvalidAccountCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			assert.ErrorIs(t, a.Validate(), tt.wantErr)
		})
	}
}

func TestPrefixIndexResolve(t *testing.T) {
	accounts := []Account{
		{ID: "a", Code: "1140", Name: "Inventory"},
		{ID: "b", Code: "1140.01", Name: "Raw Materials"},
		{ID: "c", Code: "1140.02", Name: "Work in Progress"},
		{ID: "d", Code: "1141", Name: "Finished Goods"},
		{ID: "e", Code: "2110", Name: "Trade Payables"},
	}
	ix := NewPrefixIndex(accounts)

	got := ix.Resolve("1140")
	require.Len(t, got, 3)
	assert.Equal(t, "1140", got[0].Code)
	assert.Equal(t, "1140.01", got[1].Code)
	assert.Equal(t, "1140.02", got[2].Code)

	// Prefix match is on code bytes, not numeric ranges.
	got = ix.Resolve("114")
	assert.Len(t, got, 4)

	// Overlapping prefixes do not double-count.
	got = ix.Resolve("1140", "1140.01")
	assert.Len(t, got, 3)

	assert.Empty(t, ix.Resolve("9"))
	assert.Empty(t, ix.Resolve())
	assert.Empty(t, ix.Resolve(""))

	assert.Len(t, ix.All(), 5)
}

func TestBucketForDays(t *testing.T) {
	tests := []struct {
		days int
		want AgingBucket
	}{
		{-5, BucketCurrent},
		{0, BucketCurrent},
		{30, BucketCurrent},
		{31, Bucket31To60},
		{60, Bucket31To60},
		{61, Bucket61To90},
		{90, Bucket61To90},
		{91, BucketOver90},
		{400, BucketOver90},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketForDays(tt.days), "days=%d", tt.days)
	}
}

func TestDaysOutstanding(t *testing.T) {
	invoice := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysOutstanding(invoice, invoice))
	assert.Equal(t, 31, DaysOutstanding(invoice, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, DaysOutstanding(invoice, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestPostingGroupValidate(t *testing.T) {
	line := func(debit, credit string) Posting {
		return Posting{
			AccountID: "a",
			Debit:     decimal.RequireFromString(debit),
			Credit:    decimal.RequireFromString(credit),
		}
	}

	t.Run("balanced", func(t *testing.T) {
		g := PostingGroup{Postings: []Posting{line("150.00", "0"), line("0", "150.00")}}
		assert.NoError(t, g.Validate())
	})

	t.Run("rounding tolerance", func(t *testing.T) {
		g := PostingGroup{Postings: []Posting{line("33.333", "0"), line("33.333", "0"), line("33.333", "0"), line("0", "100.00")}}
		assert.NoError(t, g.Validate())
	})

	t.Run("empty", func(t *testing.T) {
		g := PostingGroup{}
		assert.ErrorIs(t, g.Validate(), ErrEmptyPostingGroup)
	})

	t.Run("unbalanced", func(t *testing.T) {
		g := PostingGroup{Postings: []Posting{line("100", "0"), line("0", "90")}}
		assert.ErrorIs(t, g.Validate(), ErrUnbalancedGroup)
	})

	t.Run("negative amount", func(t *testing.T) {
		g := PostingGroup{Postings: []Posting{line("-100", "0"), line("0", "-100")}}
		assert.ErrorIs(t, g.Validate(), ErrNegativeAmount)
	})
}
