package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/santara-erp/ledger/internal/ledger"
)

// TrialBalanceLine carries one account's raw debit/credit position.
// Exactly one of Debit and Credit is non-zero per line.
type TrialBalanceLine struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// TrialBalance is the raw debit/credit position of every account with
// activity as of a date. Balanced reports whether total debits equal
// total credits.
type TrialBalance struct {
	AsOf        time.Time          `json:"as_of"`
	Lines       []TrialBalanceLine `json:"lines"`
	TotalDebit  decimal.Decimal    `json:"total_debit"`
	TotalCredit decimal.Decimal    `json:"total_credit"`
	Balanced    bool               `json:"balanced"`
}

// GenerateTrialBalance nets each account to its debit or credit column
// and checks the books balance overall. Zero-balance accounts are
// omitted.
func (e *Engine) GenerateTrialBalance(ctx context.Context, asOf time.Time, f ledger.Filter) (*TrialBalance, error) {
	accounts := e.Accounts()
	sums, err := e.store.SumByAccount(ctx, accountIDs(accounts), nil, &asOf, f)
	if err != nil {
		return nil, err
	}

	tb := &TrialBalance{
		AsOf:        asOf,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for i := range accounts {
		acct := &accounts[i]
		dc, ok := sums[acct.ID]
		if !ok {
			continue
		}
		net := dc.Debit.Sub(dc.Credit).Round(2)
		if net.IsZero() {
			continue
		}
		line := TrialBalanceLine{Code: acct.Code, Name: acct.Name}
		if net.IsPositive() {
			line.Debit = net
			tb.TotalDebit = tb.TotalDebit.Add(net)
		} else {
			line.Credit = net.Neg()
			tb.TotalCredit = tb.TotalCredit.Add(net.Neg())
		}
		tb.Lines = append(tb.Lines, line)
	}
	tb.TotalDebit = tb.TotalDebit.Round(2)
	tb.TotalCredit = tb.TotalCredit.Round(2)
	tb.Balanced = tb.TotalDebit.Equal(tb.TotalCredit)
	return tb, nil
}
