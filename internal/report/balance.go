// Package report derives financial statements from the journal ledger:
// balances, aging schedules, the COGM waterfall, cash-flow statements,
// the income statement, and the trial balance.
package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/santara-erp/ledger/internal/ledger"
	"github.com/santara-erp/ledger/internal/store"
)

// Movement holds raw period totals over an account set.
type Movement struct {
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// Engine computes signed balances and period movements over account
// sets resolved by code prefix. Build one per report run; the prefix
// index snapshots the active chart of accounts.
type Engine struct {
	store *store.Store
	index *ledger.PrefixIndex
}

// NewEngine builds an engine over the given chart of accounts.
func NewEngine(st *store.Store, accounts []ledger.Account) *Engine {
	return &Engine{store: st, index: ledger.NewPrefixIndex(accounts)}
}

// NewEngineFromStore loads the active chart of accounts and builds an
// engine over it.
func NewEngineFromStore(ctx context.Context, st *store.Store) (*Engine, error) {
	accounts, err := st.ListAccounts(ctx, true)
	if err != nil {
		return nil, err
	}
	return NewEngine(st, accounts), nil
}

// Resolve returns every account whose code starts with any of the
// given prefixes.
func (e *Engine) Resolve(prefixes ...string) []ledger.Account {
	return e.index.Resolve(prefixes...)
}

// Accounts returns the full snapshotted chart, sorted by code.
func (e *Engine) Accounts() []ledger.Account {
	return e.index.All()
}

// Balance returns the signed balance of the account set as of a date:
// Σdebit−Σcredit per account, flipped for credit-normal accounts, each
// contribution signed individually before summing. An empty set yields
// zero.
func (e *Engine) Balance(ctx context.Context, accounts []ledger.Account, asOf time.Time, f ledger.Filter) (decimal.Decimal, error) {
	return e.signedSum(ctx, accounts, nil, &asOf, f)
}

// PeriodNet returns the signed movement of the account set over
// [start, end], each account's contribution signed by its own normal
// balance.
func (e *Engine) PeriodNet(ctx context.Context, accounts []ledger.Account, start, end time.Time, f ledger.Filter) (decimal.Decimal, error) {
	return e.signedSum(ctx, accounts, &start, &end, f)
}

// PeriodMovement returns raw debit and credit totals of the account
// set over [start, end], unsigned by convention.
func (e *Engine) PeriodMovement(ctx context.Context, accounts []ledger.Account, start, end time.Time, f ledger.Filter) (Movement, error) {
	sums, err := e.store.SumByAccount(ctx, accountIDs(accounts), &start, &end, f)
	if err != nil {
		return Movement{}, err
	}
	var m Movement
	for _, dc := range sums {
		m.Debit = m.Debit.Add(dc.Debit)
		m.Credit = m.Credit.Add(dc.Credit)
	}
	m.Debit = m.Debit.Round(2)
	m.Credit = m.Credit.Round(2)
	return m, nil
}

// RawBalance returns Σdebit−Σcredit over the account set as of a date
// with no normal-balance signing. The indirect-method working-capital
// deltas are defined on this raw quantity.
func (e *Engine) RawBalance(ctx context.Context, accounts []ledger.Account, asOf time.Time, f ledger.Filter) (decimal.Decimal, error) {
	sums, err := e.store.SumByAccount(ctx, accountIDs(accounts), nil, &asOf, f)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, dc := range sums {
		total = total.Add(dc.Debit.Sub(dc.Credit))
	}
	return total.Round(2), nil
}

// signedSum runs one grouped aggregation over the account set and
// signs each account's contribution by its own normal balance. Never
// sums raw debits/credits across accounts with differing conventions.
func (e *Engine) signedSum(ctx context.Context, accounts []ledger.Account, from, to *time.Time, f ledger.Filter) (decimal.Decimal, error) {
	if len(accounts) == 0 {
		return decimal.Zero, nil
	}
	sums, err := e.store.SumByAccount(ctx, accountIDs(accounts), from, to, f)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range accounts {
		acct := &accounts[i]
		dc, ok := sums[acct.ID]
		if !ok {
			continue
		}
		contribution := dc.Debit.Sub(dc.Credit)
		if acct.NormalBalance == ledger.NormalCredit {
			contribution = dc.Credit.Sub(dc.Debit)
		}
		total = total.Add(contribution)
	}
	return total.Round(2), nil
}

func accountIDs(accounts []ledger.Account) []string {
	ids := make([]string, len(accounts))
	for i := range accounts {
		ids[i] = accounts[i].ID
	}
	return ids
}

func accountCodes(accounts []ledger.Account) []string {
	codes := make([]string, len(accounts))
	for i := range accounts {
		codes[i] = accounts[i].Code
	}
	return codes
}
