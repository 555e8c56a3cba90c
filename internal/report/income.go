package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/santara-erp/ledger/internal/ledger"
)

// IncomeLine is one revenue or expense account's signed period amount.
type IncomeLine struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// IncomeStatement lists per-account revenue and expense movements for
// a period. NetIncome = TotalRevenue − TotalExpenses.
type IncomeStatement struct {
	Period        Period          `json:"period"`
	Revenue       []IncomeLine    `json:"revenue"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	Expenses      []IncomeLine    `json:"expenses"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
}

// IncomeService derives the income statement from period movements
// over revenue and expense accounts. It also serves as the net-income
// seed for the indirect cash-flow method.
type IncomeService struct {
	engine *Engine
}

func NewIncomeService(engine *Engine) *IncomeService {
	return &IncomeService{engine: engine}
}

func (s *IncomeService) Generate(ctx context.Context, start, end time.Time, f ledger.Filter) (*IncomeStatement, error) {
	out := &IncomeStatement{
		Period:        Period{Start: start, End: end},
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, acct := range s.engine.Accounts() {
		if acct.Type != ledger.TypeRevenue && acct.Type != ledger.TypeExpense {
			continue
		}
		amount, err := s.engine.PeriodNet(ctx, []ledger.Account{acct}, start, end, f)
		if err != nil {
			return nil, err
		}
		if amount.IsZero() {
			continue
		}
		line := IncomeLine{Code: acct.Code, Name: acct.Name, Amount: amount}
		if acct.Type == ledger.TypeRevenue {
			out.Revenue = append(out.Revenue, line)
			out.TotalRevenue = out.TotalRevenue.Add(amount)
		} else {
			out.Expenses = append(out.Expenses, line)
			out.TotalExpenses = out.TotalExpenses.Add(amount)
		}
	}
	out.TotalRevenue = out.TotalRevenue.Round(2)
	out.TotalExpenses = out.TotalExpenses.Round(2)
	out.NetIncome = out.TotalRevenue.Sub(out.TotalExpenses).Round(2)
	return out, nil
}

// NetIncome implements IncomeSource.
func (s *IncomeService) NetIncome(ctx context.Context, start, end time.Time, f ledger.Filter) (decimal.Decimal, error) {
	stmt, err := s.Generate(ctx, start, end, f)
	if err != nil {
		return decimal.Zero, err
	}
	return stmt.NetIncome, nil
}
