package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/santara-erp/ledger/internal/config"
	"github.com/santara-erp/ledger/internal/ledger"
	"github.com/santara-erp/ledger/internal/store"
)

// Fallback thresholds for raw-material valuation: a ledger balance
// within one currency unit of the stock-derived balance is trusted; a
// near-zero ledger balance against a non-zero stock balance, or a
// wider divergence, defers to stock.
var (
	nearZero   = decimal.NewFromFloat(0.01)
	divergence = decimal.NewFromInt(1)
)

// RawMaterialStages breaks down the raw-material leg of the waterfall.
type RawMaterialStages struct {
	Opening   decimal.Decimal `json:"opening"`
	Purchases decimal.Decimal `json:"purchases"`
	Available decimal.Decimal `json:"available"`
	Closing   decimal.Decimal `json:"closing"`
	Used      decimal.Decimal `json:"used"`
}

// OverheadLine is one configured overhead item with its period amount.
type OverheadLine struct {
	Key    string          `json:"key"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// OverheadStages holds the overhead line items and their total.
type OverheadStages struct {
	Items []OverheadLine  `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// WIPStages holds opening and closing work-in-progress balances.
type WIPStages struct {
	Opening decimal.Decimal `json:"opening"`
	Closing decimal.Decimal `json:"closing"`
}

// HPPReport is the full cost-of-goods-manufactured waterfall. Every
// stage is returned so callers can render the whole schedule, not just
// the final figure.
type HPPReport struct {
	Period         Period            `json:"period"`
	RawMaterials   RawMaterialStages `json:"raw_materials"`
	DirectLabor    decimal.Decimal   `json:"direct_labor"`
	Overhead       OverheadStages    `json:"overhead"`
	ProductionCost decimal.Decimal   `json:"production_cost"`
	WIP            WIPStages         `json:"wip"`
	COGM           decimal.Decimal   `json:"cogm"`
}

// Period is the inclusive date range a report covers.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// HPPCalculator produces the COGM waterfall from the ledger, with a
// stock-ledger fallback for raw-material valuation.
type HPPCalculator struct {
	engine *Engine
	store  *store.Store
	cfg    config.HPPConfig
}

func NewHPPCalculator(engine *Engine, st *store.Store, cfg config.HPPConfig) *HPPCalculator {
	return &HPPCalculator{engine: engine, store: st, cfg: cfg}
}

// Generate computes the waterfall over [start, end]. Branch, division,
// and project filters apply uniformly to every stage.
func (c *HPPCalculator) Generate(ctx context.Context, start, end time.Time, f ledger.Filter) (*HPPReport, error) {
	rawMaterialAccounts := c.engine.Resolve(c.cfg.RawMaterialInventory...)
	purchaseAccounts := c.engine.Resolve(c.cfg.RawMaterialPurchase...)
	laborAccounts := c.engine.Resolve(c.cfg.DirectLabor...)
	wipAccounts := c.engine.Resolve(c.cfg.WIPInventory...)

	dayBefore := start.AddDate(0, 0, -1)

	openingRaw, err := c.rawMaterialBalance(ctx, rawMaterialAccounts, dayBefore, f)
	if err != nil {
		return nil, err
	}
	closingRaw, err := c.rawMaterialBalance(ctx, rawMaterialAccounts, end, f)
	if err != nil {
		return nil, err
	}
	purchasesRaw, err := c.engine.PeriodNet(ctx, purchaseAccounts, start, end, f)
	if err != nil {
		return nil, err
	}

	availableRaw := openingRaw.Add(purchasesRaw).Round(2)
	rawMaterialUsed := availableRaw.Sub(closingRaw).Round(2)
	if rawMaterialUsed.IsNegative() {
		rawMaterialUsed = decimal.Zero
	}

	directLabor, err := c.engine.PeriodNet(ctx, laborAccounts, start, end, f)
	if err != nil {
		return nil, err
	}

	overhead := OverheadStages{Total: decimal.Zero}
	for _, item := range c.cfg.Overheads {
		accounts := c.engine.Resolve(item.Prefixes...)
		amount, err := c.engine.PeriodNet(ctx, accounts, start, end, f)
		if err != nil {
			return nil, err
		}
		overhead.Items = append(overhead.Items, OverheadLine{Key: item.Key, Label: item.Label, Amount: amount})
		overhead.Total = overhead.Total.Add(amount)
	}
	overhead.Total = overhead.Total.Round(2)

	productionCost := rawMaterialUsed.Add(directLabor).Add(overhead.Total).Round(2)
	if productionCost.IsNegative() {
		productionCost = decimal.Zero
	}

	// WIP is ledger-only: no stock fallback.
	openingWip, err := c.engine.Balance(ctx, wipAccounts, dayBefore, f)
	if err != nil {
		return nil, err
	}
	closingWip, err := c.engine.Balance(ctx, wipAccounts, end, f)
	if err != nil {
		return nil, err
	}

	cogm := productionCost.Add(openingWip).Sub(closingWip).Round(2)
	if cogm.IsNegative() {
		cogm = decimal.Zero
	}

	return &HPPReport{
		Period: Period{Start: start, End: end},
		RawMaterials: RawMaterialStages{
			Opening:   openingRaw,
			Purchases: purchasesRaw,
			Available: availableRaw,
			Closing:   closingRaw,
			Used:      rawMaterialUsed,
		},
		DirectLabor:    directLabor,
		Overhead:       overhead,
		ProductionCost: productionCost,
		WIP:            WIPStages{Opening: openingWip, Closing: closingWip},
		COGM:           cogm,
	}, nil
}

// rawMaterialBalance values raw material as of a date. Postings may
// land in the ledger or only in the stock ledger depending on the
// data-entry path, so both are computed and the fallback rule decides
// which to trust.
func (c *HPPCalculator) rawMaterialBalance(ctx context.Context, accounts []ledger.Account, asOf time.Time, f ledger.Filter) (decimal.Decimal, error) {
	ledgerBalance, err := c.engine.Balance(ctx, accounts, asOf, f)
	if err != nil {
		return decimal.Zero, err
	}
	stockBalance, err := c.stockBalance(ctx, asOf, f)
	if err != nil {
		return decimal.Zero, err
	}
	if useStockFallback(ledgerBalance, stockBalance) {
		return stockBalance, nil
	}
	return ledgerBalance, nil
}

func (c *HPPCalculator) stockBalance(ctx context.Context, asOf time.Time, f ledger.Filter) (decimal.Decimal, error) {
	in, err := c.store.SumRawMaterialStock(ctx, store.StockInTypes, asOf, f)
	if err != nil {
		return decimal.Zero, err
	}
	out, err := c.store.SumRawMaterialStock(ctx, store.StockOutTypes, asOf, f)
	if err != nil {
		return decimal.Zero, err
	}
	return in.Sub(out).Round(2), nil
}

// useStockFallback trusts the ledger unless it is near zero while
// stock is not, or the two genuinely diverge by more than one unit of
// currency. The ledger misses postings more often than stock is
// miscounted.
func useStockFallback(ledgerBalance, stockBalance decimal.Decimal) bool {
	if stockBalance.Abs().LessThan(nearZero) {
		return false
	}
	if ledgerBalance.Abs().LessThan(nearZero) {
		return true
	}
	return ledgerBalance.Sub(stockBalance).Abs().GreaterThan(divergence)
}
