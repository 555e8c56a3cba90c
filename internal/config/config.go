// Package config holds the report mapping configuration: which account
// code prefixes feed each cash-flow item, each COGM waterfall stage,
// and the reconciliation tracker. It is data, edited outside the
// engine and read at report-generation time.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FlowType classifies a cash-flow item's direction.
type FlowType string

const (
	FlowInflow  FlowType = "inflow"
	FlowOutflow FlowType = "outflow"
	FlowNet     FlowType = "net"
)

// Config is the top-level report mapping file.
type Config struct {
	CashFlow       CashFlowConfig       `yaml:"cash_flow"`
	HPP            HPPConfig            `yaml:"hpp"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
}

// CashFlowConfig drives the direct and indirect statement builders.
type CashFlowConfig struct {
	Sections     []Section      `yaml:"sections"`
	CashAccounts []CashAccount  `yaml:"cash_accounts"`
	Indirect     IndirectConfig `yaml:"indirect"`
}

// Section is an ordered group of statement lines.
type Section struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
	Items []Item `yaml:"items"`
}

// Item is one statement line. Resolver selects a named domain resolver
// ("sales_receipts") or, when empty, generic account-prefix
// aggregation over the cash/bank and transfer-journal feeds.
type Item struct {
	Key           string        `yaml:"key"`
	Label         string        `yaml:"label"`
	Resolver      string        `yaml:"resolver,omitempty"`
	Type          FlowType      `yaml:"type"`
	IncludeAssets bool          `yaml:"include_assets,omitempty"`
	Prefixes      []PrefixEntry `yaml:"prefixes,omitempty"`
	Sources       []string      `yaml:"sources,omitempty"`
}

// PrefixEntry marks one contributing account-code prefix. Asset
// prefixes only participate in the asset-purchase adjustment.
type PrefixEntry struct {
	Prefix  string `yaml:"prefix"`
	IsAsset bool   `yaml:"is_asset,omitempty"`
}

// CashAccount names a cash/bank account prefix tracked for opening and
// closing balances, with an optional configured opening override.
type CashAccount struct {
	Name           string  `yaml:"name"`
	Prefix         string  `yaml:"prefix"`
	OpeningBalance float64 `yaml:"opening_balance,omitempty"`
}

// IndirectConfig maps account prefixes for the indirect method's
// add-backs and working-capital deltas.
type IndirectConfig struct {
	DepreciationPrefixes []string `yaml:"depreciation_prefixes"`
	ReceivablePrefix     string   `yaml:"receivable_prefix"`
	InventoryPrefix      string   `yaml:"inventory_prefix"`
	PayablePrefix        string   `yaml:"payable_prefix"`
}

// HPPConfig maps account prefixes to COGM waterfall stages, plus the
// ordered overhead line items.
type HPPConfig struct {
	RawMaterialInventory []string       `yaml:"raw_material_inventory"`
	RawMaterialPurchase  []string       `yaml:"raw_material_purchase"`
	DirectLabor          []string       `yaml:"direct_labor"`
	WIPInventory         []string       `yaml:"wip_inventory"`
	Overheads            []OverheadItem `yaml:"overheads"`
}

// OverheadItem is one overhead statement line with its own prefix set.
type OverheadItem struct {
	Key      string   `yaml:"key"`
	Label    string   `yaml:"label"`
	Prefixes []string `yaml:"prefixes"`
}

// ReconciliationConfig marks which accounts the bank reconciliation
// tracker watches, and where transfer fees post.
type ReconciliationConfig struct {
	BankPrefixes   []string `yaml:"bank_prefixes"`
	FeeAccountCode string   `yaml:"fee_account_code,omitempty"`
}

// Load reads a mapping config file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a mapping for a conventional chart: 111x cash/bank,
// 1120 receivables, 1140 inventories (1140.01 raw material, 1140.02
// WIP), 2110 payables, 5xxx production cost, 631x depreciation.
func Default() *Config {
	return &Config{
		CashFlow: CashFlowConfig{
			Sections: []Section{
				{
					Key:   "operating",
					Label: "Operating Activities",
					Items: []Item{
						{
							Key:      "sales_receipts",
							Label:    "Receipts from customers",
							Resolver: "sales_receipts",
							Type:     FlowInflow,
							Sources:  []string{"Customer receipts"},
						},
						{
							Key:      "supplier_payments",
							Label:    "Payments to suppliers",
							Type:     FlowOutflow,
							Prefixes: []PrefixEntry{{Prefix: "2110"}, {Prefix: "5100"}},
							Sources:  []string{"Cash/bank disbursements"},
						},
						{
							Key:      "operating_expenses",
							Label:    "Operating expenses paid",
							Type:     FlowOutflow,
							Prefixes: []PrefixEntry{{Prefix: "6"}},
							Sources:  []string{"Cash/bank disbursements"},
						},
					},
				},
				{
					Key:   "investing",
					Label: "Investing Activities",
					Items: []Item{
						{
							Key:           "asset_purchases",
							Label:         "Purchases of fixed assets",
							Type:          FlowNet,
							IncludeAssets: true,
							Prefixes:      []PrefixEntry{{Prefix: "1210", IsAsset: true}},
							Sources:       []string{"Fixed asset register"},
						},
					},
				},
				{
					Key:   "financing",
					Label: "Financing Activities",
					Items: []Item{
						{
							Key:      "loan_movements",
							Label:    "Loan drawdowns and repayments",
							Type:     FlowNet,
							Prefixes: []PrefixEntry{{Prefix: "2200"}},
							Sources:  []string{"Cash/bank movements"},
						},
					},
				},
			},
			CashAccounts: []CashAccount{
				{Name: "Cash on hand", Prefix: "1110"},
				{Name: "Bank accounts", Prefix: "1111"},
			},
			Indirect: IndirectConfig{
				DepreciationPrefixes: []string{"6311", "6312", "6313", "6314"},
				ReceivablePrefix:     "1120",
				InventoryPrefix:      "1140",
				PayablePrefix:        "2110",
			},
		},
		HPP: HPPConfig{
			RawMaterialInventory: []string{"1140.01"},
			RawMaterialPurchase:  []string{"5110"},
			DirectLabor:          []string{"5120"},
			WIPInventory:         []string{"1140.02"},
			Overheads: []OverheadItem{
				{Key: "factory_utilities", Label: "Factory utilities", Prefixes: []string{"5131"}},
				{Key: "factory_depreciation", Label: "Factory depreciation", Prefixes: []string{"5132"}},
				{Key: "indirect_labor", Label: "Indirect labor", Prefixes: []string{"5133"}},
			},
		},
		Reconciliation: ReconciliationConfig{
			BankPrefixes:   []string{"1111"},
			FeeAccountCode: "6390",
		},
	}
}
