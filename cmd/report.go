package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/santara-erp/ledger/internal/ledger"
	"github.com/santara-erp/ledger/internal/report"
	"github.com/santara-erp/ledger/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Derive financial statements from the ledger",
}

var (
	repFrom string
	repTo   string
	repAsOf string
)

func reportPeriod() (time.Time, time.Time, error) {
	start, err := parseDate("from", repFrom)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate("to", repTo)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func reportAsOf() (time.Time, error) {
	if repAsOf == "" {
		return time.Now().UTC(), nil
	}
	return parseDate("as-of", repAsOf)
}

func withEngine(fn func(ctx context.Context, st *store.Store, eng *report.Engine) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := context.Background()
	eng, err := report.NewEngineFromStore(ctx, st)
	if err != nil {
		return err
	}
	return fn(ctx, st, eng)
}

// report trial
var reportTrialCmd = &cobra.Command{
	Use:   "trial",
	Short: "Show the trial balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := reportAsOf()
		if err != nil {
			return err
		}
		return withEngine(func(ctx context.Context, st *store.Store, eng *report.Engine) error {
			tb, err := eng.GenerateTrialBalance(ctx, asOf, reportFilter())
			if err != nil {
				return err
			}
			printTrialBalance(tb)
			return nil
		})
	},
}

// report income
var reportIncomeCmd = &cobra.Command{
	Use:   "income",
	Short: "Show the income statement",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := reportPeriod()
		if err != nil {
			return err
		}
		return withEngine(func(ctx context.Context, st *store.Store, eng *report.Engine) error {
			stmt, err := report.NewIncomeService(eng).Generate(ctx, start, end, reportFilter())
			if err != nil {
				return err
			}
			printIncomeStatement(stmt)
			return nil
		})
	},
}

// report hpp
var reportHPPCmd = &cobra.Command{
	Use:   "hpp",
	Short: "Show the cost-of-goods-manufactured waterfall",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := reportPeriod()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return withEngine(func(ctx context.Context, st *store.Store, eng *report.Engine) error {
			rep, err := report.NewHPPCalculator(eng, st, cfg.HPP).Generate(ctx, start, end, reportFilter())
			if err != nil {
				return err
			}
			printHPP(rep)
			return nil
		})
	},
}

// report cashflow
var repMethod string

var reportCashFlowCmd = &cobra.Command{
	Use:   "cashflow",
	Short: "Show the cash-flow statement",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := reportPeriod()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return withEngine(func(ctx context.Context, st *store.Store, eng *report.Engine) error {
			income := report.NewIncomeService(eng)
			gen := report.NewCashFlowGenerator(eng, st, cfg.CashFlow, income)
			stmt, err := gen.Generate(ctx, start, end, report.Method(repMethod), reportFilter())
			if err != nil {
				return err
			}
			printCashFlow(stmt)
			return nil
		})
	},
}

// report aging
var repAgingKind string

var reportAgingCmd = &cobra.Command{
	Use:   "aging",
	Short: "Show the receivable/payable aging schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := reportAsOf()
		if err != nil {
			return err
		}
		return withEngine(func(ctx context.Context, st *store.Store, eng *report.Engine) error {
			rep, err := report.NewClassifier(st).Report(ctx, repAgingKind, asOf, reportFilter())
			if err != nil {
				return err
			}
			printAging(rep)
			return nil
		})
	},
}

func printTrialBalance(tb *report.TrialBalance) {
	w := 74
	fmt.Println()
	fmt.Println(center("TRIAL BALANCE", w))
	fmt.Println(center("as of "+tb.AsOf.Format(store.DateLayout), w))
	fmt.Println()

	fmt.Printf("  %-10s %-32s %13s %13s\n", "CODE", "NAME", "DEBIT", "CREDIT")
	fmt.Printf("  %-10s %-32s %13s %13s\n", "----", "----", "-----", "------")
	for _, l := range tb.Lines {
		name := l.Name
		if len(name) > 30 {
			name = name[:28] + ".."
		}
		debit, credit := "", ""
		if l.Debit.IsPositive() {
			debit = l.Debit.StringFixed(2)
		}
		if l.Credit.IsPositive() {
			credit = l.Credit.StringFixed(2)
		}
		fmt.Printf("  %-10s %-32s %13s %13s\n", l.Code, name, debit, credit)
	}

	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	fmt.Printf("  %-43s %13s %13s\n", "TOTALS", tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2))
	if tb.Balanced {
		fmt.Println("\n  [BALANCED]")
	} else {
		fmt.Println("\n  [UNBALANCED!]")
	}
}

func printIncomeStatement(stmt *report.IncomeStatement) {
	w := 60
	fmt.Println()
	fmt.Println(center("INCOME STATEMENT", w))
	fmt.Println(center(periodLabel(stmt.Period), w))
	fmt.Println()

	printIncomeSection("REVENUE", "Total Revenue", stmt.Revenue, stmt.TotalRevenue, w)
	fmt.Println()
	printIncomeSection("EXPENSES", "Total Expenses", stmt.Expenses, stmt.TotalExpenses, w)
	fmt.Println()
	fmt.Printf("  %s\n", strings.Repeat("═", w-4))
	fmt.Printf("  %-*s%15s\n", w-19, "NET INCOME", formatSigned(stmt.NetIncome))
}

func printIncomeSection(title, totalLabel string, lines []report.IncomeLine, total decimal.Decimal, w int) {
	fmt.Printf("  %s\n", title)
	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	for _, l := range lines {
		name := l.Name
		if len(name) > 28 {
			name = name[:26] + ".."
		}
		fmt.Printf("  %-10s %-*s%15s\n", l.Code, w-31, name, formatSigned(l.Amount))
	}
	fmt.Printf("  %-*s%15s\n", w-19, totalLabel, formatSigned(total))
}

func printHPP(rep *report.HPPReport) {
	w := 64
	fmt.Println()
	fmt.Println(center("COST OF GOODS MANUFACTURED", w))
	fmt.Println(center(periodLabel(rep.Period), w))
	fmt.Println()

	line := func(label string, amt decimal.Decimal) {
		fmt.Printf("  %-*s%15s\n", w-19, label, formatSigned(amt))
	}
	line("Opening raw materials", rep.RawMaterials.Opening)
	line("Raw material purchases", rep.RawMaterials.Purchases)
	line("Raw materials available", rep.RawMaterials.Available)
	line("Closing raw materials", rep.RawMaterials.Closing)
	line("Raw materials used", rep.RawMaterials.Used)
	fmt.Println()
	line("Direct labor", rep.DirectLabor)
	for _, item := range rep.Overhead.Items {
		line(item.Label, item.Amount)
	}
	line("Total overhead", rep.Overhead.Total)
	fmt.Println()
	line("Total production cost", rep.ProductionCost)
	line("Opening WIP", rep.WIP.Opening)
	line("Closing WIP", rep.WIP.Closing)
	fmt.Printf("  %s\n", strings.Repeat("═", w-4))
	line("COST OF GOODS MANUFACTURED", rep.COGM)
}

func printCashFlow(stmt *report.CashFlowStatement) {
	w := 64
	fmt.Println()
	fmt.Println(center("CASH FLOW STATEMENT ("+strings.ToUpper(string(stmt.Method))+")", w))
	fmt.Println(center(periodLabel(stmt.Period), w))
	fmt.Println()

	for _, sec := range stmt.Sections {
		fmt.Printf("  %s\n", strings.ToUpper(sec.Label))
		fmt.Printf("  %s\n", strings.Repeat("─", w-4))
		for _, l := range sec.Lines {
			label := l.Label
			if len(label) > 38 {
				label = label[:36] + ".."
			}
			fmt.Printf("    %-*s%15s\n", w-21, label, formatSigned(l.Amount))
		}
		fmt.Printf("  %-*s%15s\n", w-19, "Total", formatSigned(sec.Total))
		fmt.Println()
	}

	fmt.Printf("  %s\n", strings.Repeat("═", w-4))
	fmt.Printf("  %-*s%15s\n", w-19, "Net change in cash", formatSigned(stmt.NetChange))
	fmt.Printf("  %-*s%15s\n", w-19, "Opening balance", formatSigned(stmt.OpeningBalance))
	fmt.Printf("  %-*s%15s\n", w-19, "Closing balance", formatSigned(stmt.ClosingBalance))
}

func printAging(rep *report.AgingReport) {
	w := 86
	fmt.Println()
	fmt.Println(center("AGING SCHEDULE", w))
	fmt.Println(center("as of "+rep.AsOf.Format(store.DateLayout), w))
	fmt.Println()

	fmt.Printf("  %-14s %-12s %-20s %-12s %5s %8s %13s\n",
		"NUMBER", "KIND", "PARTY", "DATE", "DAYS", "BUCKET", "REMAINING")
	for _, l := range rep.Lines {
		party := l.Party
		if len(party) > 18 {
			party = party[:16] + ".."
		}
		fmt.Printf("  %-14s %-12s %-20s %-12s %5d %8s %13s\n",
			l.Number, l.Kind, party, l.InvoiceDate.Format(store.DateLayout),
			l.DaysOutstanding, l.Bucket, l.Remaining.StringFixed(2))
	}

	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	for _, b := range ledger.AllAgingBuckets {
		fmt.Printf("  %-20s %13s\n", b, rep.BucketTotals[b].StringFixed(2))
	}
	fmt.Printf("  %-20s %13s\n", "TOTAL", rep.Total.StringFixed(2))
}

func periodLabel(p report.Period) string {
	return p.Start.Format(store.DateLayout) + " to " + p.End.Format(store.DateLayout)
}

func center(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func formatSigned(d decimal.Decimal) string {
	if d.IsNegative() {
		return "(" + d.Neg().StringFixed(2) + ")"
	}
	return d.StringFixed(2)
}

func init() {
	for _, c := range []*cobra.Command{reportIncomeCmd, reportHPPCmd, reportCashFlowCmd} {
		c.Flags().StringVar(&repFrom, "from", "", "Period start (YYYY-MM-DD)")
		c.Flags().StringVar(&repTo, "to", "", "Period end (YYYY-MM-DD)")
		c.MarkFlagRequired("from")
		c.MarkFlagRequired("to")
	}
	reportTrialCmd.Flags().StringVar(&repAsOf, "as-of", "", "Report date (YYYY-MM-DD, default today)")
	reportAgingCmd.Flags().StringVar(&repAsOf, "as-of", "", "Report date (YYYY-MM-DD, default today)")
	reportAgingCmd.Flags().StringVar(&repAgingKind, "kind", "", "receivable, payable, or both when unset")
	reportCashFlowCmd.Flags().StringVar(&repMethod, "method", string(report.MethodDirect), "direct or indirect")

	reportCmd.AddCommand(reportTrialCmd)
	reportCmd.AddCommand(reportIncomeCmd)
	reportCmd.AddCommand(reportHPPCmd)
	reportCmd.AddCommand(reportCashFlowCmd)
	reportCmd.AddCommand(reportAgingCmd)

	rootCmd.AddCommand(reportCmd)
}
