package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/santara-erp/ledger/internal/config"
	"github.com/santara-erp/ledger/internal/ledger"
	"github.com/santara-erp/ledger/internal/store"
)

var (
	flagDB       string
	flagConfig   string
	flagBranch   []string
	flagDivision string
	flagProject  string
)

var rootCmd = &cobra.Command{
	Use:   "santara-ledger",
	Short: "General ledger aggregation and financial statement engine",
	Long:  "A double-entry general ledger backed by SQLite, deriving balances, aging schedules, COGM waterfalls, and cash-flow statements from journal postings.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "ledger.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Report mapping config file (YAML); built-in defaults when unset")
	rootCmd.PersistentFlags().StringSliceVar(&flagBranch, "branch", nil, "Restrict to branch id(s)")
	rootCmd.PersistentFlags().StringVar(&flagDivision, "division", "", "Restrict to a division id")
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "Restrict to a project id")
}

func Execute() error {
	return rootCmd.Execute()
}

func openStore() (*store.Store, error) {
	return store.Open(flagDB)
}

func loadConfig() (*config.Config, error) {
	if flagConfig == "" {
		return config.Default(), nil
	}
	return config.Load(flagConfig)
}

func reportFilter() ledger.Filter {
	return ledger.Filter{
		Branches:   flagBranch,
		DivisionID: flagDivision,
		ProjectID:  flagProject,
	}
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.Parse(store.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q, expected YYYY-MM-DD", flag, value)
	}
	return t, nil
}
