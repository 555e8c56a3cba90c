package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reconCmd = &cobra.Command{
	Use:   "recon",
	Short: "Inspect bank reconciliation records",
}

var reconListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reconciliation records",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		recons, err := st.ListReconciliations(context.Background())
		if err != nil {
			return err
		}
		if len(recons) == 0 {
			fmt.Println("No reconciliation records.")
			return nil
		}

		fmt.Printf("%-6s %-38s %-12s %-12s %13s %13s %s\n",
			"ID", "ACCOUNT", "FROM", "TO", "BOOK", "STATEMENT", "STATUS")
		for _, r := range recons {
			statement := ""
			if r.StatementBalance != nil {
				statement = r.StatementBalance.StringFixed(2)
			}
			fmt.Printf("%-6d %-38s %-12s %-12s %13s %13s %s\n",
				r.ID, r.AccountID,
				r.PeriodStart.Format("2006-01-02"), r.PeriodEnd.Format("2006-01-02"),
				r.BookBalance.StringFixed(2), statement, r.Status)
		}
		return nil
	},
}

func init() {
	reconCmd.AddCommand(reconListCmd)
	rootCmd.AddCommand(reconCmd)
}
