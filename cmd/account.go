package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/santara-erp/ledger/internal/ledger"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the chart of accounts",
}

// account create
var (
	acctCreateCode   string
	acctCreateName   string
	acctCreateType   string
	acctCreateNormal string
	acctCreateParent string
)

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		acct := &ledger.Account{
			Code:          acctCreateCode,
			Name:          acctCreateName,
			Type:          ledger.AccountType(acctCreateType),
			NormalBalance: ledger.NormalBalance(acctCreateNormal),
			ParentCode:    acctCreateParent,
		}
		if err := st.CreateAccount(context.Background(), acct); err != nil {
			return err
		}

		fmt.Printf("Account created: %s %s (%s, %s-normal)\n",
			acct.Code, acct.Name, acct.Type, acct.NormalBalance)
		return nil
	},
}

// account list
var acctListAll bool

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		accounts, err := st.ListAccounts(context.Background(), !acctListAll)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Println("No accounts found.")
			return nil
		}

		fmt.Printf("%-10s %-36s %-10s %-7s %s\n", "CODE", "NAME", "TYPE", "NORMAL", "ACTIVE")
		fmt.Printf("%-10s %-36s %-10s %-7s %s\n", "----", "----", "----", "------", "------")
		for _, a := range accounts {
			name := a.Name
			if len(name) > 34 {
				name = name[:32] + ".."
			}
			fmt.Printf("%-10s %-36s %-10s %-7s %v\n", a.Code, name, a.Type, a.NormalBalance, a.IsActive)
		}
		return nil
	},
}

// account get
var accountGetCmd = &cobra.Command{
	Use:   "get [code]",
	Short: "Get account details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		acct, err := st.GetAccountByCode(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Code:    %s\n", acct.Code)
		fmt.Printf("Name:    %s\n", acct.Name)
		fmt.Printf("Type:    %s\n", acct.Type)
		fmt.Printf("Normal:  %s\n", acct.NormalBalance)
		if acct.ParentCode != "" {
			fmt.Printf("Parent:  %s\n", acct.ParentCode)
		}
		fmt.Printf("Active:  %v\n", acct.IsActive)
		fmt.Printf("Created: %s\n", acct.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

// account retire
var accountRetireCmd = &cobra.Command{
	Use:   "retire [code]",
	Short: "Retire an account (postings are kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.RetireAccount(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Account retired: %s\n", args[0])
		return nil
	},
}

func init() {
	accountCreateCmd.Flags().StringVar(&acctCreateCode, "code", "", "Account code (e.g. 1110, 1140.01)")
	accountCreateCmd.Flags().StringVar(&acctCreateName, "name", "", "Account name")
	accountCreateCmd.Flags().StringVar(&acctCreateType, "type", "", "Account type: Asset, Liability, Equity, Revenue, Expense")
	accountCreateCmd.Flags().StringVar(&acctCreateNormal, "normal", "", "Normal balance: debit or credit (defaults by type)")
	accountCreateCmd.Flags().StringVar(&acctCreateParent, "parent", "", "Parent account code")
	accountCreateCmd.MarkFlagRequired("code")
	accountCreateCmd.MarkFlagRequired("name")
	accountCreateCmd.MarkFlagRequired("type")

	accountListCmd.Flags().BoolVar(&acctListAll, "all", false, "Include retired accounts")

	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountGetCmd)
	accountCmd.AddCommand(accountRetireCmd)

	rootCmd.AddCommand(accountCmd)
}
