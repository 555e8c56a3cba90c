package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/santara-erp/ledger/internal/journal"
	"github.com/santara-erp/ledger/internal/ledger"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Post, reverse, and inspect journal entries",
}

// journal post
var (
	jrnDate        string
	jrnReference   string
	jrnDescription string
	jrnType        string
	jrnLines       []string // format: "account_code:dr|cr:amount"
)

var journalPostCmd = &cobra.Command{
	Use:   "post",
	Short: "Post a balanced group of journal lines",
	Long:  `Post a transaction with double-entry lines.\nEach --line is formatted as "account_code:dr|cr:amount" (e.g. "1110:dr:150.00").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := context.Background()

		date := time.Now().UTC()
		if jrnDate != "" {
			if date, err = parseDate("date", jrnDate); err != nil {
				return err
			}
		}

		group := &ledger.PostingGroup{}
		for _, l := range jrnLines {
			parts := strings.SplitN(l, ":", 3)
			if len(parts) != 3 {
				return fmt.Errorf("invalid line format %q, expected account_code:dr|cr:amount", l)
			}
			amount, err := decimal.NewFromString(parts[2])
			if err != nil {
				return fmt.Errorf("invalid amount %q in line %q: %w", parts[2], l, err)
			}
			acct, err := st.GetAccountByCode(ctx, parts[0])
			if err != nil {
				return fmt.Errorf("line %q: %w", l, err)
			}
			p := ledger.Posting{
				AccountID:   acct.ID,
				Date:        date,
				Reference:   jrnReference,
				Description: jrnDescription,
				JournalType: jrnType,
				Source:      ledger.SourceRef{Kind: ledger.SourceManual},
			}
			switch parts[1] {
			case "dr":
				p.Debit = amount
			case "cr":
				p.Credit = amount
			default:
				return fmt.Errorf("invalid side %q in line %q, expected dr or cr", parts[1], l)
			}
			group.Postings = append(group.Postings, p)
		}

		if err := st.CreatePostingGroup(ctx, group); err != nil {
			return err
		}

		fmt.Printf("Posted: %s\n", group.TransactionID)
		for _, p := range group.Postings {
			side, amt := "DR", p.Debit
			if p.Credit.IsPositive() {
				side, amt = "CR", p.Credit
			}
			fmt.Printf("  %s %-12s %14s\n", side, p.AccountID, amt.StringFixed(2))
		}
		return nil
	},
}

// journal reverse
var journalReverseCmd = &cobra.Command{
	Use:   "reverse [transaction-id]",
	Short: "Post a reversing entry for a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		newID, err := journal.NewReverser(st).Reverse(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Reversal posted: %s\n", newID)
		return nil
	},
}

// journal transfer
var (
	trfID         string
	trfFrom       string
	trfTo         string
	trfAmount     string
	trfOtherCosts string
	trfDate       string
	trfReference  string
)

var journalTransferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Post a cash/bank transfer",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		amount, err := decimal.NewFromString(trfAmount)
		if err != nil {
			return fmt.Errorf("invalid --amount %q: %w", trfAmount, err)
		}
		otherCosts := decimal.Zero
		if trfOtherCosts != "" {
			if otherCosts, err = decimal.NewFromString(trfOtherCosts); err != nil {
				return fmt.Errorf("invalid --other-costs %q: %w", trfOtherCosts, err)
			}
		}
		date := time.Now().UTC()
		if trfDate != "" {
			if date, err = parseDate("date", trfDate); err != nil {
				return err
			}
		}

		recon := journal.NewReconciler(st, cfg.Reconciliation)
		svc := journal.NewTransferService(st, cfg.Reconciliation, recon)
		err = svc.Post(context.Background(), journal.Transfer{
			ID:              trfID,
			FromAccountCode: trfFrom,
			ToAccountCode:   trfTo,
			Amount:          amount,
			OtherCosts:      otherCosts,
			Date:            date,
			Reference:       trfReference,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Transfer posted: %s -> %s  %s\n", trfFrom, trfTo, amount.StringFixed(2))
		return nil
	},
}

// journal confirm
var jrnUnconfirm bool

var journalConfirmCmd = &cobra.Command{
	Use:   "confirm [posting-id]",
	Short: "Mark a posting as confirmed against the bank statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid posting id %q", args[0])
		}
		recon := journal.NewReconciler(st, cfg.Reconciliation)
		if err := recon.Confirm(context.Background(), id, !jrnUnconfirm); err != nil {
			return err
		}
		state := "confirmed"
		if jrnUnconfirm {
			state = "unconfirmed"
		}
		fmt.Printf("Posting %d %s\n", id, state)
		return nil
	},
}

func init() {
	journalPostCmd.Flags().StringVar(&jrnDate, "date", "", "Posting date (YYYY-MM-DD, default today)")
	journalPostCmd.Flags().StringVar(&jrnReference, "reference", "", "Document reference")
	journalPostCmd.Flags().StringVar(&jrnDescription, "description", "", "Line description")
	journalPostCmd.Flags().StringVar(&jrnType, "type", ledger.JournalManual, "Journal type tag")
	journalPostCmd.Flags().StringSliceVar(&jrnLines, "line", nil, "Line in format account_code:dr|cr:amount (can be repeated)")

	journalTransferCmd.Flags().StringVar(&trfID, "id", "", "Transfer document id")
	journalTransferCmd.Flags().StringVar(&trfFrom, "from", "", "Source account code")
	journalTransferCmd.Flags().StringVar(&trfTo, "to", "", "Destination account code")
	journalTransferCmd.Flags().StringVar(&trfAmount, "amount", "", "Transfer amount")
	journalTransferCmd.Flags().StringVar(&trfOtherCosts, "other-costs", "", "Fee charged to the source side")
	journalTransferCmd.Flags().StringVar(&trfDate, "date", "", "Transfer date (YYYY-MM-DD, default today)")
	journalTransferCmd.Flags().StringVar(&trfReference, "reference", "", "Document reference")
	journalTransferCmd.MarkFlagRequired("id")
	journalTransferCmd.MarkFlagRequired("from")
	journalTransferCmd.MarkFlagRequired("to")
	journalTransferCmd.MarkFlagRequired("amount")

	journalConfirmCmd.Flags().BoolVar(&jrnUnconfirm, "undo", false, "Remove the confirmation instead")

	journalCmd.AddCommand(journalPostCmd)
	journalCmd.AddCommand(journalReverseCmd)
	journalCmd.AddCommand(journalTransferCmd)
	journalCmd.AddCommand(journalConfirmCmd)

	rootCmd.AddCommand(journalCmd)
}
