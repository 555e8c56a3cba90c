package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/santara-erp/ledger/internal/store"
)

// The feed commands write the inbound records that surrounding
// workflows would normally push: stock movements, cash/bank
// transactions, asset acquisitions, sales receipts, and open invoices.

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Import inbound feed records",
}

var (
	feedDate   string
	feedAmount string
)

func feedDecimal(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	return d, nil
}

// feed product
var (
	productID  string
	productRaw bool
)

var feedProductCmd = &cobra.Command{
	Use:   "product [name]",
	Short: "Register a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		p := &store.Product{ID: productID, Name: args[0], IsRawMaterial: productRaw}
		if err := st.AddProduct(context.Background(), p); err != nil {
			return err
		}
		fmt.Printf("Product registered: %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

// feed stock
var (
	stockProduct string
	stockType    string
	stockQty     string
	stockBranch  string
)

var feedStockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Record a stock movement",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		value, err := feedDecimal("value", feedAmount)
		if err != nil {
			return err
		}
		qty := decimal.Zero
		if stockQty != "" {
			if qty, err = feedDecimal("qty", stockQty); err != nil {
				return err
			}
		}
		date, err := parseDate("date", feedDate)
		if err != nil {
			return err
		}
		m := &store.StockMovement{
			ProductID: stockProduct,
			BranchID:  stockBranch,
			Date:      date,
			Type:      stockType,
			Quantity:  qty,
			Value:     value,
		}
		if err := st.AddStockMovement(context.Background(), m); err != nil {
			return err
		}
		fmt.Printf("Stock movement recorded: %s %s %s\n", m.Type, m.ProductID, m.Value.StringFixed(2))
		return nil
	},
}

// feed cashbank
var (
	cbNumber  string
	cbType    string
	cbAccount string
	cbOffset  string
)

var feedCashBankCmd = &cobra.Command{
	Use:   "cashbank",
	Short: "Record a cash/bank transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		amount, err := feedDecimal("amount", feedAmount)
		if err != nil {
			return err
		}
		date, err := parseDate("date", feedDate)
		if err != nil {
			return err
		}
		t := &store.CashBankTransaction{
			Number:      cbNumber,
			Date:        date,
			Type:        cbType,
			Amount:      amount,
			AccountCode: cbAccount,
			OffsetCode:  cbOffset,
		}
		if err := st.AddCashBankTransaction(context.Background(), t); err != nil {
			return err
		}
		fmt.Printf("Cash/bank transaction recorded: %s %s %s\n", t.Type, t.AccountCode, t.Amount.StringFixed(2))
		return nil
	},
}

// feed asset
var assetAccount string

var feedAssetCmd = &cobra.Command{
	Use:   "asset [name]",
	Short: "Record an asset acquisition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		cost, err := feedDecimal("amount", feedAmount)
		if err != nil {
			return err
		}
		date, err := parseDate("date", feedDate)
		if err != nil {
			return err
		}
		a := &store.Asset{Name: args[0], PurchaseDate: date, PurchaseCost: cost, AccountCode: assetAccount}
		if err := st.AddAsset(context.Background(), a); err != nil {
			return err
		}
		fmt.Printf("Asset recorded: %s %s\n", a.Name, a.PurchaseCost.StringFixed(2))
		return nil
	},
}

// feed receipt
var (
	receiptCustomer string
	receiptMethod   string
	receiptStatus   string
)

var feedReceiptCmd = &cobra.Command{
	Use:   "receipt [number]",
	Short: "Record a sales receipt line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		amount, err := feedDecimal("amount", feedAmount)
		if err != nil {
			return err
		}
		date, err := parseDate("date", feedDate)
		if err != nil {
			return err
		}
		l := &store.SalesReceiptLine{
			ReceiptNumber: args[0],
			Customer:      receiptCustomer,
			PaymentDate:   date,
			Method:        receiptMethod,
			Status:        receiptStatus,
			Amount:        amount,
		}
		if err := st.AddSalesReceiptLine(context.Background(), l); err != nil {
			return err
		}
		fmt.Printf("Receipt recorded: %s %s\n", l.ReceiptNumber, l.Amount.StringFixed(2))
		return nil
	},
}

// feed invoice
var (
	invoiceKind  string
	invoiceParty string
)

var feedInvoiceCmd = &cobra.Command{
	Use:   "invoice [number]",
	Short: "Record an outstanding invoice for aging",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		amount, err := feedDecimal("amount", feedAmount)
		if err != nil {
			return err
		}
		date, err := parseDate("date", feedDate)
		if err != nil {
			return err
		}
		inv := &store.OpenInvoice{
			Number:      args[0],
			Kind:        invoiceKind,
			Party:       invoiceParty,
			InvoiceDate: date,
			Total:       amount,
			Remaining:   amount,
		}
		if err := st.AddOpenInvoice(context.Background(), inv); err != nil {
			return err
		}
		fmt.Printf("Invoice recorded: %s %s %s\n", inv.Number, inv.Kind, inv.Remaining.StringFixed(2))
		return nil
	},
}

func init() {
	feedCmd.PersistentFlags().StringVar(&feedDate, "date", "", "Record date (YYYY-MM-DD)")
	feedCmd.PersistentFlags().StringVar(&feedAmount, "amount", "0", "Monetary amount or value")

	feedProductCmd.Flags().StringVar(&productID, "id", "", "Product id")
	feedProductCmd.Flags().BoolVar(&productRaw, "raw-material", false, "Product counts toward raw material stock")
	feedProductCmd.MarkFlagRequired("id")

	feedStockCmd.Flags().StringVar(&stockProduct, "product", "", "Product id")
	feedStockCmd.Flags().StringVar(&stockType, "type", "", "Movement type (purchase_in, manufacture_in, adjustment_in, manufacture_out, adjustment_out, sales)")
	feedStockCmd.Flags().StringVar(&stockQty, "qty", "", "Quantity moved")
	feedStockCmd.Flags().StringVar(&stockBranch, "branch-id", "", "Branch id")
	feedStockCmd.MarkFlagRequired("product")
	feedStockCmd.MarkFlagRequired("type")

	feedCashBankCmd.Flags().StringVar(&cbNumber, "number", "", "Document number")
	feedCashBankCmd.Flags().StringVar(&cbType, "type", "", "Transaction type (cash_in, bank_in, cash_out, bank_out)")
	feedCashBankCmd.Flags().StringVar(&cbAccount, "account", "", "Cash/bank account code")
	feedCashBankCmd.Flags().StringVar(&cbOffset, "offset", "", "Offsetting account code")
	feedCashBankCmd.MarkFlagRequired("type")
	feedCashBankCmd.MarkFlagRequired("account")

	feedAssetCmd.Flags().StringVar(&assetAccount, "account", "", "Asset account code")
	feedAssetCmd.MarkFlagRequired("account")

	feedReceiptCmd.Flags().StringVar(&receiptCustomer, "customer", "", "Customer name")
	feedReceiptCmd.Flags().StringVar(&receiptMethod, "method", "Cash", "Payment method")
	feedReceiptCmd.Flags().StringVar(&receiptStatus, "status", "Paid", "Receipt status")

	feedInvoiceCmd.Flags().StringVar(&invoiceKind, "kind", "receivable", "receivable or payable")
	feedInvoiceCmd.Flags().StringVar(&invoiceParty, "party", "", "Counterparty name")

	feedCmd.AddCommand(feedProductCmd)
	feedCmd.AddCommand(feedStockCmd)
	feedCmd.AddCommand(feedCashBankCmd)
	feedCmd.AddCommand(feedAssetCmd)
	feedCmd.AddCommand(feedReceiptCmd)
	feedCmd.AddCommand(feedInvoiceCmd)

	rootCmd.AddCommand(feedCmd)
}
