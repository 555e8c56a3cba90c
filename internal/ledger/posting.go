package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind identifies the document type a posting originated from.
// The set is closed: a posting's source is always (kind, id), resolved
// through whichever table owns that kind, never through dynamic type
// lookup.
type SourceKind string

const (
	SourceNone             SourceKind = ""
	SourceInvoice          SourceKind = "invoice"
	SourcePurchaseOrder    SourceKind = "purchase_order"
	SourceSaleOrder        SourceKind = "sale_order"
	SourceVendorPayment    SourceKind = "vendor_payment"
	SourceCustomerReceipt  SourceKind = "customer_receipt"
	SourceCashBankTxn      SourceKind = "cash_bank_transaction"
	SourceCashBankTransfer SourceKind = "cash_bank_transfer"
	SourceManual           SourceKind = "manual"
	SourceReversal         SourceKind = "reversal"
)

// SourceRef links a posting to its originating document.
type SourceRef struct {
	Kind SourceKind `json:"kind"`
	ID   string     `json:"id"`
}

// Journal type tags. The column is a free-form category; these are the
// values this engine reads or writes itself.
const (
	JournalSales    = "sales"
	JournalPurchase = "purchase"
	JournalTransfer = "transfer"
	JournalCashBank = "cashbank"
	JournalManual   = "manual"
	JournalReversal = "REV"
)

// Posting is one journal entry line: a debit-or-credit amount against
// one account, part of a balanced transaction group. Postings are
// never mutated; corrections go through reversal.
type Posting struct {
	ID            int64           `json:"id,omitempty"`
	AccountID     string          `json:"account_id"`
	Date          time.Time       `json:"date"`
	Reference     string          `json:"reference"`
	Description   string          `json:"description,omitempty"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	JournalType   string          `json:"journal_type"`
	Source        SourceRef       `json:"source"`
	TransactionID string          `json:"transaction_id,omitempty"`
	IsReversal    bool            `json:"is_reversal,omitempty"`
	ReversalOf    string          `json:"reversal_of_transaction_id,omitempty"`
	BranchID      string          `json:"branch_id,omitempty"`
	DivisionID    string          `json:"division_id,omitempty"`
	ProjectID     string          `json:"project_id,omitempty"`
	ReconID       int64           `json:"recon_id,omitempty"`
	ClearedAt     *time.Time      `json:"cleared_at,omitempty"`
	Confirmed     bool            `json:"confirmed,omitempty"`
	CreatedAt     time.Time       `json:"created_at,omitempty"`
}

// PostingGroup is all lines of one balanced economic event, written
// and deleted as a unit.
type PostingGroup struct {
	TransactionID string    `json:"transaction_id"`
	Postings      []Posting `json:"postings"`
}

// balanceTolerance absorbs 2-decimal rounding when checking that a
// group's debits equal its credits.
var balanceTolerance = decimal.NewFromFloat(0.005)

// Validate checks group invariants: at least one line, non-negative
// amounts, and sum of debits equal to sum of credits within rounding
// tolerance.
func (g *PostingGroup) Validate() error {
	if len(g.Postings) == 0 {
		return ErrEmptyPostingGroup
	}
	var debit, credit decimal.Decimal
	for i := range g.Postings {
		p := &g.Postings[i]
		if p.Debit.IsNegative() || p.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d", ErrNegativeAmount, i)
		}
		debit = debit.Add(p.Debit)
		credit = credit.Add(p.Credit)
	}
	if debit.Sub(credit).Abs().GreaterThan(balanceTolerance) {
		return fmt.Errorf("%w: debit %s vs credit %s", ErrUnbalancedGroup, debit, credit)
	}
	return nil
}
