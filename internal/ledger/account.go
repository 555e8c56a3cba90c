package ledger

import (
	"fmt"
	"strings"
	"time"
)

type AccountType string

const (
	TypeAsset     AccountType = "Asset"
	TypeLiability AccountType = "Liability"
	TypeEquity    AccountType = "Equity"
	TypeRevenue   AccountType = "Revenue"
	TypeExpense   AccountType = "Expense"
)

var AllAccountTypes = []AccountType{
	TypeAsset,
	TypeLiability,
	TypeEquity,
	TypeRevenue,
	TypeExpense,
}

// NormalBalance is the side on which an account's balance is
// conventionally positive.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "debit"
	NormalCredit NormalBalance = "credit"
)

// Account is a node in the chart of accounts. Codes are hierarchical
// and prefix-addressable: "1140" covers "1140.01", "1140.02", and so
// on. NormalBalance is authoritative; DefaultNormalBalance only
// supplies the convention when an account is created without one.
type Account struct {
	ID            string        `json:"id"`
	Code          string        `json:"code"`
	Name          string        `json:"name"`
	Type          AccountType   `json:"type"`
	NormalBalance NormalBalance `json:"normal_balance"`
	ParentCode    string        `json:"parent_code,omitempty"`
	IsActive      bool          `json:"is_active"`
	CreatedAt     time.Time     `json:"created_at,omitempty"`
}

// DefaultNormalBalance returns the conventional side for an account
// type: Asset and Expense are debit-normal, the rest credit-normal.
func DefaultNormalBalance(t AccountType) NormalBalance {
	switch t {
	case TypeAsset, TypeExpense:
		return NormalDebit
	default:
		return NormalCredit
	}
}

// ValidAccountType checks if an account type string is valid.
func ValidAccountType(t AccountType) bool {
	for _, at := range AllAccountTypes {
		if at == t {
			return true
		}
	}
	return false
}

// Validate checks all account invariants.
func (a *Account) Validate() error {
	if a.Code == "" {
		return ErrInvalidAccountCode
	}
	if strings.ContainsAny(a.Code, " \t") {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidAccountCode, a.Code)
	}
	if a.Name == "" {
		return fmt.Errorf("account name is required")
	}
	if !ValidAccountType(a.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidAccountType, a.Type)
	}
	switch a.NormalBalance {
	case NormalDebit, NormalCredit:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidNormalBalance, a.NormalBalance)
	}
	if a.ParentCode != "" && !strings.HasPrefix(a.Code, a.ParentCode) {
		return fmt.Errorf("%w: parent %q is not a prefix of %q", ErrInvalidAccountCode, a.ParentCode, a.Code)
	}
	return nil
}
