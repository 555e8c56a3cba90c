package ledger

import "errors"

var (
	ErrInvalidAccountCode   = errors.New("invalid account code")
	ErrInvalidAccountType   = errors.New("invalid account type")
	ErrInvalidNormalBalance = errors.New("invalid normal balance")
	ErrDuplicateAccount     = errors.New("account already exists")
	ErrAccountNotFound      = errors.New("account not found")

	ErrEmptyPostingGroup     = errors.New("posting group has no lines")
	ErrUnbalancedGroup       = errors.New("posting group debits and credits do not balance")
	ErrNegativeAmount        = errors.New("posting amounts must not be negative")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrAlreadyReversed       = errors.New("transaction has already been reversed")
	ErrPostingNotFound       = errors.New("posting not found")
	ErrReconciliationMissing = errors.New("reconciliation record not found")
)
