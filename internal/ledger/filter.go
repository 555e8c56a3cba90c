package ledger

// Filter narrows report queries to branches, a division, a project, or
// specific cash accounts. It is passed explicitly through every call;
// report services hold no filter state between runs.
type Filter struct {
	Branches     []string
	DivisionID   string
	ProjectID    string
	CashAccounts []string
}
