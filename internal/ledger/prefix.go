package ledger

import "sort"

// PrefixIndex resolves account-code prefixes to accounts. It is built
// once per report run from the active chart of accounts, replacing
// per-prefix LIKE scans with a byte trie over codes.
type PrefixIndex struct {
	root *prefixNode
}

type prefixNode struct {
	children map[byte]*prefixNode
	accounts []*Account
}

// NewPrefixIndex builds an index over the given accounts.
func NewPrefixIndex(accounts []Account) *PrefixIndex {
	ix := &PrefixIndex{root: &prefixNode{}}
	for i := range accounts {
		ix.insert(&accounts[i])
	}
	return ix
}

func (ix *PrefixIndex) insert(a *Account) {
	node := ix.root
	node.accounts = append(node.accounts, a)
	for i := 0; i < len(a.Code); i++ {
		c := a.Code[i]
		if node.children == nil {
			node.children = make(map[byte]*prefixNode)
		}
		child := node.children[c]
		if child == nil {
			child = &prefixNode{}
			node.children[c] = child
		}
		node = child
		node.accounts = append(node.accounts, a)
	}
}

// Resolve returns every account whose code starts with any of the
// given prefixes, deduplicated and ordered by code. An empty prefix
// list resolves to no accounts: absent configuration is a valid
// "nothing to aggregate" state, not an error.
func (ix *PrefixIndex) Resolve(prefixes ...string) []Account {
	seen := make(map[string]*Account)
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		node := ix.root
		ok := true
		for i := 0; i < len(prefix); i++ {
			node = node.children[prefix[i]]
			if node == nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for _, a := range node.accounts {
			seen[a.ID] = a
		}
	}

	out := make([]Account, 0, len(seen))
	for _, a := range seen {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// All returns every indexed account ordered by code.
func (ix *PrefixIndex) All() []Account {
	out := make([]Account, 0, len(ix.root.accounts))
	for _, a := range ix.root.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
