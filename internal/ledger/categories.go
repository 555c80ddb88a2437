package ledger

import "ledger/internal/core"

// CategoriesFor returns the distinct category labels used by transactions of
// the given type, in first-seen order. It is recomputed on every call so it
// never lags behind inserts and deletes.
func (l *Ledger) CategoriesFor(t core.TxType) []string {
	return categoriesFor(l.items, t)
}

// Index returns the category labels for every transaction type.
func (l *Ledger) Index() map[core.TxType][]string {
	idx := make(map[core.TxType][]string, 2)
	for _, t := range core.Types() {
		idx[t] = l.CategoriesFor(t)
	}
	return idx
}

// HasCategory reports whether label is already used for type t.
func (l *Ledger) HasCategory(t core.TxType, label string) bool {
	for _, tx := range l.items {
		if tx.Type == t && tx.Category == label {
			return true
		}
	}
	return false
}

func categoriesFor(txs []core.Transaction, t core.TxType) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, tx := range txs {
		if tx.Type != t {
			continue
		}
		if _, ok := seen[tx.Category]; ok {
			continue
		}
		seen[tx.Category] = struct{}{}
		out = append(out, tx.Category)
	}
	return out
}
