// Package ledger holds the in-memory, session-scoped collection of
// transactions and the category index derived from it.
package ledger

import (
	"errors"

	"ledger/internal/core"
)

// ErrIdentityNotFound is returned by Delete when no transaction matches.
// It is a warning: the ledger is left unchanged.
var ErrIdentityNotFound = errors.New("no transaction matches identity")

// Ledger is an ordered sequence of transactions owned by a single session.
// It performs no locking; callers sharing one across goroutines must
// serialize access themselves.
type Ledger struct {
	items    []core.Transaction
	revision uint64
}

// New returns a ledger seeded with txs in their given order.
func New(txs []core.Transaction) *Ledger {
	return &Ledger{items: append([]core.Transaction(nil), txs...)}
}

// Len returns the number of transactions.
func (l *Ledger) Len() int {
	return len(l.items)
}

// Revision increases on every successful mutation.
func (l *Ledger) Revision() uint64 {
	return l.revision
}

// Transactions returns a copy of the ledger contents in insertion order.
func (l *Ledger) Transactions() []core.Transaction {
	return append([]core.Transaction(nil), l.items...)
}

// View exposes the backing slice for read-only engine calls. The returned
// slice must not be modified or retained across mutations.
func (l *Ledger) View() []core.Transaction {
	return l.items
}

// Insert validates tx and appends it.
func (l *Ledger) Insert(tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	l.items = append(l.items, tx)
	l.revision++
	return nil
}

// Delete removes every transaction whose date, category and type equal id
// and returns how many were removed. Remaining transactions keep their order.
func (l *Ledger) Delete(id core.Identity) (int, error) {
	kept := make([]core.Transaction, 0, len(l.items))
	for _, tx := range l.items {
		if id.Matches(tx) {
			continue
		}
		kept = append(kept, tx)
	}
	removed := len(l.items) - len(kept)
	if removed == 0 {
		return 0, ErrIdentityNotFound
	}
	l.items = kept
	l.revision++
	return removed, nil
}

// Replace swaps the whole contents, e.g. after reloading from the store.
func (l *Ledger) Replace(txs []core.Transaction) {
	l.items = append([]core.Transaction(nil), txs...)
	l.revision++
}
