// Package report turns a ledger snapshot into the bucketed, merged and
// category-level series that presentation layers draw.
//
// Every function here is pure: it reads the transactions it is given,
// never mutates them, and returns results in a deterministic order.
package report

import (
	"errors"

	"ledger/internal/core"
)

var (
	// ErrInvalidRange is reported as a warning when a range starts after it
	// ends. The corresponding result is empty.
	ErrInvalidRange = errors.New("start date is after end date")
	// ErrNoMatchingData is reported as a warning when nothing matched.
	ErrNoMatchingData = errors.New("no matching transactions")
)

// Range is a closed date interval. A zero Start or End leaves that side
// unbounded.
type Range struct {
	Start core.Date
	End   core.Date
}

// Between builds a closed range.
func Between(start, end core.Date) Range {
	return Range{Start: start, End: end}
}

// Valid reports whether the range can contain any date.
func (r Range) Valid() bool {
	return r.Start.IsZero() || r.End.IsZero() || !r.Start.After(r.End)
}

// Bounded reports whether either side is set.
func (r Range) Bounded() bool {
	return !r.Start.IsZero() || !r.End.IsZero()
}

// Contains reports whether d lies inside the range, bounds included.
func (r Range) Contains(d core.Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}

// Diagnostics carries the non-fatal conditions met while selecting rows.
type Diagnostics struct {
	// InvalidRange is set when the requested range starts after it ends.
	InvalidRange bool
	// Unparseable counts transactions skipped because they have no usable date.
	Unparseable int
}

// Warnings converts the diagnostics into the error values shown to users.
func (d Diagnostics) Warnings() []error {
	var out []error
	if d.InvalidRange {
		out = append(out, ErrInvalidRange)
	}
	return out
}

// Selection is the output of the filter stage.
type Selection struct {
	Transactions []core.Transaction
	Diagnostics
}

// Empty reports whether nothing was selected.
func (s Selection) Empty() bool {
	return len(s.Transactions) == 0
}

// Filter keeps the transactions dated inside rng whose type matches typ
// (core.AnyType keeps both). Transactions without a usable date are never
// kept; they are counted in Unparseable. An invalid range yields an empty
// selection flagged InvalidRange.
func Filter(txs []core.Transaction, rng Range, typ core.TxType) Selection {
	var sel Selection
	for _, tx := range txs {
		if !tx.HasDate() {
			sel.Unparseable++
		}
	}
	if !rng.Valid() {
		sel.InvalidRange = true
		return sel
	}
	for _, tx := range txs {
		if !tx.HasDate() || !tx.Type.Matches(typ) || !rng.Contains(tx.Date) {
			continue
		}
		sel.Transactions = append(sel.Transactions, tx)
	}
	return sel
}
