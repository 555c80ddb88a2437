package report

import (
	"fmt"
	"slices"
	"strings"

	"ledger/internal/core"
)

const (
	SortNone     SortField = ""
	SortDate     SortField = "date"
	SortAmount   SortField = "amount"
	SortCategory SortField = "category"
	SortType     SortField = "type"
)

// SortField names the column a listing is ordered by.
type SortField string

// ParseSortField accepts the field name in any letter case; "" keeps
// insertion order.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortNone, SortDate, SortAmount, SortCategory, SortType:
		return f, nil
	default:
		return "", fmt.Errorf("unknown sort field %q", s)
	}
}

// ListQuery selects and orders transactions for a tabular listing.
// A zero query lists everything in insertion order.
type ListQuery struct {
	Range      Range
	Type       core.TxType
	Category   string
	SortBy     SortField
	Descending bool
}

// ListResult is a listing with its totals.
type ListResult struct {
	Transactions []core.Transaction
	Totals       Totals
	Diagnostics  Diagnostics
}

// Overall is listed income minus listed expense, formatted for display.
func (r ListResult) Overall() string {
	return core.FormatAmount(r.Totals.Net())
}

// List filters and sorts txs for display. Without a date range, undated
// transactions are listed too (they sort first by date); with one they are
// excluded like everywhere else. Sorting is stable.
func List(txs []core.Transaction, q ListQuery) ListResult {
	var res ListResult
	var picked []core.Transaction
	if q.Range.Bounded() {
		sel := Filter(txs, q.Range, q.Type)
		res.Diagnostics = sel.Diagnostics
		picked = sel.Transactions
	} else {
		for _, tx := range txs {
			if !tx.HasDate() {
				res.Diagnostics.Unparseable++
			}
			if tx.Type.Matches(q.Type) {
				picked = append(picked, tx)
			}
		}
	}

	if q.Category != "" {
		picked = slices.DeleteFunc(picked, func(tx core.Transaction) bool { return tx.Category != q.Category })
	}
	if cmp := compareBy(q.SortBy); cmp != nil {
		if q.Descending {
			asc := cmp
			cmp = func(a, b core.Transaction) int { return asc(b, a) }
		}
		slices.SortStableFunc(picked, cmp)
	}

	res.Transactions = picked
	res.Totals = totalsOf(picked)
	return res
}

func compareBy(f SortField) func(a, b core.Transaction) int {
	switch f {
	case SortDate:
		return func(a, b core.Transaction) int { return a.Date.Compare(b.Date) }
	case SortAmount:
		return func(a, b core.Transaction) int { return a.Amount.Cmp(b.Amount) }
	case SortCategory:
		return func(a, b core.Transaction) int { return strings.Compare(a.Category, b.Category) }
	case SortType:
		return func(a, b core.Transaction) int { return strings.Compare(string(a.Type), string(b.Type)) }
	default:
		return nil
	}
}
