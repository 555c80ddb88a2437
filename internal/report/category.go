package report

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

// CategorySeries is the per-period amounts of one category.
type CategorySeries struct {
	Category string
	Points   Series
}

// AggregateByCategory sums the amounts of the transactions of type typ dated
// inside rng, per category, ordered ascending by label. The diagnostics of
// the underlying selection are returned alongside.
func AggregateByCategory(txs []core.Transaction, typ core.TxType, rng Range) ([]CategoryTotal, Diagnostics) {
	sel := Filter(txs, rng, typ)
	return categoryTotals(sel.Transactions), sel.Diagnostics
}

func categoryTotals(txs []core.Transaction) []CategoryTotal {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
	}
	out := make([]CategoryTotal, 0, len(sums))
	for cat, amount := range sums {
		out = append(out, CategoryTotal{Category: cat, Amount: amount})
	}
	slices.SortFunc(out, func(a, b CategoryTotal) int { return strings.Compare(a.Category, b.Category) })
	return out
}

// StackByCategory groups txs per category and period. Categories are
// ordered ascending by label, points by period.
func StackByCategory(txs []core.Transaction, g Granularity) []CategorySeries {
	byCategory := make(map[string]map[core.Date]decimal.Decimal)
	for _, tx := range txs {
		if !tx.HasDate() {
			continue
		}
		byPeriod, ok := byCategory[tx.Category]
		if !ok {
			byPeriod = make(map[core.Date]decimal.Decimal)
			byCategory[tx.Category] = byPeriod
		}
		key := g.PeriodKey(tx.Date)
		byPeriod[key] = byPeriod[key].Add(tx.Amount)
	}

	out := make([]CategorySeries, 0, len(byCategory))
	for cat, byPeriod := range byCategory {
		out = append(out, CategorySeries{Category: cat, Points: toSeries(byPeriod)})
	}
	slices.SortFunc(out, func(a, b CategorySeries) int { return strings.Compare(a.Category, b.Category) })
	return out
}
