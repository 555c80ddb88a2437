package report

import (
	"slices"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Point is the summed amount of one period.
type Point struct {
	Period core.Date
	Amount decimal.Decimal
}

// Series is a run of points ordered by period, one point per period.
type Series []Point

// Total sums every point.
func (s Series) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s {
		total = total.Add(p.Amount)
	}
	return total
}

// Group sums the amounts of txs per calendar period and per type. Only
// periods that contain at least one transaction of a type appear in that
// type's series. Undated transactions are skipped.
func Group(txs []core.Transaction, g Granularity) map[core.TxType]Series {
	sums := make(map[core.TxType]map[core.Date]decimal.Decimal, 2)
	for _, tx := range txs {
		if !tx.HasDate() {
			continue
		}
		byPeriod, ok := sums[tx.Type]
		if !ok {
			byPeriod = make(map[core.Date]decimal.Decimal)
			sums[tx.Type] = byPeriod
		}
		key := g.PeriodKey(tx.Date)
		byPeriod[key] = byPeriod[key].Add(tx.Amount)
	}

	out := make(map[core.TxType]Series, len(sums))
	for typ, byPeriod := range sums {
		out[typ] = toSeries(byPeriod)
	}
	return out
}

func toSeries(byPeriod map[core.Date]decimal.Decimal) Series {
	s := make(Series, 0, len(byPeriod))
	for period, amount := range byPeriod {
		s = append(s, Point{Period: period, Amount: amount})
	}
	slices.SortFunc(s, func(a, b Point) int { return a.Period.Compare(b.Period) })
	return s
}
