package report

import (
	"slices"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Bucket holds the income and expense totals of one period.
type Bucket struct {
	Period  core.Date
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Net is income minus expense.
func (b Bucket) Net() decimal.Decimal {
	return b.Income.Sub(b.Expense)
}

// Row is a bucket together with its derived metrics.
type Row struct {
	Bucket
	Net   decimal.Decimal
	Delta decimal.Decimal
}

// Merge outer-joins an income and an expense series on period. A period
// present on one side only gets zero on the other. The result is ordered by
// period; leading periods where both sides are zero are dropped.
func Merge(income, expense Series) []Bucket {
	byPeriod := make(map[core.Date]*Bucket, len(income)+len(expense))
	get := func(period core.Date) *Bucket {
		b, ok := byPeriod[period]
		if !ok {
			b = &Bucket{Period: period, Income: decimal.Zero, Expense: decimal.Zero}
			byPeriod[period] = b
		}
		return b
	}
	for _, p := range income {
		b := get(p.Period)
		b.Income = b.Income.Add(p.Amount)
	}
	for _, p := range expense {
		b := get(p.Period)
		b.Expense = b.Expense.Add(p.Amount)
	}

	buckets := make([]Bucket, 0, len(byPeriod))
	for _, b := range byPeriod {
		buckets = append(buckets, *b)
	}
	slices.SortFunc(buckets, func(a, b Bucket) int { return a.Period.Compare(b.Period) })

	first := 0
	for first < len(buckets) && buckets[first].Income.IsZero() && buckets[first].Expense.IsZero() {
		first++
	}
	return buckets[first:]
}

// Derive adds Net and Delta to each bucket. Delta is the change contributed
// by the period alone, which for a per-period waterfall equals Net.
func Derive(buckets []Bucket) []Row {
	rows := make([]Row, len(buckets))
	for i, b := range buckets {
		net := b.Net()
		rows[i] = Row{Bucket: b, Net: net, Delta: net}
	}
	return rows
}
