package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

const (
	KindBar       Kind = "bar"
	KindLine      Kind = "line"
	KindWaterfall Kind = "waterfall"
	KindStacked   Kind = "stacked"
	KindPie       Kind = "pie"
)

var (
	ErrUnknownKind  = errors.New("unknown report kind")
	ErrTypeRequired = errors.New("report kind requires a transaction type")
)

// Kind selects which view a report is built for.
type Kind string

// Kinds lists every report kind.
func Kinds() []Kind {
	return []Kind{KindBar, KindLine, KindWaterfall, KindStacked, KindPie}
}

// ParseKind accepts the kind name in any letter case.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for _, k := range Kinds() {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string {
	return string(k)
}

// TimeSeries reports whether the kind compares income and expense over time.
func (k Kind) TimeSeries() bool {
	return k == KindBar || k == KindLine || k == KindWaterfall
}

// PerCategory reports whether the kind breaks one transaction type down by
// category.
func (k Kind) PerCategory() bool {
	return k == KindStacked || k == KindPie
}

// Request describes one report. Granularity defaults to Daily. Type is
// required by the per-category kinds and ignored by the time-series kinds,
// which always compare both types.
type Request struct {
	Kind        Kind
	Granularity Granularity
	Range       Range
	Type        core.TxType
}

// Validate checks the request shape; date problems are reported as
// diagnostics by Build instead.
func (r Request) Validate() error {
	switch {
	case r.Kind.TimeSeries():
	case r.Kind.PerCategory():
		if !r.Type.IsValid() {
			return ErrTypeRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
	if r.Granularity != "" && !r.Granularity.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownGranularity, r.Granularity)
	}
	return nil
}

// Totals summarizes the selected transactions.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Net is income minus expense.
func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// Report is the presentation-agnostic result of Build. Time-series kinds
// fill Rows; the pie fills Categories; the stacked view fills Categories and
// Stacks.
type Report struct {
	Kind        Kind
	Granularity Granularity
	Range       Range
	Type        core.TxType

	Rows       []Row
	Categories []CategoryTotal
	Stacks     []CategorySeries
	Totals     Totals

	Diagnostics Diagnostics
	// Warnings lists the conditions the user should be told about, such as
	// ErrInvalidRange or ErrNoMatchingData. A report with warnings is still
	// valid, just possibly empty.
	Warnings []error
}

// Empty reports whether the report has nothing to draw.
func (r Report) Empty() bool {
	return len(r.Rows) == 0 && len(r.Categories) == 0 && len(r.Stacks) == 0
}

// Build runs the filter, group, merge and derive stages for req over txs.
func Build(txs []core.Transaction, req Request) (Report, error) {
	if err := req.Validate(); err != nil {
		return Report{}, err
	}
	if req.Granularity == "" {
		req.Granularity = Daily
	}
	typ := req.Type
	if req.Kind.TimeSeries() {
		typ = core.AnyType
	}

	sel := Filter(txs, req.Range, typ)
	rep := Report{
		Kind:        req.Kind,
		Granularity: req.Granularity,
		Range:       req.Range,
		Type:        typ,
		Totals:      totalsOf(sel.Transactions),
		Diagnostics: sel.Diagnostics,
		Warnings:    sel.Warnings(),
	}
	if !sel.InvalidRange && sel.Empty() {
		rep.Warnings = append(rep.Warnings, ErrNoMatchingData)
	}

	switch req.Kind {
	case KindBar, KindLine, KindWaterfall:
		grouped := Group(sel.Transactions, req.Granularity)
		rep.Rows = Derive(Merge(grouped[core.Income], grouped[core.Expense]))
	case KindPie:
		rep.Categories = categoryTotals(sel.Transactions)
	case KindStacked:
		rep.Categories = categoryTotals(sel.Transactions)
		rep.Stacks = StackByCategory(sel.Transactions, req.Granularity)
	}
	return rep, nil
}

func totalsOf(txs []core.Transaction) Totals {
	t := Totals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	return t
}
