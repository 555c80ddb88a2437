// Package render draws ledger listings and reports as terminal tables.
package render

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/report"
)

var (
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6CBFE6"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F47A60")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numberStyle  = cellStyle.Align(lipgloss.Right)
	footerStyle  = numberStyle.Bold(true)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#87CEEB"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A"))
	noteStyle    = lipgloss.NewStyle().Faint(true)
)

// newTable returns a bordered table whose columns listed in numeric are
// right-aligned. When footer is set the last row is drawn in bold.
func newTable(headers []string, rows [][]string, numeric map[int]bool, footer bool) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case footer && row == len(rows)-1:
				if numeric[col] {
					return footerStyle
				}
				return cellStyle.Bold(true)
			case numeric[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})
}

// Transactions writes a listing followed by its income, expense and
// overall totals.
func Transactions(w io.Writer, res report.ListResult) error {
	rows := make([][]string, 0, len(res.Transactions)+3)
	for _, tx := range res.Transactions {
		rows = append(rows, []string{
			dateOrDash(tx.Date),
			tx.Type.String(),
			tx.Category,
			core.FormatAmount(tx.Amount),
		})
	}
	rows = append(rows,
		[]string{"", "", "Total income", core.FormatAmount(res.Totals.Income)},
		[]string{"", "", "Total expense", core.FormatAmount(res.Totals.Expense)},
		[]string{"", "", "Overall", res.Overall()},
	)

	t := newTable([]string{"Date", "Type", "Category", "Amount"}, rows, map[int]bool{3: true}, true)
	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}
	return notes(w, nil, res.Diagnostics.Unparseable, "%d transaction(s) have no usable date")
}

// Categories writes the known labels of every type.
func Categories(w io.Writer, idx map[core.TxType][]string) error {
	for _, t := range core.Types() {
		labels := idx[t]
		line := "(none)"
		if len(labels) > 0 {
			line = strings.Join(labels, ", ")
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", titleStyle.Render(t.String()+":"), line); err != nil {
			return err
		}
	}
	return nil
}

// Report writes rep in the layout of its kind.
func Report(w io.Writer, rep report.Report) error {
	if _, err := fmt.Fprintln(w, titleStyle.Render(title(rep))); err != nil {
		return err
	}
	if !rep.Empty() {
		var t *table.Table
		switch rep.Kind {
		case report.KindBar, report.KindLine:
			t = periodTable(rep, false)
		case report.KindWaterfall:
			t = periodTable(rep, true)
		case report.KindPie:
			t = shareTable(rep.Categories)
		case report.KindStacked:
			t = stackTable(rep)
		}
		if t != nil {
			if _, err := fmt.Fprintln(w, t.String()); err != nil {
				return err
			}
		}
	}
	return notes(w, rep.Warnings, rep.Diagnostics.Unparseable, "%d transaction(s) without a usable date were skipped")
}

func title(rep report.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s report, %s", rep.Kind, strings.ToLower(rep.Granularity.String()))
	if rep.Type != core.AnyType {
		fmt.Fprintf(&b, ", %s", rep.Type)
	}
	if rep.Range.Bounded() {
		fmt.Fprintf(&b, " (%s to %s)", orOpen(rep.Range.Start), orOpen(rep.Range.End))
	}
	return b.String()
}

func periodTable(rep report.Report, waterfall bool) *table.Table {
	headers := []string{rep.Granularity.Label(), "Income", "Expense", "Net"}
	if waterfall {
		headers = append(headers, "Delta")
	}
	rows := make([][]string, 0, len(rep.Rows)+1)
	for _, r := range rep.Rows {
		row := []string{
			r.Period.String(),
			core.FormatAmount(r.Income),
			core.FormatAmount(r.Expense),
			core.FormatAmount(r.Net),
		}
		if waterfall {
			row = append(row, signed(r.Delta))
		}
		rows = append(rows, row)
	}
	total := []string{"Total",
		core.FormatAmount(rep.Totals.Income),
		core.FormatAmount(rep.Totals.Expense),
		core.FormatAmount(rep.Totals.Net()),
	}
	if waterfall {
		total = append(total, signed(rep.Totals.Net()))
	}
	rows = append(rows, total)
	return newTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true}, true)
}

func shareTable(cats []report.CategoryTotal) *table.Table {
	total := decimal.Zero
	for _, c := range cats {
		total = total.Add(c.Amount)
	}
	rows := make([][]string, 0, len(cats)+1)
	for _, c := range cats {
		rows = append(rows, []string{c.Category, core.FormatAmount(c.Amount), share(c.Amount, total)})
	}
	rows = append(rows, []string{"Total", core.FormatAmount(total), share(total, total)})
	return newTable([]string{"Category", "Amount", "Share"}, rows, map[int]bool{1: true, 2: true}, true)
}

// stackTable lays the per-category series out as a period by category grid.
func stackTable(rep report.Report) *table.Table {
	var periods []core.Date
	cells := make(map[core.Date]map[string]decimal.Decimal)
	for _, s := range rep.Stacks {
		for _, p := range s.Points {
			byCat, ok := cells[p.Period]
			if !ok {
				byCat = make(map[string]decimal.Decimal)
				cells[p.Period] = byCat
				periods = append(periods, p.Period)
			}
			byCat[s.Category] = p.Amount
		}
	}
	slices.SortFunc(periods, func(a, b core.Date) int { return a.Compare(b) })

	headers := []string{rep.Granularity.Label()}
	numeric := map[int]bool{}
	for i, s := range rep.Stacks {
		headers = append(headers, s.Category)
		numeric[i+1] = true
	}
	headers = append(headers, "Total")
	numeric[len(headers)-1] = true

	rows := make([][]string, 0, len(periods)+1)
	for _, p := range periods {
		row := []string{p.String()}
		sum := decimal.Zero
		for _, s := range rep.Stacks {
			amount := cells[p][s.Category]
			sum = sum.Add(amount)
			row = append(row, core.FormatAmount(amount))
		}
		rows = append(rows, append(row, core.FormatAmount(sum)))
	}
	footer := []string{"Total"}
	grand := decimal.Zero
	for _, s := range rep.Stacks {
		t := s.Points.Total()
		grand = grand.Add(t)
		footer = append(footer, core.FormatAmount(t))
	}
	rows = append(rows, append(footer, core.FormatAmount(grand)))
	return newTable(headers, rows, numeric, true)
}

func notes(w io.Writer, warnings []error, undated int, undatedFormat string) error {
	for _, warn := range warnings {
		if _, err := fmt.Fprintln(w, warningStyle.Render("warning: "+warn.Error())); err != nil {
			return err
		}
	}
	if undated > 0 {
		if _, err := fmt.Fprintln(w, noteStyle.Render(fmt.Sprintf(undatedFormat, undated))); err != nil {
			return err
		}
	}
	return nil
}

func share(part, total decimal.Decimal) string {
	if total.IsZero() {
		return "0.0%"
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + core.FormatAmount(d)
	}
	return core.FormatAmount(d)
}

func dateOrDash(d core.Date) string {
	if s := d.String(); s != "" {
		return s
	}
	return "-"
}

func orOpen(d core.Date) string {
	if s := d.String(); s != "" {
		return s
	}
	return "..."
}
