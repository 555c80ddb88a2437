package render

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/report"
)

func sample() []core.Transaction {
	return []core.Transaction{
		{Date: core.NewDate(2024, 1, 5), Type: core.Income, Category: "Salary", Amount: decimal.NewFromInt(1000)},
		{Date: core.NewDate(2024, 1, 20), Type: core.Expense, Category: "Food", Amount: decimal.NewFromInt(50)},
		{Date: core.NewDate(2024, 2, 5), Type: core.Income, Category: "Salary", Amount: decimal.NewFromInt(1000)},
		{Date: core.NewDate(2024, 2, 9), Type: core.Expense, Category: "Rent", Amount: decimal.NewFromInt(150)},
	}
}

func build(t *testing.T, req report.Request) report.Report {
	t.Helper()
	rep, err := report.Build(sample(), req)
	require.NoError(t, err)
	return rep
}

func TestTransactions(t *testing.T) {
	txs := append(sample(), core.Transaction{Type: core.Expense, Category: "Misc", Amount: decimal.NewFromInt(1)})
	var buf bytes.Buffer
	require.NoError(t, Transactions(&buf, report.List(txs, report.ListQuery{})))

	out := buf.String()
	assert.Contains(t, out, "2024-01-20")
	assert.Contains(t, out, "Salary")
	assert.Contains(t, out, "2000.00")
	assert.Contains(t, out, "201.00")
	assert.Contains(t, out, "1799.00")
	assert.Contains(t, out, "1 transaction(s) have no usable date")
}

func TestCategories(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Categories(&buf, map[core.TxType][]string{core.Income: {"Salary"}}))

	out := buf.String()
	assert.Contains(t, out, "Salary")
	assert.Contains(t, out, "(none)")
}

func TestReportTimeSeries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, build(t, report.Request{Kind: report.KindBar, Granularity: report.Monthly})))

	out := buf.String()
	assert.Contains(t, out, "bar report, monthly")
	assert.Contains(t, out, "Month")
	assert.Contains(t, out, "2024-01-31")
	assert.Contains(t, out, "2024-02-29")
	assert.Contains(t, out, "950.00")
	assert.Contains(t, out, "850.00")
	assert.NotContains(t, out, "Delta")
}

func TestReportWaterfall(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, build(t, report.Request{Kind: report.KindWaterfall, Granularity: report.Yearly})))

	out := buf.String()
	assert.Contains(t, out, "Delta")
	assert.Contains(t, out, "+1800.00")
}

func TestReportPie(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, build(t, report.Request{Kind: report.KindPie, Type: core.Expense})))

	out := buf.String()
	assert.Contains(t, out, "pie report, daily, Expense")
	assert.Contains(t, out, "25.0%")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "100.0%")
}

func TestReportStacked(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, build(t, report.Request{Kind: report.KindStacked, Granularity: report.Monthly, Type: core.Expense})))

	out := buf.String()
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "Rent")
	assert.Contains(t, out, "200.00")
}

func TestReportWarnings(t *testing.T) {
	var buf bytes.Buffer
	rng := report.Between(core.NewDate(2024, 3, 1), core.NewDate(2024, 1, 1))
	require.NoError(t, Report(&buf, build(t, report.Request{Kind: report.KindLine, Range: rng})))

	out := buf.String()
	assert.Contains(t, out, "warning: "+report.ErrInvalidRange.Error())
	assert.Contains(t, out, "(2024-03-01 to 2024-01-01)")

	buf.Reset()
	rng = report.Between(core.NewDate(2030, 1, 1), core.Date{})
	require.NoError(t, Report(&buf, build(t, report.Request{Kind: report.KindLine, Range: rng})))
	assert.Contains(t, buf.String(), "warning: "+report.ErrNoMatchingData.Error())
	assert.Contains(t, buf.String(), "(2030-01-01 to ...)")
}

func TestShare(t *testing.T) {
	assert.Equal(t, "0.0%", share(decimal.Zero, decimal.Zero))
	assert.Equal(t, "33.3%", share(decimal.NewFromInt(1), decimal.NewFromInt(3)))
}
