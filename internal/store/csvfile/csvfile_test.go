package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/store"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "ledger.csv"))
	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Transactions)
	assert.Zero(t, snap.Rejected)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.csv")
	s := New(path)
	txs := []core.Transaction{
		{Date: core.NewDate(2024, 1, 5), Type: core.Income, Category: "Salary", Amount: decimal.RequireFromString("1000")},
		{Date: core.NewDate(2024, 1, 20), Type: core.Expense, Category: `Food, "fresh"`, Amount: decimal.RequireFromString("12.345")},
	}
	require.NoError(t, s.Save(context.Background(), txs))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Date,Type,Category,Amount\n")

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Transactions, 2)
	assert.Equal(t, `Food, "fresh"`, snap.Transactions[1].Category)
	assert.True(t, snap.Transactions[1].Amount.Equal(decimal.RequireFromString("12.345")))
	assert.True(t, snap.Transactions[0].Date.Equal(core.NewDate(2024, 1, 5)))
}

func TestLoadCountsRejectedAndKeepsUndated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	content := "Date,Type,Category,Amount\n" +
		"2024-01-05,Income,Salary,1000\n" +
		"someday,Expense,Food,5\n" +
		"2024-01-06,Gift,Food,5\n" +
		"2024-01-07,Expense,Food,-5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	snap, err := New(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Rejected)
	require.Len(t, snap.Transactions, 2)
	assert.False(t, snap.Transactions[1].HasDate())
}

func TestLoadRejectsBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte("When,What\n2024-01-01,x\n"), 0644))

	_, err := New(path).Load(context.Background())
	assert.ErrorIs(t, err, store.ErrMissingColumn)
}

func TestSaveKeepsUnparsedDateText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,Type,Category,Amount\n03/15/2024,Expense,Food,12.50\n"), 0644))
	s := New(path)
	ctx := context.Background()

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Transactions, 1)
	require.NoError(t, s.Save(ctx, snap.Transactions))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "03/15/2024,Expense,Food,12.5\n")

	again, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, again.Transactions, 1)
	assert.False(t, again.Transactions[0].HasDate())
	assert.Equal(t, "03/15/2024", again.Transactions[0].RawDate)
}
