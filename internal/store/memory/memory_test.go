package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func TestLoadReturnsCopy(t *testing.T) {
	seed := []core.Transaction{
		{Date: core.NewDate(2024, 1, 5), Type: core.Income, Category: "Salary", Amount: decimal.RequireFromString("1000")},
	}
	s := New(seed)
	seed[0].Category = "changed"

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, "Salary", snap.Transactions[0].Category)

	snap.Transactions[0].Category = "mutated"
	again, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Salary", again.Transactions[0].Category)
}

func TestSaveReplacesAndCounts(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, []core.Transaction{
		{Date: core.NewDate(2024, 2, 1), Type: core.Expense, Category: "Food", Amount: decimal.RequireFromString("5")},
	}))
	require.NoError(t, s.Save(ctx, nil))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Transactions)
	assert.Equal(t, 2, s.Saves())

	boom := errors.New("disk full")
	s.FailSave = boom
	assert.ErrorIs(t, s.Save(ctx, nil), boom)
	assert.Equal(t, 2, s.Saves())
	assert.NoError(t, s.Close())
}
