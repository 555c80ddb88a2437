package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func tx(y, m, d int, typ core.TxType, cat, amount string) core.Transaction {
	return core.Transaction{
		Date:     core.NewDate(y, m, d),
		Type:     typ,
		Category: cat,
		Amount:   decimal.RequireFromString(amount),
	}
}

func TestInsertValidates(t *testing.T) {
	l := New(nil)

	require.NoError(t, l.Insert(tx(2024, 1, 5, core.Income, "Salary", "1000")))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, uint64(1), l.Revision())

	err := l.Insert(core.Transaction{Type: core.Income, Category: "Salary", Amount: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, core.ErrInvalidDate)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, uint64(1), l.Revision(), "failed insert must not bump revision")
}

func TestDeleteIdentity(t *testing.T) {
	l := New([]core.Transaction{
		tx(2024, 2, 28, core.Expense, "Food", "10"),
		tx(2024, 3, 1, core.Expense, "Food", "50"),
		tx(2024, 3, 1, core.Income, "Food", "5"),
		tx(2024, 3, 1, core.Expense, "Rent", "700"),
	})
	id := core.Identity{Date: core.NewDate(2024, 3, 1), Category: "Food", Type: core.Expense}

	removed, err := l.Delete(id)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []core.Transaction{
		tx(2024, 2, 28, core.Expense, "Food", "10"),
		tx(2024, 3, 1, core.Income, "Food", "5"),
		tx(2024, 3, 1, core.Expense, "Rent", "700"),
	}, l.Transactions())

	revision := l.Revision()
	removed, err = l.Delete(id)
	require.ErrorIs(t, err, ErrIdentityNotFound)
	assert.Zero(t, removed)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, revision, l.Revision())
}

func TestDeleteRemovesEveryExactMatch(t *testing.T) {
	l := New([]core.Transaction{
		tx(2024, 3, 1, core.Expense, "Food", "50"),
		tx(2024, 3, 1, core.Expense, "Food", "12"),
		tx(2024, 3, 1, core.Expense, "food", "1"),
	})

	removed, err := l.Delete(core.Identity{Date: core.NewDate(2024, 3, 1), Category: "Food", Type: core.Expense})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"food"}, l.CategoriesFor(core.Expense))
}

func TestTransactionsReturnsCopy(t *testing.T) {
	l := New([]core.Transaction{tx(2024, 1, 1, core.Income, "Salary", "1")})
	snapshot := l.Transactions()
	snapshot[0].Category = "Changed"

	assert.Equal(t, "Salary", l.View()[0].Category)
}

func TestCategoriesFirstSeenOrder(t *testing.T) {
	l := New([]core.Transaction{
		tx(2024, 1, 3, core.Expense, "Rent", "700"),
		tx(2024, 1, 1, core.Income, "Salary", "1000"),
		tx(2024, 1, 2, core.Expense, "Food", "50"),
		tx(2024, 1, 4, core.Expense, "Rent", "700"),
		tx(2024, 1, 5, core.Income, "Bonus", "100"),
	})

	assert.Equal(t, []string{"Rent", "Food"}, l.CategoriesFor(core.Expense))
	assert.Equal(t, []string{"Salary", "Bonus"}, l.CategoriesFor(core.Income))
	assert.Equal(t, map[core.TxType][]string{
		core.Income:  {"Salary", "Bonus"},
		core.Expense: {"Rent", "Food"},
	}, l.Index())
	assert.True(t, l.HasCategory(core.Expense, "Food"))
	assert.False(t, l.HasCategory(core.Income, "Food"))
}

func TestCategoriesFollowMutations(t *testing.T) {
	l := New(nil)
	assert.Empty(t, l.CategoriesFor(core.Expense))

	require.NoError(t, l.Insert(tx(2024, 1, 2, core.Expense, "Food", "50")))
	assert.Equal(t, []string{"Food"}, l.CategoriesFor(core.Expense))

	_, err := l.Delete(core.Identity{Date: core.NewDate(2024, 1, 2), Category: "Food", Type: core.Expense})
	require.NoError(t, err)
	assert.Empty(t, l.CategoriesFor(core.Expense))
}
