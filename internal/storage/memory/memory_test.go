package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finmate/internal/core"
	"finmate/internal/storage"
	"finmate/internal/storage/storetest"
)

func TestMemoryStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T, clock storage.Clock) storage.Store {
		return New(clock)
	})
}

func TestSeedKeepsCreatedAt(t *testing.T) {
	s := New(nil)
	rows := s.Seed(
		core.Expense{Amount: core.MoneyFromCents(100), Category: "Food", Date: core.NewDate(2024, 1, 1), CreatedAt: core.NewDate(2024, 1, 2)},
		core.Expense{Amount: core.MoneyFromCents(200), Category: "Rent", Date: core.NewDate(2024, 1, 3)},
	)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, "2024-01-02", rows[0].CreatedAt.String())
	assert.False(t, rows[1].CreatedAt.IsZero())

	got, err := s.FindByID(context.Background(), rows[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Rent", got.Category)
}
