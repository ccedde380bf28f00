package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finmate/internal/core"
	"finmate/internal/storage"
	"finmate/internal/storage/memory"
)

type recordedEvent struct {
	kind string
	id   int64
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakeNotifier) PublishExpenseEvent(ctx context.Context, kind string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	f.events = append(f.events, recordedEvent{kind, id})
	return f.err
}

func TestNotifyingStorePublishesCommittedWrites(t *testing.T) {
	ctx := context.Background()
	n := &fakeNotifier{}
	s := storage.NewNotifyingStore(memory.New(nil), n)

	saved, err := s.Insert(ctx, core.Expense{Amount: core.MoneyFromCents(100), Category: "Food", Date: core.NewDate(2024, 1, 1)})
	require.NoError(t, err)

	saved.Category = "Rent"
	_, err = s.Update(ctx, saved)
	require.NoError(t, err)

	require.NoError(t, s.DeleteByID(ctx, saved.ID))

	// Failed writes are not announced.
	assert.ErrorIs(t, s.DeleteByID(ctx, saved.ID), storage.ErrNotFound)
	_, err = s.Update(ctx, saved)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Equal(t, []recordedEvent{
		{storage.EventCreated, saved.ID},
		{storage.EventUpdated, saved.ID},
		{storage.EventDeleted, saved.ID},
	}, n.events)
}

func TestNotifyingStoreIgnoresPublishFailures(t *testing.T) {
	n := &fakeNotifier{err: errors.New("broker down")}
	s := storage.NewNotifyingStore(memory.New(nil), n)

	ctx, cancel := context.WithCancel(context.Background())
	saved, err := s.Insert(ctx, core.Expense{Amount: core.MoneyFromCents(100), Category: "Food", Date: core.NewDate(2024, 1, 1)})
	require.NoError(t, err)
	cancel()

	// Cancellation of the request does not suppress the event of a committed write.
	require.NoError(t, s.DeleteByID(ctx, saved.ID))
	assert.Len(t, n.events, 2)
}

func TestNotifyingStoreWithoutNotifier(t *testing.T) {
	s := storage.NewNotifyingStore(memory.New(nil), nil)
	_, err := s.Insert(context.Background(), core.Expense{Amount: core.MoneyFromCents(1), Category: "Food", Date: core.NewDate(2024, 1, 1)})
	require.NoError(t, err)
}
