package storage

import (
	"context"
	"log/slog"

	"finmate/internal/core"
)

// Event kinds published after a write commits.
const (
	EventCreated = "expense.created"
	EventUpdated = "expense.updated"
	EventDeleted = "expense.deleted"
)

// Notifier receives change notifications for committed writes.
type Notifier interface {
	PublishExpenseEvent(ctx context.Context, kind string, id int64) error
}

// NotifyingStore decorates a Store and announces every successful write.
// Notification failures are logged and never surface to the caller: the row is already committed.
type NotifyingStore struct {
	Store
	notifier Notifier
}

func NewNotifyingStore(store Store, notifier Notifier) *NotifyingStore {
	return &NotifyingStore{Store: store, notifier: notifier}
}

func (s *NotifyingStore) Insert(ctx context.Context, e core.Expense) (core.Expense, error) {
	saved, err := s.Store.Insert(ctx, e)
	if err != nil {
		return saved, err
	}
	s.notify(ctx, EventCreated, saved.ID)
	return saved, nil
}

func (s *NotifyingStore) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	saved, err := s.Store.Update(ctx, e)
	if err != nil {
		return saved, err
	}
	s.notify(ctx, EventUpdated, saved.ID)
	return saved, nil
}

func (s *NotifyingStore) DeleteByID(ctx context.Context, id int64) error {
	if err := s.Store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, EventDeleted, id)
	return nil
}

func (s *NotifyingStore) notify(ctx context.Context, kind string, id int64) {
	if s.notifier == nil {
		return
	}
	// The client may already be gone; the write is not.
	if err := s.notifier.PublishExpenseEvent(context.WithoutCancel(ctx), kind, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"event", kind,
			"id", id,
			"error", err)
	}
}
