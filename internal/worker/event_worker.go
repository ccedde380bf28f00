// Package worker consumes expense change events published by the API.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"finmate/internal/amqp"
	"finmate/internal/core"
	"finmate/internal/log"
	"finmate/internal/storage"
)

// ExpenseReader resolves an event to the current row.
type ExpenseReader interface {
	FindByID(ctx context.Context, id int64) (core.Expense, error)
}

// Stats counts handled events per kind.
type Stats struct {
	Created int64
	Updated int64
	Deleted int64
	Stale   int64
}

// EventWorker records expense change events. With a reader it also looks up
// the written row so the log carries amount, category and date.
type EventWorker struct {
	reader ExpenseReader
	logger *log.Logger

	created atomic.Int64
	updated atomic.Int64
	deleted atomic.Int64
	stale   atomic.Int64
}

func NewEventWorker(reader ExpenseReader, logger *log.Logger) *EventWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &EventWorker{
		reader: reader,
		logger: logger.WithComponent(log.ComponentEvents),
	}
}

// HandleExpenseEvent processes a single expense event from AMQP. A returned
// error asks the broker for one redelivery.
func (w *EventWorker) HandleExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	fields := log.NewFields().
		WithOperation(log.OpConsume).
		WithEvent(event.Type, event.ID)

	switch event.Type {
	case storage.EventDeleted:
		w.deleted.Add(1)
		w.logger.InfoContext(ctx, "Expense deleted", fields.ToSlice()...)
		return nil
	case storage.EventCreated, storage.EventUpdated:
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}

	if event.Type == storage.EventCreated {
		w.created.Add(1)
	} else {
		w.updated.Add(1)
	}

	if w.reader == nil {
		w.logger.InfoContext(ctx, "Expense written", fields.ToSlice()...)
		return nil
	}

	expense, err := w.reader.FindByID(ctx, event.ID)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted before this event was consumed; the delete event follows.
		w.stale.Add(1)
		w.logger.WarnContext(ctx, "Expense no longer exists", fields.ToSlice()...)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense %d: %w", event.ID, err)
	}

	fields = fields.WithExpense(expense.ID, expense.Amount.String(), expense.Category, expense.Date.String())
	w.logger.InfoContext(ctx, "Expense written", fields.ToSlice()...)
	return nil
}

// Stats returns a snapshot of the handled event counts.
func (w *EventWorker) Stats() Stats {
	return Stats{
		Created: w.created.Load(),
		Updated: w.updated.Load(),
		Deleted: w.deleted.Load(),
		Stale:   w.stale.Load(),
	}
}
