package storage

import (
	"context"
	"errors"
	"time"

	"finmate/internal/core"
)

// ErrNotFound is returned when no expense has the requested id.
var ErrNotFound = errors.New("expense not found")

// Clock returns the current instant; the calendar date of its result is "today".
type Clock func() time.Time

// Today is the calendar date the clock currently reports. A nil Clock uses time.Now.
func (c Clock) Today() core.Date {
	if c == nil {
		return core.DateOf(time.Now())
	}
	return core.DateOf(c())
}

// Store persists expenses and answers read queries over them.
type Store interface {
	// Insert assigns ID and CreatedAt and returns the persisted row.
	Insert(ctx context.Context, e core.Expense) (core.Expense, error)
	FindByID(ctx context.Context, id int64) (core.Expense, error)
	FindAll(ctx context.Context) ([]core.Expense, error)
	// Update replaces amount, category, note and date of an existing row.
	// CreatedAt is kept; a missing id yields ErrNotFound and nothing is inserted.
	Update(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteByID(ctx context.Context, id int64) error
	FindByCategory(ctx context.Context, category string) ([]core.Expense, error)
	// FindByDateBetween is inclusive on both ends and ordered by date descending.
	FindByDateBetween(ctx context.Context, start, end core.Date) ([]core.Expense, error)
	FindByYearAndMonth(ctx context.Context, year, month int) ([]core.Expense, error)
	// MonthlySummaryByCategory is ordered by total descending.
	MonthlySummaryByCategory(ctx context.Context, year, month int) ([]core.CategoryTotal, error)
	// MonthlyTotals is ordered by year, then month, ascending.
	MonthlyTotals(ctx context.Context) ([]core.MonthTotal, error)

	Ping(ctx context.Context) error
	Close() error
}
