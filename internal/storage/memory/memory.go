// Package memory is an in-process Store used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"finmate/internal/core"
	"finmate/internal/storage"
)

type Store struct {
	mu     sync.RWMutex
	clock  storage.Clock
	nextID int64
	items  map[int64]core.Expense
}

var _ storage.Store = (*Store)(nil)

func New(clock storage.Clock) *Store {
	return &Store{clock: clock, items: make(map[int64]core.Expense)}
}

// Seed inserts rows as-is, keeping their CreatedAt when set. Used to preload fixtures.
func (s *Store) Seed(rows ...core.Expense) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(rows))
	for _, e := range rows {
		s.nextID++
		e.ID = s.nextID
		if e.CreatedAt.IsZero() {
			e.CreatedAt = s.clock.Today()
		}
		s.items[e.ID] = e
		out = append(out, e)
	}
	return out
}

func (s *Store) Insert(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	e.CreatedAt = s.clock.Today()
	s.items[e.ID] = e
	return e, nil
}

func (s *Store) FindByID(_ context.Context, id int64) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, storage.ErrNotFound
	}
	return e, nil
}

func (s *Store) FindAll(_ context.Context) ([]core.Expense, error) {
	return s.filter(func(core.Expense) bool { return true }, byID), nil
}

func (s *Store) Update(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[e.ID]
	if !ok {
		return core.Expense{}, storage.ErrNotFound
	}
	existing.Amount = e.Amount
	existing.Category = e.Category
	existing.Note = e.Note
	existing.Date = e.Date
	s.items[e.ID] = existing
	return existing, nil
}

func (s *Store) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) FindByCategory(_ context.Context, category string) ([]core.Expense, error) {
	return s.filter(func(e core.Expense) bool { return e.Category == category }, byID), nil
}

func (s *Store) FindByDateBetween(_ context.Context, start, end core.Date) ([]core.Expense, error) {
	return s.filter(func(e core.Expense) bool {
		return !e.Date.Before(start.Time) && !e.Date.After(end)
	}, byDateDesc), nil
}

func (s *Store) FindByYearAndMonth(_ context.Context, year, month int) ([]core.Expense, error) {
	start, end, err := core.MonthRange(year, month)
	if err != nil {
		return nil, err
	}
	return s.filter(inRange(start, end), byDateAsc), nil
}

func (s *Store) MonthlySummaryByCategory(_ context.Context, year, month int) ([]core.CategoryTotal, error) {
	start, end, err := core.MonthRange(year, month)
	if err != nil {
		return nil, err
	}

	sums := map[string]core.Money{}
	for _, e := range s.filter(inRange(start, end), byID) {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}

	out := make([]core.CategoryTotal, 0, len(sums))
	for category, total := range sums {
		out = append(out, core.CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Decimal().Cmp(out[j].Total.Decimal()); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (s *Store) MonthlyTotals(_ context.Context) ([]core.MonthTotal, error) {
	type key struct{ year, month int }
	sums := map[key]core.Money{}
	for _, e := range s.filter(func(core.Expense) bool { return true }, byID) {
		k := key{e.Date.Year(), e.Date.MonthNumber()}
		sums[k] = sums[k].Add(e.Amount)
	}

	out := make([]core.MonthTotal, 0, len(sums))
	for k, total := range sums {
		out = append(out, core.MonthTotal{Year: k.year, Month: k.month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) filter(keep func(core.Expense) bool, less func(a, b core.Expense) bool) []core.Expense {
	s.mu.RLock()
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		if keep(e) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func inRange(start, end core.Date) func(core.Expense) bool {
	return func(e core.Expense) bool {
		return !e.Date.Before(start.Time) && !e.Date.After(end)
	}
}

func byID(a, b core.Expense) bool { return a.ID < b.ID }

func byDateAsc(a, b core.Expense) bool {
	if !a.Date.Equal(b.Date.Time) {
		return a.Date.Before(b.Date.Time)
	}
	return a.ID < b.ID
}

func byDateDesc(a, b core.Expense) bool {
	if !a.Date.Equal(b.Date.Time) {
		return a.Date.After(b.Date)
	}
	return a.ID > b.ID
}
