package cache

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"finmate/internal/core"
	"finmate/internal/storage"
)

const trendsKey = "trends"

// SummaryStore caches the aggregate queries of a Store. Every successful write
// made through it clears both caches; writes by other processes sharing the
// database become visible once entries expire.
type SummaryStore struct {
	storage.Store
	summaries Cache[[]core.CategoryTotal]
	trends    Cache[[]core.MonthTotal]

	// generation changes on every invalidation. A result read under an older
	// generation is returned but never cached.
	mu         sync.Mutex
	generation uint64
}

func NewSummaryStore(store storage.Store, summaries Cache[[]core.CategoryTotal], trends Cache[[]core.MonthTotal]) *SummaryStore {
	return &SummaryStore{Store: store, summaries: summaries, trends: trends}
}

func (s *SummaryStore) Insert(ctx context.Context, e core.Expense) (core.Expense, error) {
	saved, err := s.Store.Insert(ctx, e)
	if err == nil {
		s.invalidate()
	}
	return saved, err
}

func (s *SummaryStore) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	saved, err := s.Store.Update(ctx, e)
	if err == nil {
		s.invalidate()
	}
	return saved, err
}

func (s *SummaryStore) DeleteByID(ctx context.Context, id int64) error {
	if err := s.Store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *SummaryStore) MonthlySummaryByCategory(ctx context.Context, year, month int) ([]core.CategoryTotal, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	if rows, ok := s.summaries.Get(key); ok {
		return slices.Clone(rows), nil
	}
	gen := s.currentGeneration()
	rows, err := s.Store.MonthlySummaryByCategory(ctx, year, month)
	if err != nil {
		return nil, err
	}
	s.fill(gen, func() { s.summaries.Set(key, slices.Clone(rows)) })
	return rows, nil
}

func (s *SummaryStore) MonthlyTotals(ctx context.Context) ([]core.MonthTotal, error) {
	if rows, ok := s.trends.Get(trendsKey); ok {
		return slices.Clone(rows), nil
	}
	gen := s.currentGeneration()
	rows, err := s.Store.MonthlyTotals(ctx)
	if err != nil {
		return nil, err
	}
	s.fill(gen, func() { s.trends.Set(trendsKey, slices.Clone(rows)) })
	return rows, nil
}

func (s *SummaryStore) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// fill runs set only if no write was invalidated since gen was read.
func (s *SummaryStore) fill(gen uint64, set func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		set()
	}
}

// invalidate drops every cached aggregate; an update can move an expense between months.
func (s *SummaryStore) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.summaries.Clear()
	s.trends.Clear()
}
