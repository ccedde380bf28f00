package services

import (
	"context"
	"fmt"

	"finmate/internal/core"
	"finmate/internal/storage"
)

// ExpenseService brokers calls between the HTTP layer and the Store.
type ExpenseService struct {
	storage storage.Store
}

func NewExpenseService(storage storage.Store) *ExpenseService {
	return &ExpenseService{storage: storage}
}

func (s *ExpenseService) GetAllExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.storage.FindAll(ctx)
}

func (s *ExpenseService) GetExpenseByID(ctx context.Context, id int64) (core.Expense, error) {
	return s.storage.FindByID(ctx, id)
}

func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	return s.storage.Insert(ctx, e)
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	return s.storage.Update(ctx, e)
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	return s.storage.DeleteByID(ctx, id)
}

func (s *ExpenseService) GetExpensesByCategory(ctx context.Context, category string) ([]core.Expense, error) {
	return s.storage.FindByCategory(ctx, category)
}

func (s *ExpenseService) GetExpensesByDateRange(ctx context.Context, start, end core.Date) ([]core.Expense, error) {
	return s.storage.FindByDateBetween(ctx, start, end)
}

func (s *ExpenseService) GetExpensesByMonth(ctx context.Context, year, month int) ([]core.Expense, error) {
	return s.storage.FindByYearAndMonth(ctx, year, month)
}

func (s *ExpenseService) GetMonthlySummaryByCategory(ctx context.Context, year, month int) ([]core.CategoryTotal, error) {
	return s.storage.MonthlySummaryByCategory(ctx, year, month)
}

func (s *ExpenseService) GetMonthlyTotals(ctx context.Context) ([]core.MonthTotal, error) {
	return s.storage.MonthlyTotals(ctx)
}

// Ping reports whether the backing store is reachable.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// Close releases the store.
func (s *ExpenseService) Close() error {
	if s.storage == nil {
		return nil
	}
	if err := s.storage.Close(); err != nil {
		return fmt.Errorf("close expense service: storage: %w", err)
	}
	return nil
}
