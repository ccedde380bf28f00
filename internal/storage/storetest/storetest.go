// Package storetest holds the behavioural contract every storage.Store must satisfy.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"finmate/internal/core"
	"finmate/internal/storage"
)

// Factory builds an empty store whose "today" is read from clock.
type Factory func(t *testing.T, clock storage.Clock) storage.Store

// Run executes the contract suite against stores built by factory.
func Run(t *testing.T, factory Factory) {
	suite.Run(t, &ContractSuite{factory: factory})
}

type ContractSuite struct {
	suite.Suite
	factory Factory
	now     time.Time
	store   storage.Store
	ctx     context.Context
}

func (s *ContractSuite) SetupTest() {
	s.now = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	s.ctx = context.Background()
	s.store = s.factory(s.T(), func() time.Time { return s.now })
}

func (s *ContractSuite) TearDownTest() {
	if s.store != nil {
		s.Require().NoError(s.store.Close())
	}
}

func (s *ContractSuite) insert(date, category, amount string) core.Expense {
	s.T().Helper()
	d, err := core.ParseDate(date)
	s.Require().NoError(err)
	m, err := core.ParseMoney(amount)
	s.Require().NoError(err)
	saved, err := s.store.Insert(s.ctx, core.Expense{Amount: m, Category: category, Date: d})
	s.Require().NoError(err)
	return saved
}

// seedScenario loads 2024-01-10 Food 10, 2024-01-11 Rent 100, 2024-02-01 Food 20.
func (s *ContractSuite) seedScenario() {
	s.insert("2024-01-10", "Food", "10")
	s.insert("2024-01-11", "Rent", "100")
	s.insert("2024-02-01", "Food", "20")
}

func (s *ContractSuite) TestInsertAssignsIdentityAndCreatedAt() {
	first := s.insert("2024-01-15", "Food", "10.00")
	second := s.insert("2024-01-16", "Food", "5.00")

	s.NotZero(first.ID)
	s.Greater(second.ID, first.ID)
	s.Equal("2024-06-15", first.CreatedAt.String())
	s.Equal("10.00", first.Amount.String())

	got, err := s.store.FindByID(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(first.ID, got.ID)
	s.Equal("Food", got.Category)
	s.Equal("2024-01-15", got.Date.String())
	s.Equal("2024-06-15", got.CreatedAt.String())
	s.True(got.Amount.Equal(first.Amount))
}

func (s *ContractSuite) TestAmountPrecisionAndNoteRoundTrip() {
	m, err := core.ParseMoney("12345.67")
	s.Require().NoError(err)
	saved, err := s.store.Insert(s.ctx, core.Expense{
		Amount: m, Category: "Travel", Note: "train to Turin", Date: core.NewDate(2024, 3, 1),
	})
	s.Require().NoError(err)

	got, err := s.store.FindByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.Equal("12345.67", got.Amount.String())
	s.Equal("train to Turin", got.Note)

	plain := s.insert("2024-03-02", "Travel", "0")
	got, err = s.store.FindByID(s.ctx, plain.ID)
	s.Require().NoError(err)
	s.Empty(got.Note)
	s.Equal("0.00", got.Amount.String())
}

func (s *ContractSuite) TestFindByIDMissing() {
	_, err := s.store.FindByID(s.ctx, 999)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *ContractSuite) TestFindAll() {
	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.NotNil(all)
	s.Empty(all)

	s.seedScenario()
	all, err = s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *ContractSuite) TestUpdatePreservesCreatedAt() {
	saved := s.insert("2024-01-15", "Food", "10")

	s.now = s.now.AddDate(0, 0, 3)
	m, _ := core.ParseMoney("99")
	updated, err := s.store.Update(s.ctx, core.Expense{
		ID: saved.ID, Amount: m, Category: "Rent", Note: "moved", Date: core.NewDate(2024, 1, 20),
	})
	s.Require().NoError(err)
	s.Equal(saved.ID, updated.ID)
	s.Equal("2024-06-15", updated.CreatedAt.String())

	got, err := s.store.FindByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.Equal("99.00", got.Amount.String())
	s.Equal("Rent", got.Category)
	s.Equal("moved", got.Note)
	s.Equal("2024-01-20", got.Date.String())
	s.Equal(saved.CreatedAt.String(), got.CreatedAt.String())
}

func (s *ContractSuite) TestUpdateMissingDoesNotInsert() {
	_, err := s.store.Update(s.ctx, core.Expense{
		ID: 42, Amount: core.MoneyFromCents(100), Category: "Food", Date: core.NewDate(2024, 1, 1),
	})
	s.ErrorIs(err, storage.ErrNotFound)

	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *ContractSuite) TestDeleteByID() {
	saved := s.insert("2024-01-15", "Food", "10")

	s.Require().NoError(s.store.DeleteByID(s.ctx, saved.ID))
	_, err := s.store.FindByID(s.ctx, saved.ID)
	s.ErrorIs(err, storage.ErrNotFound)

	s.ErrorIs(s.store.DeleteByID(s.ctx, saved.ID), storage.ErrNotFound)
	s.ErrorIs(s.store.DeleteByID(s.ctx, 12345), storage.ErrNotFound)
}

func (s *ContractSuite) TestIDsAreNotReused() {
	first := s.insert("2024-01-15", "Food", "10")
	s.Require().NoError(s.store.DeleteByID(s.ctx, first.ID))
	second := s.insert("2024-01-15", "Food", "10")
	s.Greater(second.ID, first.ID)
}

func (s *ContractSuite) TestFindByCategoryIsExact() {
	s.seedScenario()
	s.insert("2024-01-12", "food", "1")
	s.insert("2024-01-12", " Food", "1")

	got, err := s.store.FindByCategory(s.ctx, "Food")
	s.Require().NoError(err)
	s.Len(got, 2)
	for _, e := range got {
		s.Equal("Food", e.Category)
	}

	none, err := s.store.FindByCategory(s.ctx, "Nothing")
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *ContractSuite) TestFindByDateBetween() {
	s.seedScenario()
	s.insert("2024-01-31", "Food", "3")

	got, err := s.store.FindByDateBetween(s.ctx, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal("2024-01-31", got[0].Date.String())
	s.Equal("2024-01-11", got[1].Date.String())
	s.Equal("2024-01-10", got[2].Date.String())

	// Inclusive on both ends.
	got, err = s.store.FindByDateBetween(s.ctx, core.NewDate(2024, 1, 11), core.NewDate(2024, 2, 1))
	s.Require().NoError(err)
	s.Len(got, 3)
	for i := 1; i < len(got); i++ {
		s.False(got[i].Date.After(got[i-1].Date), "dates must be non-increasing")
	}

	empty, err := s.store.FindByDateBetween(s.ctx, core.NewDate(2024, 2, 1), core.NewDate(2024, 1, 1))
	s.Require().NoError(err)
	s.NotNil(empty)
	s.Empty(empty)
}

func (s *ContractSuite) TestFindByYearAndMonth() {
	s.seedScenario()
	s.insert("2024-01-31", "Food", "3")
	s.insert("2023-01-15", "Food", "3")

	jan, err := s.store.FindByYearAndMonth(s.ctx, 2024, 1)
	s.Require().NoError(err)
	s.Len(jan, 3)
	for _, e := range jan {
		s.Equal(2024, e.Date.Year())
		s.Equal(1, e.Date.MonthNumber())
	}

	feb, err := s.store.FindByYearAndMonth(s.ctx, 2024, 2)
	s.Require().NoError(err)
	s.Len(feb, 1)

	_, err = s.store.FindByYearAndMonth(s.ctx, 2024, 13)
	s.ErrorIs(err, core.ErrInvalidMonth)
}

func (s *ContractSuite) TestLastMonthOfYear9999() {
	s.insert("9999-12-01", "Food", "1")
	s.insert("9999-12-31", "Food", "2")
	s.insert("9999-11-30", "Rent", "4")

	rows, err := s.store.FindByYearAndMonth(s.ctx, 9999, 12)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal("9999-12-01", rows[0].Date.String())
	s.Equal("9999-12-31", rows[1].Date.String())

	summary, err := s.store.MonthlySummaryByCategory(s.ctx, 9999, 12)
	s.Require().NoError(err)
	s.Require().Len(summary, 1)
	s.Equal("Food", summary[0].Category)
	s.Equal("3.00", summary[0].Total.String())
}

func (s *ContractSuite) TestMonthlySummaryByCategory() {
	s.seedScenario()

	got, err := s.store.MonthlySummaryByCategory(s.ctx, 2024, 1)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Rent", got[0].Category)
	s.Equal("100.00", got[0].Total.String())
	s.Equal("Food", got[1].Category)
	s.Equal("10.00", got[1].Total.String())

	empty, err := s.store.MonthlySummaryByCategory(s.ctx, 2030, 1)
	s.Require().NoError(err)
	s.NotNil(empty)
	s.Empty(empty)
}

func (s *ContractSuite) TestMonthlySummaryAddsUpToMonthTotal() {
	for i, amount := range []string{"10.10", "0.05", "7.33", "120", "0.01", "42.42"} {
		category := []string{"Food", "Rent", "Fun"}[i%3]
		s.insert("2024-03-0"+string(rune('1'+i)), category, amount)
	}

	summary, err := s.store.MonthlySummaryByCategory(s.ctx, 2024, 3)
	s.Require().NoError(err)
	sum := core.Money{}
	for i, row := range summary {
		sum = sum.Add(row.Total)
		if i > 0 {
			s.True(row.Total.Decimal().LessThanOrEqual(summary[i-1].Total.Decimal()), "sorted by total desc")
		}
	}

	rows, err := s.store.FindByYearAndMonth(s.ctx, 2024, 3)
	s.Require().NoError(err)
	want := core.Money{}
	for _, e := range rows {
		want = want.Add(e.Amount)
	}
	s.Equal(want.String(), sum.String())
	s.Equal("179.91", sum.String())
}

func (s *ContractSuite) TestMonthlyTotals() {
	s.seedScenario()
	s.insert("2023-12-31", "Food", "1.50")

	got, err := s.store.MonthlyTotals(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal([2]int{2023, 12}, [2]int{got[0].Year, got[0].Month})
	s.Equal("1.50", got[0].Total.String())
	s.Equal([2]int{2024, 1}, [2]int{got[1].Year, got[1].Month})
	s.Equal("110.00", got[1].Total.String())
	s.Equal([2]int{2024, 2}, [2]int{got[2].Year, got[2].Month})
	s.Equal("20.00", got[2].Total.String())
}

func (s *ContractSuite) TestPing() {
	require.NoError(s.T(), s.store.Ping(s.ctx))
}
