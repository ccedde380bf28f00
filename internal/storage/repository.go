package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"finmate/internal/core"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLRepository is the database/sql implementation of Store for SQLite and PostgreSQL.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	q       queries
	clock   Clock
}

var _ Store = (*SQLRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the SQLite database at dbPath and migrates it.
func NewSQLiteRepository(dbPath string, clock Clock) (*SQLRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	dsn := sqliteDSN(dbPath)

	db, err := sql.Open(SQLite.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection serialises writers; busy_timeout covers the migration connection.
	db.SetMaxOpenConns(1)

	return newSQLRepository(db, SQLite, dsn, clock)
}

// NewPostgresRepository connects to the PostgreSQL server at dsn and migrates it.
func NewPostgresRepository(dsn string, clock Clock) (*SQLRepository, error) {
	db, err := sql.Open(Postgres.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	return newSQLRepository(db, Postgres, dsn, clock)
}

func newSQLRepository(db *sql.DB, dialect Dialect, dsn string, clock Clock) (*SQLRepository, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{
		db:      db,
		dialect: dialect,
		q:       newQueries(dialect),
		clock:   clock,
	}, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (r *SQLRepository) Dialect() Dialect {
	return r.dialect
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLRepository) Insert(ctx context.Context, e core.Expense) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, r.q.insert,
		e.Amount.Cents(), e.Category, nullString(e.Note), e.Date, r.clock.Today())

	saved, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense inserted",
		"id", saved.ID,
		"amount", saved.Amount.String(),
		"category", saved.Category,
		"date", saved.Date.String())

	return saved, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id int64) (core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, r.q.findByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

func (r *SQLRepository) FindAll(ctx context.Context) ([]core.Expense, error) {
	return r.list(ctx, "list expenses", r.q.findAll)
}

func (r *SQLRepository) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, r.q.update,
		e.Amount.Cents(), e.Category, nullString(e.Note), e.Date, e.ID)

	saved, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	return saved, nil
}

func (r *SQLRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.q.deleteByID, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepository) FindByCategory(ctx context.Context, category string) ([]core.Expense, error) {
	return r.list(ctx, "list expenses by category", r.q.findByCategory, category)
}

func (r *SQLRepository) FindByDateBetween(ctx context.Context, start, end core.Date) ([]core.Expense, error) {
	if start.After(end) {
		return []core.Expense{}, nil
	}
	return r.list(ctx, "list expenses by date range", r.q.findByDateBetween, start, end)
}

func (r *SQLRepository) FindByYearAndMonth(ctx context.Context, year, month int) ([]core.Expense, error) {
	start, end, err := core.MonthRange(year, month)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, "list expenses by month", r.q.findInRange, start, end)
}

func (r *SQLRepository) MonthlySummaryByCategory(ctx context.Context, year, month int) ([]core.CategoryTotal, error) {
	start, end, err := core.MonthRange(year, month)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, r.q.summaryInRange, start, end)
	if err != nil {
		return nil, fmt.Errorf("get category sums (year=%d, month=%d): %w", year, month, err)
	}
	defer rows.Close()

	out := []core.CategoryTotal{}
	for rows.Next() {
		var (
			category string
			cents    int64
		)
		if err := rows.Scan(&category, &cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, core.CategoryTotal{Category: category, Total: core.MoneyFromCents(cents)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get category sums (year=%d, month=%d): %w", year, month, err)
	}
	return out, nil
}

func (r *SQLRepository) MonthlyTotals(ctx context.Context) ([]core.MonthTotal, error) {
	rows, err := r.db.QueryContext(ctx, r.q.monthlyTotals)
	if err != nil {
		return nil, fmt.Errorf("get monthly totals: %w", err)
	}
	defer rows.Close()

	out := []core.MonthTotal{}
	for rows.Next() {
		var (
			year, month int
			cents       int64
		)
		if err := rows.Scan(&year, &month, &cents); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		out = append(out, core.MonthTotal{Year: year, Month: month, Total: core.MoneyFromCents(cents)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get monthly totals: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) list(ctx context.Context, op, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e     core.Expense
		cents int64
		note  sql.NullString
	)
	if err := s.Scan(&e.ID, &cents, &e.Category, &note, &e.Date, &e.CreatedAt); err != nil {
		return core.Expense{}, err
	}
	e.Amount = core.MoneyFromCents(cents)
	e.Note = note.String
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
