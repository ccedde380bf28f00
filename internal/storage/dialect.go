package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the SQL flavour and driver of a repository.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "postgres"
	default:
		return "sqlite"
	}
}

func (d Dialect) IsValid() bool {
	return d == SQLite || d == Postgres
}

// rebind rewrites ? placeholders into $1, $2, ... for PostgreSQL.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// yearMonth returns expressions extracting the integer year and month of col.
func (d Dialect) yearMonth(col string) (string, string) {
	switch d {
	case Postgres:
		return fmt.Sprintf("CAST(EXTRACT(YEAR FROM %s) AS INTEGER)", col),
			fmt.Sprintf("CAST(EXTRACT(MONTH FROM %s) AS INTEGER)", col)
	default:
		return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", col),
			fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", col)
	}
}

const expenseColumns = "id, amount_cents, category, note, date, created_at"

// queries holds every statement the repository issues, already bound for one dialect.
type queries struct {
	insert            string
	findByID          string
	findAll           string
	update            string
	deleteByID        string
	findByCategory    string
	findByDateBetween string
	findInRange       string
	summaryInRange    string
	monthlyTotals     string
}

func newQueries(d Dialect) queries {
	year, month := d.yearMonth("date")
	q := queries{
		insert: `INSERT INTO expenses (amount_cents, category, note, date, created_at)
			VALUES (?, ?, ?, ?, ?) RETURNING ` + expenseColumns,
		findByID: `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`,
		findAll:  `SELECT ` + expenseColumns + ` FROM expenses ORDER BY id`,
		update: `UPDATE expenses SET amount_cents = ?, category = ?, note = ?, date = ?
			WHERE id = ? RETURNING ` + expenseColumns,
		deleteByID:     `DELETE FROM expenses WHERE id = ?`,
		findByCategory: `SELECT ` + expenseColumns + ` FROM expenses WHERE category = ? ORDER BY id`,
		findByDateBetween: `SELECT ` + expenseColumns + ` FROM expenses
			WHERE date >= ? AND date <= ? ORDER BY date DESC, id DESC`,
		findInRange: `SELECT ` + expenseColumns + ` FROM expenses
			WHERE date >= ? AND date <= ? ORDER BY date, id`,
		summaryInRange: `SELECT category, SUM(amount_cents) AS total FROM expenses
			WHERE date >= ? AND date <= ?
			GROUP BY category ORDER BY total DESC, category ASC`,
		monthlyTotals: `SELECT ` + year + ` AS y, ` + month + ` AS m, SUM(amount_cents) AS total
			FROM expenses GROUP BY y, m ORDER BY y, m`,
	}
	for _, s := range []*string{
		&q.insert, &q.findByID, &q.findAll, &q.update, &q.deleteByID, &q.findByCategory,
		&q.findByDateBetween, &q.findInRange, &q.summaryInRange, &q.monthlyTotals,
	} {
		*s = d.rebind(*s)
	}
	return q
}
