package core

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the ISO-8601 calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

const (
	maxCategoryLength = 100
	maxNoteLength     = 500
)

type (
	// Date is a calendar date without time of day or zone.
	Date struct {
		time.Time
	}

	// Expense is a single recorded spending event.
	Expense struct {
		ID        int64  `json:"id"`
		Amount    Money  `json:"amount"`
		Category  string `json:"category"`
		Note      string `json:"note"`
		Date      Date   `json:"date"`
		CreatedAt Date   `json:"createdAt"`
	}
)

var (
	ErrInvalidDate     = errors.New("date must be formatted as YYYY-MM-DD")
	ErrFutureDate      = errors.New("date cannot be in the future")
	ErrInvalidMonth    = errors.New("month must be between 1 and 12")
	ErrEmptyCategory   = errors.New("category is required")
	ErrCategoryTooLong = fmt.Errorf("category too long (max %d characters)", maxCategoryLength)
	ErrNoteTooLong     = fmt.Errorf("note too long (max %d characters)", maxNoteLength)
	ErrRequired        = errors.New("is required")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// MonthRange returns the first and last day of the month, both inclusive.
// The end stays inside the month so December 9999 never formats a five-digit year.
func MonthRange(year, month int) (Date, Date, error) {
	if month < 1 || month > 12 {
		return Date{}, Date{}, ErrInvalidMonth
	}
	start := NewDate(year, month, 1)
	return start, Date{Time: start.AddDate(0, 1, -1)}, nil
}

// MonthNumber returns the month as 1..12.
func (d Date) MonthNumber() int {
	return int(d.Time.Month())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner. SQLite hands back TEXT, PostgreSQL a time.Time.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into core.Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("scan date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// ValidationErrors maps a field name to a human readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records err for field unless the field already has a message.
func (v ValidationErrors) Add(field string, err error) {
	if err == nil {
		return
	}
	if _, ok := v[field]; ok {
		return
	}
	if errors.Is(err, ErrRequired) {
		v[field] = field + " " + err.Error()
		return
	}
	v[field] = err.Error()
}

// Err returns nil when no field failed.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(category) > maxCategoryLength {
		return ErrCategoryTooLong
	}
	return nil
}

func ValidateNote(note string) error {
	if utf8.RuneCountInString(note) > maxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// ValidateDate rejects zero dates and dates after today.
func ValidateDate(d Date, today Date) error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if d.After(today) {
		return ErrFutureDate
	}
	return nil
}

// Validate checks every field constraint and reports all failures at once.
func (e Expense) Validate(today Date) error {
	errs := ValidationErrors{}
	errs.Add("amount", e.Amount.Validate())
	errs.Add("category", ValidateCategory(e.Category))
	errs.Add("note", ValidateNote(e.Note))
	errs.Add("date", ValidateDate(e.Date, today))
	return errs.Err()
}
