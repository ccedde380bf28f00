package core

import (
	"encoding/json"
	"fmt"
)

// CategoryTotal is the sum of one category's expenses within a month.
// On the wire it is the positional tuple [category, total].
type CategoryTotal struct {
	Category string
	Total    Money
}

// MonthTotal is the sum of all expenses in one calendar month.
// On the wire it is the positional tuple [year, month, total].
type MonthTotal struct {
	Year  int
	Month int // 1-12
	Total Money
}

func (c CategoryTotal) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Category, c.Total})
}

func (c *CategoryTotal) UnmarshalJSON(b []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(b, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return fmt.Errorf("category total: expected 2 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &c.Category); err != nil {
		return fmt.Errorf("category total: category: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &c.Total); err != nil {
		return fmt.Errorf("category total: total: %w", err)
	}
	return nil
}

func (m MonthTotal) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{m.Year, m.Month, m.Total})
}

func (m *MonthTotal) UnmarshalJSON(b []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(b, &tuple); err != nil {
		return err
	}
	if len(tuple) != 3 {
		return fmt.Errorf("month total: expected 3 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &m.Year); err != nil {
		return fmt.Errorf("month total: year: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &m.Month); err != nil {
		return fmt.Errorf("month total: month: %w", err)
	}
	if err := json.Unmarshal(tuple[2], &m.Total); err != nil {
		return fmt.Errorf("month total: total: %w", err)
	}
	return nil
}
