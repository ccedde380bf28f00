// Package core provides money parsing and handling utilities.
//
// Amounts are fixed-point decimals backed by shopspring/decimal. They are
// never converted to binary floating point: the wire form is a decimal
// string and storage keeps integer cents at an explicit scale of two.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits an amount may carry.
const MoneyScale = 2

var (
	ErrInvalidAmount   = errors.New("amount must be a decimal number")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrAmountPrecision = errors.New("amount must have at most 2 decimal places")
	ErrAmountTooLarge  = errors.New("amount must be less than 1000000000000")
)

var maxAmount = decimal.New(1, 12)

// Money is a non-float monetary amount.
type Money struct {
	d decimal.Decimal
}

// NewMoney wraps d without rounding.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// MoneyFromCents builds an amount from integer cents.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -MoneyScale)}
}

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Unlike
// the cents parser it replaces, it never rounds: "12.345" parses to exactly
// 12.345 and is rejected later by Validate.
//
// Examples:
//
//	ParseMoney("12.34") -> 12.34, nil
//	ParseMoney("12,34") -> 12.34, nil
//	ParseMoney("-1")    -> -1, nil (sign is checked by Validate)
//	ParseMoney("abc")   -> ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	// decimal accepts exponents; plain notation only.
	if strings.ContainsAny(s, "eE") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

// maxJSONExponent bounds exponents in JSON numbers. Anything beyond it fails Validate anyway
// and would make rescaling expensive.
const maxJSONExponent = 30

// parseJSONNumber converts an unquoted JSON number such as 12.5 or 1e2.
func parseJSONNumber(b []byte) (Money, error) {
	if !json.Valid(b) || len(b) == 0 || (b[0] != '-' && (b[0] < '0' || b[0] > '9')) {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	switch exp := d.Exponent(); {
	case exp > maxJSONExponent:
		return Money{}, ErrAmountTooLarge
	case exp < -maxJSONExponent:
		return Money{}, ErrAmountPrecision
	}
	return Money{d: d}, nil
}

// Validate enforces the non-negative, scale and magnitude constraints.
func (m Money) Validate() error {
	if m.d.IsNegative() {
		return ErrNegativeAmount
	}
	if !m.d.Equal(m.d.Truncate(MoneyScale)) {
		return ErrAmountPrecision
	}
	if m.d.GreaterThanOrEqual(maxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// Cents returns the amount as integer cents. Only meaningful for validated amounts.
func (m Money) Cents() int64 {
	return m.d.Shift(MoneyScale).IntPart()
}

func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// Decimal exposes the underlying value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// String formats with exactly two fractional digits, e.g. "15.00".
func (m Money) String() string {
	return m.d.StringFixed(MoneyScale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both a JSON string and a JSON number.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return ErrInvalidAmount
	}
	var (
		parsed Money
		err    error
	)
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		parsed, err = ParseMoney(string(b[1 : len(b)-1]))
	} else {
		parsed, err = parseJSONNumber(b)
	}
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
