// Package money provides an exact decimal amount type for monetary values.
// Amounts are never represented as binary floats internally, so sums like
// 4.99 * 2 come out as exactly 9.98.
package money

import (
	"database/sql/driver"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. The zero value is 0.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// New builds an amount from an integer number of currency units.
func New(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

// FromString parses a decimal string such as "4.99".
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustParse is FromString for literals in tests and seed data. It panics on
// malformed input.
func MustParse(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromFloat converts a float64 amount. NaN and infinities are rejected so
// callers never smuggle a non-finite value into arithmetic.
func FromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, fmt.Errorf("money: non-finite amount %v", f)
	}
	return Money{d: decimal.NewFromFloat(f)}, nil
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// MulQty multiplies the amount by an integer quantity.
func (m Money) MulQty(qty int) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(int64(qty)))}
}

func (m Money) Equal(o Money) bool       { return m.d.Equal(o.d) }
func (m Money) LessThan(o Money) bool    { return m.d.LessThan(o.d) }
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }
func (m Money) GTE(o Money) bool         { return m.d.GreaterThanOrEqual(o.d) }
func (m Money) LTE(o Money) bool         { return m.d.LessThanOrEqual(o.d) }
func (m Money) IsNegative() bool         { return m.d.IsNegative() }
func (m Money) IsZero() bool             { return m.d.IsZero() }

// Round2 rounds to two decimal places, half away from zero.
func (m Money) Round2() Money { return Money{d: m.d.Round(2)} }

// String renders the amount with at least two decimal places.
func (m Money) String() string { return m.d.StringFixed(2) }

// Float64 returns the closest float64 representation. Intended for report
// aggregates and JSON-facing summaries only, never for arithmetic.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// MarshalJSON renders the amount as a JSON number with two decimal places.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.StringFixed(2)), nil
}

// UnmarshalJSON accepts both JSON numbers and numeric strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("money: unmarshal %s: %w", data, err)
	}
	m.d = d
	return nil
}

// Value implements driver.Valuer so amounts bind to NUMERIC columns as text.
func (m Money) Value() (driver.Value, error) {
	return m.d.String(), nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (m *Money) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("money: scan %v: %w", src, err)
	}
	m.d = d
	return nil
}
