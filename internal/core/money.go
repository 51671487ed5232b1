// Package core provides money parsing and handling utilities.
//
// Amounts are decimal values with two fractional digits. They travel to and
// from the finance API as bare JSON numbers and are entered in forms with
// either a dot (12.34) or a comma (12,34) decimal separator.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount in the user's currency.
type Money struct {
	Amount decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// NewMoney wraps d rounded to cents.
func NewMoney(d decimal.Decimal) Money {
	return Money{Amount: d.Round(2)}
}

// MoneyFromCents builds an amount from an integer number of cents.
func MoneyFromCents(cents int64) Money {
	return Money{Amount: decimal.New(cents, -2)}
}

// ParseMoney parses a strictly positive amount.
//
// It accepts both dot and comma decimal separators and rounds half-up to
// cents. Signs, thousands separators, zero and garbage are rejected.
//
// Examples:
//
//	ParseMoney("12.34")  -> 12.34
//	ParseMoney("12,345") -> 12.35
func ParseMoney(s string) (Money, error) {
	m, err := parseAmount(s)
	if err != nil {
		return Money{}, err
	}
	if !m.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseMoneyAllowZero is ParseMoney that also accepts zero.
func ParseMoneyAllowZero(s string) (Money, error) {
	m, err := parseAmount(s)
	if err != nil {
		return Money{}, err
	}
	if m.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

func parseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 || strings.ContainsAny(s, "eE_ ") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return NewMoney(d), nil
}

// Cents returns the amount as an integer number of cents.
func (m Money) Cents() int64 {
	return m.Amount.Mul(hundred).Round(0).IntPart()
}

func (m Money) Add(o Money) Money { return Money{Amount: m.Amount.Add(o.Amount)} }
func (m Money) Sub(o Money) Money { return Money{Amount: m.Amount.Sub(o.Amount)} }
func (m Money) Neg() Money        { return Money{Amount: m.Amount.Neg()} }
func (m Money) Abs() Money        { return Money{Amount: m.Amount.Abs()} }

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Cmp compares m and o (-1, 0, +1).
func (m Money) Cmp(o Money) int {
	return m.Amount.Cmp(o.Amount)
}

// Percent returns m as a percentage of total, rounded to one decimal.
// A non-positive total yields zero.
func (m Money) Percent(total Money) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return m.Amount.Div(total.Amount).Mul(hundred).Round(1)
}

// Validate reports whether m is a usable strictly positive amount.
func (m Money) Validate() error {
	if !m.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// String formats with two decimals, e.g. "1234.50".
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

// MarshalJSON writes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Amount.StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string or null.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			*m = Money{}
			return nil
		}
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return ErrInvalidAmount
	}
	m.Amount = d
	return nil
}
