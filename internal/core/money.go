// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Decimal conversion at the edges
// goes through shopspring/decimal so no float ever touches a balance.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents. Balances may be negative, transaction amounts may not.
type Money struct {
	Cents int64
}

// WeeksPerMonth converts between weekly and monthly budgets.
var WeeksPerMonth = decimal.RequireFromString("4.33")

var centsPerUnit = decimal.NewFromInt(100)

// Cents builds Money from an integer count of cents.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rejects more than two fractional digits instead of rounding them away.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234
//	ParseMoney("12,3")   -> 1230
//	ParseMoney("-5")     -> -500
//	ParseMoney("1.234")  -> ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal converts d to cents, failing on sub-cent precision.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if !d.Round(2).Equal(d) {
		return Money{}, fmt.Errorf("%w: at most 2 decimal places allowed", ErrInvalidAmount)
	}
	shifted := d.Mul(centsPerUnit)
	if !shifted.IsInteger() || shifted.Abs().GreaterThan(decimal.NewFromInt(1<<62)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: shifted.IntPart()}, nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Validate checks a transaction amount, which must be strictly positive.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) IsNegative() bool {
	return m.Cents < 0
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// MulRound multiplies by f and rounds to the cent, half away from zero.
func (m Money) MulRound(f decimal.Decimal) Money {
	return Money{Cents: decimal.NewFromInt(m.Cents).Mul(f).Round(0).IntPart()}
}

// DivRound divides by f and rounds to the cent, half away from zero.
func (m Money) DivRound(f decimal.Decimal) Money {
	if f.IsZero() {
		return Money{}
	}
	return Money{Cents: decimal.NewFromInt(m.Cents).Div(f).Round(0).IntPart()}
}

// MarshalJSON writes a JSON number with two fractional digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*m = Money{}
		return nil
	}
	s = strings.Trim(s, `"`)
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
