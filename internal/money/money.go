// Package money provides a fixed-point monetary value type.
//
// Amounts are held as integer minor units (cents). Multiplication by a
// quantity or percentage runs through a decimal intermediate and is rounded
// back to minor units exactly once, when a total is finalized. Binary
// floating point is never used for stored amounts.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in integer minor units (cents).
type Money int64

var hundred = decimal.NewFromInt(100)

func (m Money) Add(x Money) Money { return m + x }

func (m Money) Sub(x Money) Money { return m - x }

func (m Money) Neg() Money { return -m }

func (m Money) IsNegative() bool { return m < 0 }

func (m Money) IsZero() bool { return m == 0 }

// Decimal returns the exact amount in minor units as a decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

// Mul multiplies the amount by a rational factor (quantity) and returns the
// unrounded intermediate in minor units.
func (m Money) Mul(factor decimal.Decimal) decimal.Decimal {
	return m.Decimal().Mul(factor)
}

// Percent applies pct (0-100) to a minor-unit intermediate without rounding.
func Percent(base decimal.Decimal, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// FromDecimal rounds a minor-unit intermediate to the nearest minor unit,
// half away from zero. This is the single point where precision is dropped.
func FromDecimal(d decimal.Decimal) Money {
	return Money(d.Round(0).IntPart())
}

// String renders the amount as major.minor, e.g. 188.10 for 18810 cents.
// Presentation formatting with currency symbols lives in internal/currency.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
