// Package core provides money parsing and handling utilities.
//
// Money is a fixed-point amount with exactly two decimal places. It is
// stored as integer cents and computed with shopspring/decimal, so no
// binary floating point is ever involved in ledger arithmetic.
package core

import (
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the ISO code used for display formatting.
const DefaultCurrency = "CNY"

var hundred = decimal.NewFromInt(100)

type Money struct {
	amount decimal.Decimal
}

// NewMoney rounds d half away from zero to the cent.
func NewMoney(d decimal.Decimal) Money {
	return Money{amount: d.Round(2)}
}

// MoneyFromCents builds an amount from integer minor units.
func MoneyFromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -2)}
}

// ParseMoney converts a decimal string to Money with half-up rounding.
//
// Both dot (12.34) and comma (12,34) separators are accepted and a leading
// sign is kept, so "-12.345" parses to -12.35.
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
	return NewMoney(d), nil
}

func (m Money) Cents() int64 {
	return m.amount.Mul(hundred).IntPart()
}

func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

func (m Money) Add(o Money) Money {
	return Money{amount: m.amount.Add(o.amount)}
}

func (m Money) Sub(o Money) Money {
	return Money{amount: m.amount.Sub(o.amount)}
}

func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg()}
}

func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs()}
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

func (m Money) Cmp(o Money) int {
	return m.amount.Cmp(o.amount)
}

func (m Money) Equal(o Money) bool {
	return m.amount.Equal(o.amount)
}

// Split returns the per-period share of m over n periods, rounded to the
// cent. The rounding remainder is not distributed.
func (m Money) Split(n int) Money {
	if n <= 0 {
		return Money{}
	}
	return NewMoney(m.amount.Div(decimal.NewFromInt(int64(n))))
}

// PercentOf returns m as a percentage of whole, rounded to one decimal.
// A zero whole yields zero.
func (m Money) PercentOf(whole Money) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return m.amount.Div(whole.amount).Mul(hundred).Round(1)
}

func (m Money) Validate() error {
	if m.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) String() string {
	return m.amount.StringFixed(2)
}

// Format renders m with the currency symbol of code, e.g. "¥15.00".
func (m Money) Format(code string) string {
	if code == "" {
		code = DefaultCurrency
	}
	return gomoney.New(m.Cents(), code).Display()
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(b))
	}
	*m = NewMoney(d)
	return nil
}
