// Package money represents statement amounts as integer minor units tied to
// an ISO-4217 code. Conversions run through shopspring/decimal so rounding
// happens at cent precision rather than in binary floats, and Display defers
// to go-money's per-currency formatting tables.
package money

import (
	"fmt"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency codes the supported banks print statements in.
const (
	EUR = "EUR"
	USD = "USD"
	GBP = "GBP"
	BRL = "BRL"
	CHF = "CHF"
	JPY = "JPY"
)

// Money is an immutable amount in a single currency. A nil *Money behaves
// like zero with no currency, so generated rows can chain calls without
// guarding.
type Money struct {
	cents int64
	code  string
}

// New builds an amount from minor units. For zero-decimal currencies such as
// JPY the cents value is the whole amount.
func New(cents int64, currency string) *Money {
	return &Money{cents: cents, code: currency}
}

// NewFromFloat converts a major-unit value, rounding half away from zero at
// the currency's minor unit.
func NewFromFloat(amount float64, currency string) *Money {
	scaled := decimal.NewFromFloat(amount).Mul(decimal.New(1, fractionDigits(currency)))
	return New(scaled.Round(0).IntPart(), currency)
}

// Amount returns the value in minor units.
func (m *Money) Amount() int64 {
	if m == nil {
		return 0
	}
	return m.cents
}

// Currency returns the ISO-4217 code.
func (m *Money) Currency() string {
	if m == nil {
		return ""
	}
	return m.code
}

// IsZero reports whether the amount is zero.
func (m *Money) IsZero() bool {
	return m.Amount() == 0
}

// IsPositive reports whether the amount is above zero.
func (m *Money) IsPositive() bool {
	return m.Amount() > 0
}

// IsNegative reports whether the amount is below zero.
func (m *Money) IsNegative() bool {
	return m.Amount() < 0
}

// Negate flips the sign. Statement debits become signed expenses this way.
func (m *Money) Negate() *Money {
	return New(-m.Amount(), m.Currency())
}

// Abs returns the magnitude.
func (m *Money) Abs() *Money {
	if m.IsNegative() {
		return m.Negate()
	}
	return New(m.Amount(), m.Currency())
}

// Add sums two amounts. Currencies must match; a nil operand counts as zero.
func (m *Money) Add(other *Money) (*Money, error) {
	switch {
	case m == nil:
		return other, nil
	case other == nil:
		return m, nil
	case m.code != other.code:
		return nil, fmt.Errorf("cannot add %s to %s", other.code, m.code)
	}
	return New(m.cents+other.cents, m.code), nil
}

// Display renders the amount with its currency symbol and locale separators,
// "€1.234,56" for euros. A nil amount renders as "0.00".
func (m *Money) Display() string {
	if m == nil {
		return "0.00"
	}
	return gomoney.New(m.cents, m.code).Display()
}

// String renders the amount as a plain decimal, "1234.56", the shape
// statement files carry. Trailing zero cents are trimmed.
func (m *Money) String() string {
	return m.ToDecimal().String()
}

// ToDecimal converts to a major-unit decimal for precise arithmetic.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil {
		return decimal.Zero
	}
	return decimal.New(m.cents, -fractionDigits(m.code))
}

// fractionDigits is the currency's minor-unit scale, 2 for most codes and 0
// for JPY. Unknown codes fall back to 2.
func fractionDigits(currency string) int32 {
	if c := gomoney.GetCurrency(currency); c != nil {
		return int32(c.Fraction)
	}
	return 2
}
