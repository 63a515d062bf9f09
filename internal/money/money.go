package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an exact amount in a currency's minor unit (cents for EUR/USD).
// All arithmetic is integer; no float64 ever touches a monetary value.
type Money struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// New returns a Money of the given currency and minor-unit amount.
func New(currency string, amount int64) Money {
	return Money{Currency: currency, Amount: amount}
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Currency: currency}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// Add returns m + o. Both values must share a currency.
func (m Money) Add(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("cannot add %s to %s", o.Currency, m.Currency)
	}
	return Money{Currency: m.Currency, Amount: m.Amount + o.Amount}, nil
}

// Sub returns m - o. Both values must share a currency.
func (m Money) Sub(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("cannot subtract %s from %s", o.Currency, m.Currency)
	}
	return Money{Currency: m.Currency, Amount: m.Amount - o.Amount}, nil
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Currency: m.Currency, Amount: -m.Amount}
}

// Abs returns the amount with a non-negative sign.
func (m Money) Abs() Money {
	if m.Amount < 0 {
		return m.Neg()
	}
	return m
}

// WithinOne reports whether m and o differ by at most one minor unit.
// This is the tolerance applied at every reconciliation boundary.
func (m Money) WithinOne(o Money) bool {
	if m.Currency != o.Currency {
		return false
	}
	d := m.Amount - o.Amount
	return d >= -1 && d <= 1
}

// String renders the amount with two fractional digits, e.g. "EUR 1234.56".
func (m Money) String() string {
	sign := ""
	a := m.Amount
	if a < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s %s%d.%02d", m.Currency, sign, a/100, a%100)
}

// Convert turns a foreign-currency amount into the target currency using the
// given rate (target units per one foreign unit). The result is rounded
// half-up on the minor unit; this is the single rounding rule of the engine.
func Convert(fx Money, rate decimal.Decimal, targetCurrency string) Money {
	v := decimal.New(fx.Amount, 0).Mul(rate)
	return Money{Currency: targetCurrency, Amount: v.Round(0).IntPart()}
}

// InvertRate returns 1/rate at ten fractional digits, rounded half-up.
// Statements quote rates as "foreign per home" while units store the
// home-per-foreign direction.
func InvertRate(rate decimal.Decimal) decimal.Decimal {
	return decimal.New(1, 0).DivRound(rate, 10)
}
