package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ShareScale is the number of fractional digits carried by a share quantity.
// Fund statements quote quantities like 0.91920 or 132.80212; eight digits
// keep every observed precision exact.
const ShareScale = 8

// ShareFactor is the integer scale factor implied by ShareScale; one whole
// share equals ShareFactor.
const ShareFactor = 100_000_000

// Shares is a fixed-point share quantity scaled by 10^ShareScale.
type Shares int64

// SharesOf builds a Shares value from whole and fractional parts expressed
// as a decimal, e.g. SharesOf(decimal.RequireFromString("0.91920")).
func SharesOf(d decimal.Decimal) (Shares, error) {
	scaled := d.Shift(ShareScale)
	if scaled.Exponent() < 0 && !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("share quantity %s exceeds %d fractional digits", d, ShareScale)
	}
	return Shares(scaled.IntPart()), nil
}

// Decimal returns the quantity as an exact decimal.
func (s Shares) Decimal() decimal.Decimal {
	return decimal.New(int64(s), -ShareScale)
}

// IsZero reports whether the quantity is zero.
func (s Shares) IsZero() bool {
	return s == 0
}

// String renders the quantity trimmed of trailing zeros, e.g. "0.9192".
func (s Shares) String() string {
	return s.Decimal().String()
}
