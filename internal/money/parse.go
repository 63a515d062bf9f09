package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal converts locale-formatted decimal text into an exact decimal.
// It accepts the German convention ("1.234,56", "150,00") as well as plain
// dotted decimals ("1234.56"), an optional leading or trailing minus sign
// ("13,01-" appears on DAB settlement lines), and stray whitespace.
func ParseDecimal(s string) (decimal.Decimal, error) {
	orig := s
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	neg := false
	if strings.HasSuffix(s, "-") {
		neg = true
		s = strings.TrimSuffix(s, "-")
	}
	if strings.HasPrefix(s, "-") {
		neg = !neg
		s = strings.TrimPrefix(s, "-")
	}
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty decimal %q", orig)
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		// the rightmost separator is the decimal point
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.Replace(s, ",", ".", 1)
	case hasDot:
		// a lone dot followed by exactly three digits is German grouping
		// ("1.000"); anything else is a decimal point
		idx := strings.LastIndex(s, ".")
		if len(s)-idx-1 == 3 && strings.Count(s, ".") == 1 && idx >= 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("malformed decimal %q", orig)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// ParseAmount converts locale-formatted amount text into Money in the given
// currency. Amounts with more than two fractional digits are rounded half-up
// on the minor unit.
func ParseAmount(currency, s string) (Money, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Currency: currency, Amount: d.Shift(2).Round(0).IntPart()}, nil
}

// ParseShares converts locale-formatted quantity text into a fixed-point
// share quantity, preserving all given fractional digits.
func ParseShares(s string) (Shares, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	return SharesOf(d)
}

// ParseRate converts locale-formatted exchange-rate text into an exact
// decimal. Rates keep every given fractional digit (DAB quotes six).
func ParseRate(s string) (decimal.Decimal, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("exchange rate %q is not positive", s)
	}
	return d, nil
}
