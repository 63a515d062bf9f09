package parser

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
	"github.com/insightdelivered/portfolio-extractor/internal/money"
)

// German statement date format: DD.MM.YYYY, optional HH:MM trade time.
const dateLayout = "02.01.2006"

// parseDate converts "06.01.2015" into a UTC calendar date at midnight.
func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("not a date: %q", s)
	}
	return t, nil
}

// parseDateTime combines a date with an "HH:MM" trade time; an empty time
// leaves the date at midnight.
func parseDateTime(dateStr, timeStr string) (time.Time, error) {
	d, err := parseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	if timeStr == "" {
		return d, nil
	}
	t, err := time.Parse("15:04", timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("not a time of day: %q", timeStr)
	}
	return d.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}

var (
	isinPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)
	wknPattern  = regexp.MustCompile(`^[A-Z0-9]{6}$`)
)

// fieldDate resolves a required date capture (plus optional time capture)
// into a typed value, reporting block-level errors.
func (f Fields) fieldDate(family string) (time.Time, error) {
	s, ok := f["date"]
	if !ok {
		return time.Time{}, &models.MissingFieldError{Family: family, Field: "date"}
	}
	t, err := parseDateTime(s, f["time"])
	if err != nil {
		return time.Time{}, &models.MalformedFieldError{Field: "date", Text: s, Err: err}
	}
	return t, nil
}

// fieldAmount resolves a required amount capture in the given currency.
func (f Fields) fieldAmount(family, key, currency string) (money.Money, error) {
	s, ok := f[key]
	if !ok {
		return money.Money{}, &models.MissingFieldError{Family: family, Field: key}
	}
	m, err := money.ParseAmount(currency, s)
	if err != nil {
		return money.Money{}, &models.MalformedFieldError{Field: key, Text: s, Err: err}
	}
	return m, nil
}

// fieldShares resolves a required share-quantity capture.
func (f Fields) fieldShares(family string) (money.Shares, error) {
	s, ok := f["shares"]
	if !ok {
		return 0, &models.MissingFieldError{Family: family, Field: "shares"}
	}
	sh, err := money.ParseShares(s)
	if err != nil {
		return 0, &models.MalformedFieldError{Field: "shares", Text: s, Err: err}
	}
	return sh, nil
}

// fieldRate resolves a required exchange-rate capture.
func (f Fields) fieldRate(family, key string) (decimal.Decimal, error) {
	s, ok := f[key]
	if !ok {
		return decimal.Decimal{}, &models.MissingFieldError{Family: family, Field: key}
	}
	r, err := money.ParseRate(s)
	if err != nil {
		return decimal.Decimal{}, &models.MalformedFieldError{Field: key, Text: s, Err: err}
	}
	return r, nil
}

// fieldSecurity builds the security mentioned by the block. ISIN and WKN are
// validated against their fixed shapes when present; at least one identifier
// or a name must exist.
func (f Fields) fieldSecurity(family, currency string) (*models.Security, error) {
	isin, wkn, name := f["isin"], f["wkn"], f["name"]
	if isin != "" && !isinPattern.MatchString(isin) {
		return nil, &models.MalformedFieldError{Field: "isin", Text: isin, Err: fmt.Errorf("not a 12-character ISIN")}
	}
	if wkn != "" && !wknPattern.MatchString(wkn) {
		return nil, &models.MalformedFieldError{Field: "wkn", Text: wkn, Err: fmt.Errorf("not a 6-character WKN")}
	}
	if isin == "" && wkn == "" && name == "" {
		return nil, &models.MissingFieldError{Family: family, Field: "isin"}
	}
	return models.NewSecurity(isin, wkn, name, currency), nil
}
