package models

import (
	"github.com/google/uuid"
)

// Security identifies a traded instrument. ISIN (12 alphanumeric) is the
// primary identity, WKN (6 alphanumeric, German domestic) the secondary,
// the exact name the last resort. A security is created once and never
// mutated by the extraction core.
type Security struct {
	UUID     string `json:"uuid"`
	ISIN     string `json:"isin,omitempty"`
	WKN      string `json:"wkn,omitempty"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// NewSecurity builds a security with a fresh UUID.
func NewSecurity(isin, wkn, name, currency string) *Security {
	return &Security{
		UUID:     uuid.NewString(),
		ISIN:     isin,
		WKN:      wkn,
		Name:     name,
		Currency: currency,
	}
}

// BankID names a supported bank.
type BankID string

const (
	BankDAB          BankID = "dab"
	BankConsorsbank  BankID = "consorsbank"
	BankDeutscheBank BankID = "deutschebank"
)

// Document is one unit of extraction input: linearized statement text plus
// its originating source label. Bank is optional; when empty the
// orchestrator probes all registered banks in order.
type Document struct {
	Text   string
	Source string
	Bank   BankID
}
