package parser

import (
	"fmt"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
)

// Banks returns the registered banks in probe order.
func Banks() []*Bank {
	return []*Bank{
		newDABBank(),
		newConsorsbank(),
		newDeutscheBank(),
	}
}

// Lookup returns the bank for the given identifier.
func Lookup(id models.BankID) (*Bank, error) {
	for _, b := range Banks() {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, fmt.Errorf("unsupported bank: %q", id)
}

// Detect probes the registered banks in order and returns the first whose
// sanity-check anchors appear in the text. A probe miss is not an error of
// the document; only exhausting every bank is.
func Detect(text string) (*Bank, error) {
	for _, b := range Banks() {
		if b.Supports(text) {
			return b, nil
		}
	}
	return nil, fmt.Errorf("could not detect bank from document content")
}
