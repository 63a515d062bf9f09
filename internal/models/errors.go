package models

import (
	"fmt"

	"github.com/insightdelivered/portfolio-extractor/internal/money"
)

// UnsupportedDocumentError means the whole document was rejected: the
// bank's sanity-check anchors are absent or no document type applies.
// The document yields zero items and exactly this one error.
type UnsupportedDocumentError struct {
	Source string
	Bank   string
	Reason string
}

func (e *UnsupportedDocumentError) Error() string {
	return fmt.Sprintf("%s: document not supported by %s: %s", e.Source, e.Bank, e.Reason)
}

// MissingFieldError means a grammar matched its anchor but a required
// sub-field could not be captured. Block-level, never fatal to the batch.
type MissingFieldError struct {
	Family string
	Field  string
}

func (e *MissingFieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("no grammar of family %q matched the block", e.Family)
	}
	return fmt.Sprintf("grammar %q: required field %q not found", e.Family, e.Field)
}

// MalformedFieldError means a captured field's text cannot be parsed into
// its typed form.
type MalformedFieldError struct {
	Field string
	Text  string
	Err   error
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("field %q: cannot parse %q: %v", e.Field, e.Text, e.Err)
}

func (e *MalformedFieldError) Unwrap() error { return e.Err }

// ArithmeticMismatchError means a reconciliation invariant was violated
// beyond the one-minor-unit tolerance.
type ArithmeticMismatchError struct {
	Op   string
	Want money.Money
	Got  money.Money
}

func (e *ArithmeticMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, found %s", e.Op, e.Want, e.Got)
}

// AmbiguousSecurityMatchError means a catalogue lookup matched more than one
// distinct existing security. The priority-ordered lookup should prevent
// this; it is still surfaced rather than silently picking one.
type AmbiguousSecurityMatchError struct {
	ISIN string
	WKN  string
	Name string
}

func (e *AmbiguousSecurityMatchError) Error() string {
	return fmt.Sprintf("ambiguous security match (isin=%q wkn=%q name=%q)", e.ISIN, e.WKN, e.Name)
}

// ExtractionError is one entry of the orchestrator's error sequence.
type ExtractionError struct {
	Source string
	Err    error
}

func (e ExtractionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e ExtractionError) Unwrap() error { return e.Err }
