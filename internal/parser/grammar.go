// Package parser holds the per-bank grammar tables and the engine that
// matches them against linearized statement text. A grammar is a pure
// function from a text block to either a named-field capture map or
// "not applicable"; no interpretation of field text happens here beyond
// the typed assembly step each grammar carries.
package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
)

// Fields is the capture map produced by a matched grammar. Keys are the
// named groups of the grammar's section patterns; values are raw text.
type Fields map[string]string

// Section is an anchored sequence of line patterns. All patterns must match
// consecutive lines somewhere in the block; named captures of every line are
// collected. Optional sections that do not match are skipped silently.
type Section struct {
	Optional bool
	Lines    []*regexp.Regexp
}

// match scans the block for the section's line sequence and merges captures
// into f. It reports whether the section matched.
func (s Section) match(block []string, f Fields) bool {
	for start := 0; start+len(s.Lines) <= len(block); start++ {
		if !s.Lines[0].MatchString(block[start]) {
			continue
		}
		ok := true
		for i := 1; i < len(s.Lines); i++ {
			if !s.Lines[i].MatchString(block[start+i]) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for i, re := range s.Lines {
			capture(re, block[start+i], f)
		}
		return true
	}
	return false
}

func capture(re *regexp.Regexp, line string, f Fields) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return
	}
	for i, name := range re.SubexpNames() {
		if name != "" && m[i] != "" {
			f[name] = m[i]
		}
	}
}

// firstFieldName names the section for MissingFieldError reporting.
func (s Section) firstFieldName() string {
	for _, re := range s.Lines {
		for _, name := range re.SubexpNames() {
			if name != "" {
				return name
			}
		}
	}
	return ""
}

// Grammar is one rule set of a document-type family. Grammars are tried in
// registration order; the first whose anchor and all required sections match
// wins. Assemble converts the captures into typed items; it owns all field
// parsing and reconciliation for its family.
type Grammar struct {
	Family   string
	Anchor   *regexp.Regexp
	Sections []Section
	Assemble func(doc models.Document, f Fields) ([]models.Item, error)
}

// match runs the grammar against a block. Outcomes: (fields, nil) on a full
// match; (nil, nil) when the anchor is absent (not applicable); (nil, err)
// when the anchor matched but a required section did not.
func (g *Grammar) match(block []string) (Fields, error) {
	anchored := false
	for _, line := range block {
		if g.Anchor.MatchString(line) {
			anchored = true
			break
		}
	}
	if !anchored {
		return nil, nil
	}

	f := make(Fields)
	for _, sec := range g.Sections {
		if sec.match(block, f) {
			continue
		}
		if sec.Optional {
			continue
		}
		return nil, &models.MissingFieldError{Family: g.Family, Field: sec.firstFieldName()}
	}
	return f, nil
}

// DocumentType groups the grammars of one document-type family together with
// the markers that segment a document into repeatable blocks. Context
// sections run once against the whole document; their captures seed every
// block's field map (e.g. a statement date printed above the positions).
type DocumentType struct {
	Name       string
	Match      *regexp.Regexp
	BlockBegin *regexp.Regexp
	Context    []Section
	Grammars   []*Grammar
}

// segment splits the document lines into blocks, each starting at a line
// matching BlockBegin and running to the next such line.
func (dt *DocumentType) segment(lines []string) [][]string {
	var blocks [][]string
	start := -1
	for i, line := range lines {
		if dt.BlockBegin.MatchString(line) {
			if start >= 0 {
				blocks = append(blocks, lines[start:i])
			}
			start = i
		}
	}
	if start >= 0 {
		blocks = append(blocks, lines[start:])
	}
	return blocks
}

// Bank bundles the sanity-check anchors and document types of one bank.
type Bank struct {
	ID          models.BankID
	Label       string
	Identifiers []string
	DocTypes    []*DocumentType
}

// Supports runs the sanity check: at least one bank-identifying anchor must
// be present in the document text.
func (b *Bank) Supports(text string) bool {
	for _, id := range b.Identifiers {
		if strings.Contains(text, id) {
			return true
		}
	}
	return false
}

// Extract runs all applicable document types over the document and returns
// the produced items plus block-level errors. A failed block never
// suppresses the other blocks of the same document.
func (b *Bank) Extract(doc models.Document) ([]models.Item, []error) {
	if !b.Supports(doc.Text) {
		return nil, []error{&models.UnsupportedDocumentError{
			Source: doc.Source,
			Bank:   b.Label,
			Reason: "bank identifier not found",
		}}
	}

	lines := splitLines(doc.Text)
	var items []models.Item
	var errs []error
	applicable := false

	for _, dt := range b.DocTypes {
		if !dt.Match.MatchString(doc.Text) {
			continue
		}
		applicable = true

		context := make(Fields)
		for _, sec := range dt.Context {
			sec.match(lines, context)
		}

		for _, block := range dt.segment(lines) {
			blockItems, err := dt.parseBlock(doc, block, context)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			items = append(items, blockItems...)
		}
	}

	if !applicable {
		return nil, []error{&models.UnsupportedDocumentError{
			Source: doc.Source,
			Bank:   b.Label,
			Reason: "cannot determine document type",
		}}
	}
	return items, errs
}

// parseBlock tries the family's grammars in priority order. The first full
// match wins; a block none of the grammars claim fails with a
// MissingFieldError naming the family.
func (dt *DocumentType) parseBlock(doc models.Document, block []string, context Fields) ([]models.Item, error) {
	var firstMiss error
	for _, g := range dt.Grammars {
		f, err := g.match(block)
		if err != nil {
			if firstMiss == nil {
				firstMiss = err
			}
			continue
		}
		if f == nil {
			continue
		}
		for k, v := range context {
			if _, set := f[k]; !set {
				f[k] = v
			}
		}
		return g.Assemble(doc, f)
	}
	if firstMiss != nil {
		return nil, firstMiss
	}
	return nil, &models.MissingFieldError{Family: dt.Name}
}

func splitLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return lines
}
