// Package extractor linearizes PDF settlement notes into the line-oriented
// text the grammar engine consumes. Layout matters: the grammars anchor on
// whole lines, so rows must come out top-to-bottom with their words in
// left-to-right order.
package extractor

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Text reads a PDF file and returns its full text, pages separated by a
// blank line.
func Text(path string) (string, error) {
	pages, err := Pages(path)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n\n"), nil
}

// Pages reads a PDF file and returns the text of each page. Row structure
// is reconstructed from glyph coordinates when the library's row grouping
// produces unreadable output.
func Pages(path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed on %q: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %q: %w", path, err)
	}
	defer f.Close()

	n := r.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("%q has no pages", path)
	}

	pages = pagesByRow(r, n)
	if readable(pages) {
		return pages, nil
	}
	pages = pagesByContent(r, n)
	if readable(pages) {
		return pages, nil
	}
	return nil, fmt.Errorf("no readable text in %q; the file may be scanned or use undecodable font encodings", path)
}

// pagesByRow uses the library's own row grouping.
func pagesByRow(r *pdf.Reader, n int) []string {
	var pages []string
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// pagesByContent rebuilds rows from glyph coordinates: group by rounded Y,
// order rows top-to-bottom (PDF Y runs bottom-up), words left-to-right.
func pagesByContent(r *pdf.Reader, n int) []string {
	type fragment struct {
		x float64
		s string
	}
	var pages []string
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		rows := make(map[int][]fragment)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			y := int(math.Round(t.Y))
			rows[y] = append(rows[y], fragment{x: t.X, s: t.S})
		}

		ys := make([]int, 0, len(rows))
		for y := range rows {
			ys = append(ys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		var lines []string
		for _, y := range ys {
			frags := rows[y]
			sort.Slice(frags, func(a, b int) bool { return frags[a].x < frags[b].x })

			var parts []string
			var prevX float64
			for j, fr := range frags {
				if j > 0 && fr.x-prevX > 15 {
					parts = append(parts, " ")
				}
				parts = append(parts, fr.s)
				prevX = fr.x
			}
			if line := strings.TrimSpace(strings.Join(parts, "")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// statementWords are markers found on virtually every German settlement
// note or account statement; text containing none of them is treated as
// extraction garbage.
var statementWords = []string{
	"bank", "konto", "depot", "isin", "wkn", "abrechnung", "kurswert",
	"gutschrift", "wertpapier", "steuer", "auszug", "wert", "stk",
}

// readable gates extraction output: enough text, a high share of plain
// characters, and at least one statement marker word.
func readable(pages []string) bool {
	total, plain := 0, 0
	for _, p := range pages {
		for _, r := range p {
			total++
			if r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) ||
				strings.ContainsRune(".,-/:;()%&+*", r)) {
				plain++
			}
			if r == 'ä' || r == 'ö' || r == 'ü' || r == 'ß' || r == 'Ä' || r == 'Ö' || r == 'Ü' || r == '€' {
				plain++
			}
		}
	}
	if total < 50 || float64(plain)/float64(total) <= 0.6 {
		return false
	}

	combined := strings.ToLower(strings.Join(pages, " "))
	for _, w := range statementWords {
		if strings.Contains(combined, w) {
			return true
		}
	}
	return false
}
