// Package writer renders extraction output for export.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
	"github.com/insightdelivered/portfolio-extractor/internal/money"
)

// CSVWriter writes extracted transactions as CSV, one row per cash or
// position posting. With IncludeHeader the newly discovered securities are
// listed as comment rows above the column header.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the items to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, items []models.Item) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, items)
}

// Write writes the items in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, items []models.Item) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()

	if w.IncludeHeader {
		for _, item := range items {
			si, ok := item.(*models.SecurityItem)
			if !ok {
				continue
			}
			row := []string{"# Security", si.Security.Name, si.Security.ISIN, si.Security.WKN, si.Security.Currency}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV header: %w", err)
			}
		}
		header := []string{"Date", "Type", "Security", "ISIN", "WKN", "Shares", "Currency", "Amount", "Gross", "Taxes", "Fees", "Note", "Source"}
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, item := range items {
		for _, row := range rowsFor(item) {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}
	return nil
}

func rowsFor(item models.Item) [][]string {
	switch it := item.(type) {
	case *models.TransactionItem:
		if it.Account != nil {
			return [][]string{accountRow(it.Account)}
		}
		if it.Portfolio != nil {
			return [][]string{portfolioRow(it.Portfolio)}
		}
	case *models.BuySellEntryItem:
		return [][]string{portfolioRow(&it.Entry.Portfolio)}
	}
	// securities surface inline on their transactions
	return nil
}

func accountRow(t *models.AccountTransaction) []string {
	return row(t.Date.Format("2006-01-02"), string(t.Type), t.Security, t.Shares,
		t.Amount, t.GrossValue(), t.UnitSum(models.UnitTax), t.UnitSum(models.UnitFee),
		t.Note, t.Source)
}

func portfolioRow(t *models.PortfolioTransaction) []string {
	return row(t.Date.Format("2006-01-02"), string(t.Type), t.Security, t.Shares,
		t.Amount, t.GrossValue(), t.UnitSum(models.UnitTax), t.UnitSum(models.UnitFee),
		t.Note, t.Source)
}

func row(date, typ string, sec *models.Security, shares money.Shares, amount, gross, taxes, fees money.Money, note, source string) []string {
	name, isin, wkn := "", "", ""
	if sec != nil {
		name, isin, wkn = sec.Name, sec.ISIN, sec.WKN
	}
	sharesText := ""
	if !shares.IsZero() {
		sharesText = shares.String()
	}
	return []string{
		date, typ, name, isin, wkn, sharesText,
		amount.Currency,
		formatAmount(amount),
		formatAmount(gross),
		formatAmount(taxes),
		formatAmount(fees),
		note, source,
	}
}

func formatAmount(m money.Money) string {
	if m.IsZero() {
		return ""
	}
	return decimal.New(m.Amount, -2).StringFixed(2)
}
