package writer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
	"github.com/insightdelivered/portfolio-extractor/internal/money"
)

func sampleItems() []models.Item {
	sec := models.NewSecurity("LU0360863863", "", "ARERO - Der Weltfonds", "EUR")
	entry := models.NewBuySellEntry(models.PortfolioTransaction{
		Type:     models.PortfolioBuy,
		Date:     time.Date(2015, time.January, 6, 0, 0, 0, 0, time.UTC),
		Security: sec,
		Shares:   money.Shares(91920000),
		Amount:   money.New("EUR", 15000),
		Note:     "Abrechnungs-Nr. 9090909090",
		Source:   "Kauf.pdf",
	})
	dividend := &models.AccountTransaction{
		Type:     models.AccountDividends,
		Date:     time.Date(2015, time.June, 29, 0, 0, 0, 0, time.UTC),
		Security: sec,
		Shares:   money.Shares(100 * money.ShareFactor),
		Amount:   money.New("EUR", 32600),
		Source:   "Dividende.pdf",
	}
	return []models.Item{
		&models.SecurityItem{Security: sec},
		&models.BuySellEntryItem{Entry: entry},
		&models.TransactionItem{Account: dividend},
	}
}

func TestCSVWrite(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	if err := w.Write(&buf, sampleItems()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("want security row + header + 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if want := "# Security,ARERO - Der Weltfonds,LU0360863863,,EUR"; lines[0] != want {
		t.Errorf("security row = %q\n          want %q", lines[0], want)
	}
	if !strings.HasPrefix(lines[1], "Date,Type,Security") {
		t.Errorf("header = %q", lines[1])
	}
	if want := "2015-01-06,BUY,ARERO - Der Weltfonds,LU0360863863,,0.9192,EUR,150.00,150.00,,,Abrechnungs-Nr. 9090909090,Kauf.pdf"; lines[2] != want {
		t.Errorf("row 1 = %q\n     want %q", lines[2], want)
	}
	if want := "2015-06-29,DIVIDENDS,ARERO - Der Weltfonds,LU0360863863,,100,EUR,326.00,326.00,,,,Dividende.pdf"; lines[3] != want {
		t.Errorf("row 2 = %q\n     want %q", lines[3], want)
	}
}

func TestCSVWriteNoHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{}
	if err := w.Write(&buf, sampleItems()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 rows, got %d", len(lines))
	}
}
