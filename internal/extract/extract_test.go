package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
	"github.com/insightdelivered/portfolio-extractor/internal/resolver"
)

const dabBuy = `DAB Bank AG
Kauf Kommissionsgeschäft
Gattungsbezeichnung ISIN
ARERO - Der Weltfonds Inhaber-Anteile o.N. LU0360863863
Nominal Kurs
STK 0,91920 EUR 163,1800
Handelstag 06.01.2015 Kurswert EUR 150,00
Abrechnungs-Nr. 9090909090
08.01.2015 8022574001 EUR 150,00
`

const consorsBuy = `Consorsbank
KAUF AM 15.01.2015  UM 08:13:35 IN AUSSERBOERSLICH NR.12345678.001
Wertpapier WKN ISIN
COMS.-MSCI WORL.T.U.ETF I ETF110 LU0392494562
Einheit Umsatz
ST 132,80212
Wert 19.01.2015 EUR 5.000,00
`

func countSecurities(items []models.Item) int {
	n := 0
	for _, it := range items {
		if _, ok := it.(*models.SecurityItem); ok {
			n++
		}
	}
	return n
}

// A batch keeps going past a document nothing claims; the failed document
// contributes exactly one attributed error.
func TestExtractPartialFailure(t *testing.T) {
	e := New(nil)
	docs := []models.Document{
		{Text: dabBuy, Source: "a.pdf"},
		{Text: "Quarterly newsletter, nothing to see here.\n", Source: "b.pdf"},
		{Text: consorsBuy, Source: "c.pdf"},
	}
	items, errs := e.Extract(context.Background(), docs)

	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %d: %v", len(errs), errs)
	}
	if errs[0].Source != "b.pdf" {
		t.Errorf("error source = %q, want b.pdf", errs[0].Source)
	}
	if len(items) != 4 {
		t.Fatalf("want 4 items, got %d", len(items))
	}
	if countSecurities(items) != 2 {
		t.Errorf("want 2 securities, got %d", countSecurities(items))
	}
}

// Feeding the same document twice against one catalogue must not mint a
// second security; the repeat run's transactions reference the canonical
// instance of the first run.
func TestExtractIdempotentSecurities(t *testing.T) {
	cat := resolver.NewMemoryCatalogue()
	e := New(cat)
	doc := models.Document{Text: dabBuy, Source: "a.pdf"}

	first, errs := e.Extract(context.Background(), []models.Document{doc})
	if len(errs) != 0 {
		t.Fatalf("first run: %v", errs)
	}
	if countSecurities(first) != 1 {
		t.Fatalf("first run: want 1 security, got %d", countSecurities(first))
	}
	canonical := first[0].(*models.SecurityItem).Security

	second, errs := e.Extract(context.Background(), []models.Document{doc})
	if len(errs) != 0 {
		t.Fatalf("second run: %v", errs)
	}
	if countSecurities(second) != 0 {
		t.Errorf("second run: want 0 securities, got %d", countSecurities(second))
	}
	for _, it := range second {
		if sec := it.ItemSecurity(); sec != nil && sec != canonical {
			t.Errorf("item %T references %p, want canonical %p", it, sec, canonical)
		}
	}
	if len(cat.Securities()) != 1 {
		t.Errorf("catalogue holds %d securities, want 1", len(cat.Securities()))
	}
}

// Within one batch every mention of an ISIN collapses onto one security,
// regardless of which document's goroutine finishes first.
func TestExtractConcurrentDedup(t *testing.T) {
	e := New(nil, WithWorkers(8))
	docs := make([]models.Document, 8)
	for i := range docs {
		docs[i] = models.Document{Text: dabBuy, Source: "doc.pdf"}
	}
	items, errs := e.Extract(context.Background(), docs)
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if got := countSecurities(items); got != 1 {
		t.Errorf("want 1 security, got %d", got)
	}

	var canonical *models.Security
	for _, it := range items {
		sec := it.ItemSecurity()
		if sec == nil {
			continue
		}
		if canonical == nil {
			canonical = sec
		} else if sec != canonical {
			t.Fatal("transactions reference different security instances")
		}
	}
	if canonical == nil || canonical.ISIN != "LU0360863863" {
		t.Errorf("canonical = %+v", canonical)
	}
}

// An explicit bank hint skips probing; a wrong hint surfaces as an
// unsupported-document error rather than a misparse.
func TestExtractBankHint(t *testing.T) {
	e := New(nil)

	items, errs := e.Extract(context.Background(), []models.Document{
		{Text: dabBuy, Source: "a.pdf", Bank: models.BankDAB},
	})
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if len(items) != 2 {
		t.Errorf("want 2 items, got %d", len(items))
	}

	_, errs = e.Extract(context.Background(), []models.Document{
		{Text: dabBuy, Source: "a.pdf", Bank: models.BankConsorsbank},
	})
	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %d", len(errs))
	}
	if !strings.Contains(errs[0].Error(), "a.pdf") {
		t.Errorf("error not attributed to source: %v", errs[0])
	}
}

// A contradictory catalogue match during resolution must not cost the batch:
// the ambiguous document's items pass through unresolved with one attributed
// error, and the clean document resolves as usual.
func TestExtractAmbiguousSecurityKeepsBatch(t *testing.T) {
	byISIN := models.NewSecurity("LU0392494562", "", "COMS.-MSCI WORL.T.U.ETF I", "EUR")
	byWKN := models.NewSecurity("", "ETF110", "COMSTAGE MSCI WORLD", "EUR")
	e := New(resolver.NewMemoryCatalogue(byISIN, byWKN))

	docs := []models.Document{
		{Text: consorsBuy, Source: "a.pdf"},
		{Text: dabBuy, Source: "b.pdf"},
	}
	items, errs := e.Extract(context.Background(), docs)

	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %d: %v", len(errs), errs)
	}
	var ambErr *models.AmbiguousSecurityMatchError
	if !errors.As(errs[0].Err, &ambErr) {
		t.Fatalf("got %T: %v", errs[0].Err, errs[0].Err)
	}
	if errs[0].Source != "a.pdf" {
		t.Errorf("error source = %q, want a.pdf", errs[0].Source)
	}
	if len(items) != 4 {
		t.Fatalf("want 4 items, got %d", len(items))
	}
	if countSecurities(items) != 2 {
		t.Errorf("want 2 securities, got %d", countSecurities(items))
	}
}

// A cancelled context stops feeding documents; the cutoff is noted once for
// the whole batch, not once per unfed document.
func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(nil)
	docs := []models.Document{
		{Text: dabBuy, Source: "a.pdf"},
		{Text: dabBuy, Source: "b.pdf"},
		{Text: dabBuy, Source: "c.pdf"},
	}
	items, errs := e.Extract(ctx, docs)
	if len(items) != 0 {
		t.Errorf("want 0 items, got %d", len(items))
	}
	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %d: %v", len(errs), errs)
	}
	if !errors.Is(errs[0].Err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", errs[0].Err)
	}
}
