package resolver

import (
	"testing"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
	"github.com/insightdelivered/portfolio-extractor/internal/money"
)

func itemsFor(sec *models.Security) []models.Item {
	e := models.NewBuySellEntry(models.PortfolioTransaction{
		Type:     models.PortfolioBuy,
		Security: sec,
		Amount:   money.New("EUR", 15000),
	})
	return []models.Item{
		&models.SecurityItem{Security: sec},
		&models.BuySellEntryItem{Entry: e},
	}
}

func TestResolveNewSecurity(t *testing.T) {
	cat := NewMemoryCatalogue()
	r := New(cat)

	sec := models.NewSecurity("LU0360863863", "", "ARERO", "EUR")
	out, errs := r.Resolve(itemsFor(sec))
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 items, got %d", len(out))
	}
	if cat.ByISIN("LU0360863863") != sec {
		t.Error("security not registered in the catalogue")
	}
}

func TestResolveKnownByISIN(t *testing.T) {
	known := models.NewSecurity("LU0360863863", "", "ARERO - Der Weltfonds", "EUR")
	r := New(NewMemoryCatalogue(known))

	fresh := models.NewSecurity("LU0360863863", "", "ARERO", "EUR")
	out, errs := r.Resolve(itemsFor(fresh))
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if len(out) != 1 {
		t.Fatalf("want 1 item (security suppressed), got %d", len(out))
	}
	e, ok := out[0].(*models.BuySellEntryItem)
	if !ok {
		t.Fatalf("got %T", out[0])
	}
	if e.Entry.Portfolio.Security != known {
		t.Error("entry not rewired to the known security")
	}
}

func TestResolveKnownByWKN(t *testing.T) {
	known := models.NewSecurity("DE000BASF111", "BASF11", "BASF SE", "EUR")
	r := New(NewMemoryCatalogue(known))

	fresh := models.NewSecurity("", "BASF11", "BASF", "EUR")
	out, errs := r.Resolve(itemsFor(fresh))
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if len(out) != 1 {
		t.Fatalf("want 1 item, got %d", len(out))
	}
	if out[0].ItemSecurity() != known {
		t.Error("WKN lookup did not find the known security")
	}
}

func TestResolveKnownByName(t *testing.T) {
	known := models.NewSecurity("", "", "EUWAX AG", "EUR")
	r := New(NewMemoryCatalogue(known))

	t.Run("same currency matches", func(t *testing.T) {
		out, errs := r.Resolve(itemsFor(models.NewSecurity("", "", "EUWAX AG", "EUR")))
		if len(errs) != 0 {
			t.Fatalf("errors: %v", errs)
		}
		if len(out) != 1 || out[0].ItemSecurity() != known {
			t.Error("name lookup did not find the known security")
		}
	})

	t.Run("other currency mints a new security", func(t *testing.T) {
		fresh := models.NewSecurity("", "", "EUWAX AG", "USD")
		out, errs := r.Resolve(itemsFor(fresh))
		if len(errs) != 0 {
			t.Fatalf("errors: %v", errs)
		}
		if len(out) != 2 {
			t.Fatalf("want 2 items, got %d", len(out))
		}
		if out[0].ItemSecurity() != fresh {
			t.Error("currency-mismatched name must not resolve to the known security")
		}
	})
}

// ISIN wins over WKN: a document stating both resolves against the ISIN
// entry even when another catalogue security carries the same WKN.
func TestResolvePriority(t *testing.T) {
	byISIN := models.NewSecurity("DE000BASF111", "", "BASF SE", "EUR")
	byName := models.NewSecurity("", "", "BASF SE", "EUR")
	r := New(NewMemoryCatalogue(byISIN, byName))

	fresh := models.NewSecurity("DE000BASF111", "", "BASF SE", "EUR")
	out, errs := r.Resolve(itemsFor(fresh))
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if out[0].ItemSecurity() != byISIN {
		t.Error("ISIN match must take priority over name match")
	}
}

// A contradictory catalogue match is reported once and keeps the batch: the
// affected items pass through with their parsed security, nothing is lost.
func TestResolveAmbiguous(t *testing.T) {
	a := models.NewSecurity("DE000BASF111", "", "BASF SE", "EUR")
	b := models.NewSecurity("", "BASF11", "BASF SE NA", "EUR")
	r := New(NewMemoryCatalogue(a, b))

	fresh := models.NewSecurity("DE000BASF111", "BASF11", "BASF SE", "EUR")
	items := itemsFor(fresh)
	items[1].(*models.BuySellEntryItem).Entry.Portfolio.Source = "kauf.pdf"

	out, errs := r.Resolve(items)
	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %d: %v", len(errs), errs)
	}
	if _, ok := errs[0].Err.(*models.AmbiguousSecurityMatchError); !ok {
		t.Errorf("got %T: %v", errs[0].Err, errs[0].Err)
	}
	if errs[0].Source != "kauf.pdf" {
		t.Errorf("error source = %q, want kauf.pdf", errs[0].Source)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 items passed through, got %d", len(out))
	}
	for _, it := range out {
		if it.ItemSecurity() != fresh {
			t.Errorf("%T rewired away from the parsed security", it)
		}
	}
}

// Two documents minting the same ISIN in one batch collapse onto the first
// instance; only one SecurityItem survives.
func TestResolveRepeatedMentions(t *testing.T) {
	r := New(NewMemoryCatalogue())

	first := models.NewSecurity("LU0360863863", "", "ARERO", "EUR")
	second := models.NewSecurity("LU0360863863", "", "ARERO - Der Weltfonds", "EUR")
	out, errs := r.Resolve(append(itemsFor(first), itemsFor(second)...))
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}

	securities := 0
	for _, it := range out {
		if _, ok := it.(*models.SecurityItem); ok {
			securities++
		}
		if it.ItemSecurity() != first {
			t.Errorf("%T references %p, want the first instance", it, it.ItemSecurity())
		}
	}
	if securities != 1 {
		t.Errorf("want 1 security item, got %d", securities)
	}
}
