// Package resolver matches freshly parsed securities against a shared
// catalogue of already-known securities and deduplicates extraction output.
package resolver

import (
	"sync"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
)

// Catalogue is the shared security store owned by the surrounding portfolio
// domain. Implementations need not be safe for concurrent use; the Resolver
// serializes every call behind its own lock.
type Catalogue interface {
	ByISIN(isin string) *models.Security
	ByWKN(wkn string) *models.Security
	ByName(name, currency string) *models.Security
	Add(s *models.Security) *models.Security
}

// Resolver resolves parsed securities against a catalogue. It is the only
// place the extraction core reads and writes shared state; a single mutex
// makes concurrent per-document extraction safe.
type Resolver struct {
	mu  sync.Mutex
	cat Catalogue
}

// New returns a resolver over the given catalogue.
func New(cat Catalogue) *Resolver {
	return &Resolver{cat: cat}
}

// Resolve processes one batch's items: every parsed security is looked up
// by ISIN, then WKN, then exact name. On a hit the transactions are rewired
// to the existing entity and the SecurityItem is suppressed; on a miss the
// security is registered and its SecurityItem kept. A failed lookup is
// reported once per parsed security and never discards output: the affected
// items pass through with their parsed security untouched, and every other
// security keeps resolving.
func (r *Resolver) Resolve(items []models.Item) ([]models.Item, []models.ExtractionError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	canonical := make(map[*models.Security]*models.Security)
	failed := make(map[*models.Security]int)
	out := make([]models.Item, 0, len(items))
	var errs []models.ExtractionError

	for _, item := range items {
		sec := item.ItemSecurity()
		if sec == nil {
			out = append(out, item)
			continue
		}

		if idx, bad := failed[sec]; bad {
			if errs[idx].Source == "" {
				errs[idx].Source = itemSource(item)
			}
			out = append(out, item)
			continue
		}

		existing, known := canonical[sec]
		if !known {
			var err error
			existing, err = r.lookup(sec)
			if err != nil {
				errs = append(errs, models.ExtractionError{Source: itemSource(item), Err: err})
				failed[sec] = len(errs) - 1
				out = append(out, item)
				continue
			}
			if existing == nil {
				existing = r.cat.Add(sec)
			}
			canonical[sec] = existing
		}

		if _, isSecurityItem := item.(*models.SecurityItem); isSecurityItem && existing != sec {
			// already in the catalogue; no new security surfaces
			continue
		}
		models.ReplaceSecurity(item, existing)
		out = append(out, item)
	}
	return out, errs
}

// itemSource names the document an item came from, or "" for items that
// carry no source of their own. A SecurityItem's origin is known only
// through the transactions that mention it.
func itemSource(item models.Item) string {
	switch it := item.(type) {
	case *models.TransactionItem:
		if it.Account != nil {
			return it.Account.Source
		}
		if it.Portfolio != nil {
			return it.Portfolio.Source
		}
	case *models.BuySellEntryItem:
		return it.Entry.Portfolio.Source
	}
	return ""
}

// lookup applies the identity priority: ISIN, then WKN, then name within the
// declared currency. First match wins. A WKN hit that contradicts a distinct
// ISIN hit would indicate catalogue corruption and is reported as ambiguous.
func (r *Resolver) lookup(sec *models.Security) (*models.Security, error) {
	var byISIN, byWKN *models.Security
	if sec.ISIN != "" {
		byISIN = r.cat.ByISIN(sec.ISIN)
	}
	if sec.WKN != "" {
		byWKN = r.cat.ByWKN(sec.WKN)
	}
	if byISIN != nil {
		if byWKN != nil && byWKN != byISIN {
			return nil, &models.AmbiguousSecurityMatchError{ISIN: sec.ISIN, WKN: sec.WKN, Name: sec.Name}
		}
		return byISIN, nil
	}
	if byWKN != nil {
		return byWKN, nil
	}
	if sec.Name != "" {
		if byName := r.cat.ByName(sec.Name, sec.Currency); byName != nil {
			return byName, nil
		}
	}
	return nil, nil
}
