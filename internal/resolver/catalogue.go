package resolver

import (
	"github.com/insightdelivered/portfolio-extractor/internal/models"
)

// MemoryCatalogue is an in-memory Catalogue, useful standalone and in tests.
// Index maps are maintained on Add; securities are never removed.
type MemoryCatalogue struct {
	securities []*models.Security
	byISIN     map[string]*models.Security
	byWKN      map[string]*models.Security
}

// NewMemoryCatalogue returns a catalogue pre-populated with the given
// securities (the portfolio's already-known instruments).
func NewMemoryCatalogue(existing ...*models.Security) *MemoryCatalogue {
	c := &MemoryCatalogue{
		byISIN: make(map[string]*models.Security),
		byWKN:  make(map[string]*models.Security),
	}
	for _, s := range existing {
		c.Add(s)
	}
	return c
}

func (c *MemoryCatalogue) ByISIN(isin string) *models.Security {
	return c.byISIN[isin]
}

func (c *MemoryCatalogue) ByWKN(wkn string) *models.Security {
	return c.byWKN[wkn]
}

func (c *MemoryCatalogue) ByName(name, currency string) *models.Security {
	for _, s := range c.securities {
		if s.Name == name && s.Currency == currency {
			return s
		}
	}
	return nil
}

func (c *MemoryCatalogue) Add(s *models.Security) *models.Security {
	c.securities = append(c.securities, s)
	if s.ISIN != "" {
		c.byISIN[s.ISIN] = s
	}
	if s.WKN != "" {
		c.byWKN[s.WKN] = s
	}
	return s
}

// Securities returns the catalogue contents in insertion order.
func (c *MemoryCatalogue) Securities() []*models.Security {
	return c.securities
}
