package models

// Item is one row of extraction output. Items are pure results: once
// produced they are never mutated (the resolver may replace security
// references before a document's items are published).
type Item interface {
	// ItemSecurity returns the security the item refers to, or nil.
	ItemSecurity() *Security
}

// SecurityItem announces a security not previously present in the catalogue.
type SecurityItem struct {
	Security *Security `json:"security"`
}

func (i *SecurityItem) ItemSecurity() *Security { return i.Security }

// TransactionItem wraps a single account or portfolio transaction;
// exactly one of the two fields is set.
type TransactionItem struct {
	Account   *AccountTransaction   `json:"account,omitempty"`
	Portfolio *PortfolioTransaction `json:"portfolio,omitempty"`
}

func (i *TransactionItem) ItemSecurity() *Security {
	if i.Account != nil {
		return i.Account.Security
	}
	if i.Portfolio != nil {
		return i.Portfolio.Security
	}
	return nil
}

// BuySellEntryItem wraps one paired trade.
type BuySellEntryItem struct {
	Entry *BuySellEntry `json:"entry"`
}

func (i *BuySellEntryItem) ItemSecurity() *Security { return i.Entry.Portfolio.Security }

// ReplaceSecurity rewires an item's security reference to the canonical
// entity chosen by the resolver.
func ReplaceSecurity(item Item, canonical *Security) {
	switch it := item.(type) {
	case *SecurityItem:
		it.Security = canonical
	case *TransactionItem:
		if it.Account != nil && it.Account.Security != nil {
			it.Account.Security = canonical
		}
		if it.Portfolio != nil && it.Portfolio.Security != nil {
			it.Portfolio.Security = canonical
		}
	case *BuySellEntryItem:
		it.Entry.Portfolio.Security = canonical
		it.Entry.Account.Security = canonical
	}
}
