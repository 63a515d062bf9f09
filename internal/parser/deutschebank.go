package parser

import (
	"regexp"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
	"github.com/insightdelivered/portfolio-extractor/internal/money"
)

// Deutsche Bank settlement notes. Line shapes:
//
//	Abrechnung: Kauf von Wertpapieren
//	Filialnummer Depotnummer Wertpapierbezeichnung Seite
//	123 1234567 00 BASF SE 1 von 2
//	Namens-Aktien o.N.
//	WKN BASF11 Nominal ST 19
//	ISIN DE000BASF111 Kurs EUR 35,00
//	Kurswert EUR 665,00
//	Provision EUR 10,50
//	Buchung auf Kontonummer 1234567 00 mit Wertstellung 08.04.2015 EUR 675,50
//
// Sales carry Kapitalertragsteuer and Solidaritätszuschlag lines with
// negative amounts; those become separate tax units on the entry.
func newDeutscheBank() *Bank {
	return &Bank{
		ID:    models.BankDeutscheBank,
		Label: "Deutsche Bank Privat- und Geschäftskunden AG",
		Identifiers: []string{
			"Deutsche Bank Privat- und Gesch",
			"DB Privat- und Firmenkundenbank AG",
		},
		DocTypes: []*DocumentType{
			deutscheBankBuySell(),
			deutscheBankDividend(),
		},
	}
}

var (
	deutscheBankSecurityName = Section{Lines: []*regexp.Regexp{
		regexp.MustCompile(`^Filialnummer Depotnummer Wertpapierbezeichnung Seite$`),
		regexp.MustCompile(`^\d+ \d+(?: \d+)? (?P<name>.*?) \d+ von \d+$`),
	}}
	deutscheBankSecurityIDs = Section{Lines: []*regexp.Regexp{
		regexp.MustCompile(`^WKN (?P<wkn>[A-Z0-9]{6}) Nominal ST (?P<shares>[.,\d]+)$`),
		regexp.MustCompile(`^ISIN (?P<isin>[A-Z]{2}[A-Z0-9]{9}[0-9]) Kurs (?P<currency>[A-Z]{3}) [.,\d]+$`),
	}}
)

func deutscheBankBuySell() *DocumentType {
	anchor := regexp.MustCompile(`^Abrechnung: (?P<type>Kauf|Verkauf) von Wertpapieren$`)

	return &DocumentType{
		Name:       "deutschebank/buysell",
		Match:      regexp.MustCompile(`(?m)^Abrechnung: (Kauf|Verkauf) von Wertpapieren$`),
		BlockBegin: anchor,
		Grammars: []*Grammar{{
			Family: "deutschebank/buysell",
			Anchor: anchor,
			Sections: []Section{
				{Lines: []*regexp.Regexp{anchor}},
				deutscheBankSecurityName,
				deutscheBankSecurityIDs,
				{Lines: []*regexp.Regexp{
					regexp.MustCompile(`^Kurswert (?P<grossCurrency>[A-Z]{3}) (?P<gross>[.,\d]+)$`),
				}},
				{Optional: true, Lines: []*regexp.Regexp{
					regexp.MustCompile(`^Kapitalertragsteuer (?P<kapstCurrency>[A-Z]{3}) -(?P<kapst>[.,\d]+)$`),
				}},
				{Optional: true, Lines: []*regexp.Regexp{
					regexp.MustCompile(`^Solidarit.tszuschlag auf Kapitalertragsteuer (?P<solzCurrency>[A-Z]{3}) -(?P<solz>[.,\d]+)$`),
				}},
				{Lines: []*regexp.Regexp{
					regexp.MustCompile(`^Buchung auf Kontonummer .* mit Wertstellung (?P<date>\d{2}\.\d{2}\.\d{4}) (?P<amtCurrency>[A-Z]{3}) (?P<amount>[.,\d]+)$`),
				}},
			},
			Assemble: deutscheBankAssembleBuySell,
		}},
	}
}

func deutscheBankAssembleBuySell(doc models.Document, f Fields) ([]models.Item, error) {
	const family = "deutschebank/buysell"

	typ := models.PortfolioBuy
	if f["type"] == "Verkauf" {
		typ = models.PortfolioSell
	}

	amount, err := f.fieldAmount(family, "amount", f["amtCurrency"])
	if err != nil {
		return nil, err
	}
	sec, err := f.fieldSecurity(family, f["currency"])
	if err != nil {
		return nil, err
	}
	shares, err := f.fieldShares(family)
	if err != nil {
		return nil, err
	}
	date, err := f.fieldDate(family)
	if err != nil {
		return nil, err
	}
	gross, err := f.fieldAmount(family, "gross", f["grossCurrency"])
	if err != nil {
		return nil, err
	}

	tr := trade{
		typ:      typ,
		security: sec,
		shares:   shares,
		date:     date,
		amount:   amount,
		gross:    &gross,
		source:   doc.Source,
	}
	for _, key := range []string{"kapst", "solz"} {
		s, ok := f[key]
		if !ok {
			continue
		}
		tax, tErr := money.ParseAmount(f[key+"Currency"], s)
		if tErr != nil {
			return nil, &models.MalformedFieldError{Field: key, Text: s, Err: tErr}
		}
		tr.taxes = append(tr.taxes, tax.Abs())
	}

	entry, err := tr.build()
	if err != nil {
		return nil, err
	}
	return []models.Item{
		&models.SecurityItem{Security: sec},
		&models.BuySellEntryItem{Entry: entry},
	}, nil
}

func deutscheBankDividend() *DocumentType {
	anchor := regexp.MustCompile(`^(Dividendengutschrift|Ertragsgutschrift)$`)

	return &DocumentType{
		Name:       "deutschebank/dividend",
		Match:      regexp.MustCompile(`(?m)^(Dividendengutschrift|Ertragsgutschrift)$`),
		BlockBegin: anchor,
		Grammars: []*Grammar{{
			Family: "deutschebank/dividend",
			Anchor: anchor,
			Sections: []Section{
				{Lines: []*regexp.Regexp{
					regexp.MustCompile(`^St.ck (?P<shares>[.,\d]+) (?P<name>.*?) (?P<isin>[A-Z]{2}[A-Z0-9]{9}[0-9]) \((?P<wkn>[A-Z0-9]{6})\)$`),
				}},
				{Lines: []*regexp.Regexp{
					regexp.MustCompile(`^Bruttoertrag (?P<grossCurrency>[A-Z]{3}) (?P<gross>[.,\d]+)$`),
				}},
				{Optional: true, Lines: []*regexp.Regexp{
					regexp.MustCompile(`^Kapitalertragsteuer \([.,\d]+ ?%\) (?P<kapstCurrency>[A-Z]{3}) -(?P<kapst>[.,\d]+)$`),
				}},
				{Optional: true, Lines: []*regexp.Regexp{
					regexp.MustCompile(`^Solidarit.tszuschlag auf Kapitalertragsteuer (?P<solzCurrency>[A-Z]{3}) -(?P<solz>[.,\d]+)$`),
				}},
				{Lines: []*regexp.Regexp{
					regexp.MustCompile(`^Gutschrift mit Wert (?P<date>\d{2}\.\d{2}\.\d{4}) (?P<amtCurrency>[A-Z]{3}) (?P<amount>[.,\d]+)$`),
				}},
			},
			Assemble: deutscheBankAssembleDividend,
		}},
	}
}

func deutscheBankAssembleDividend(doc models.Document, f Fields) ([]models.Item, error) {
	const family = "deutschebank/dividend"

	amount, err := f.fieldAmount(family, "amount", f["amtCurrency"])
	if err != nil {
		return nil, err
	}
	sec, err := f.fieldSecurity(family, amount.Currency)
	if err != nil {
		return nil, err
	}
	shares, err := f.fieldShares(family)
	if err != nil {
		return nil, err
	}
	date, err := f.fieldDate(family)
	if err != nil {
		return nil, err
	}
	gross, err := f.fieldAmount(family, "gross", f["grossCurrency"])
	if err != nil {
		return nil, err
	}

	d := dividend{
		security:  sec,
		shares:    shares,
		date:      date,
		amount:    amount,
		grossUnit: &models.Unit{Kind: models.UnitGrossValue, Amount: gross},
		source:    doc.Source,
	}
	for _, key := range []string{"kapst", "solz"} {
		s, ok := f[key]
		if !ok {
			continue
		}
		tax, tErr := money.ParseAmount(f[key+"Currency"], s)
		if tErr != nil {
			return nil, &models.MalformedFieldError{Field: key, Text: s, Err: tErr}
		}
		d.taxUnits = append(d.taxUnits, models.NewUnit(models.UnitTax, tax.Abs()))
	}

	return d.build()
}
