package parser

import (
	"regexp"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
	"github.com/insightdelivered/portfolio-extractor/internal/money"
)

// Consorsbank settlement notes. Line shapes:
//
//	KAUF AM 15.01.2015  UM 08:13:35 IN AUSSERBOERSLICH NR.12345678.001
//	Wertpapier WKN ISIN
//	COMS.-MSCI WORL.T.U.ETF I ETF110 LU0392494562
//	Einheit Umsatz
//	ST 132,80212
//	Wert 19.01.2015 EUR 5.000,00
//
// Dividend notes print the security on a WKN/ISIN line, the share count
// next to the per-share rate and the amounts in a BRUTTO/KAPST/SOLZ table;
// foreign payments add an UMGER.ZUM DEV.-KURS line with the quoted rate.
func newConsorsbank() *Bank {
	return &Bank{
		ID:    models.BankConsorsbank,
		Label: "Consorsbank",
		Identifiers: []string{
			"Consorsbank",
			"Cortal Consors",
		},
		DocTypes: []*DocumentType{
			consorsBuySell(),
			consorsDividend(),
		},
	}
}

var consorsSecurity = Section{Lines: []*regexp.Regexp{
	regexp.MustCompile(`^Wertpapier WKN ISIN$`),
	regexp.MustCompile(`^(?P<name>.*) (?P<wkn>[A-Z0-9]{6}) (?P<isin>[A-Z]{2}[A-Z0-9]{9}[0-9])$`),
}}

func consorsBuySell() *DocumentType {
	anchor := regexp.MustCompile(`^(?P<type>KAUF|VERKAUF) AM (?P<date>\d{2}\.\d{2}\.\d{4})\s+UM (?P<time>\d{2}:\d{2}):\d{2}.*$`)

	return &DocumentType{
		Name:       "consorsbank/buysell",
		Match:      regexp.MustCompile(`(?m)^(KAUF|VERKAUF) AM `),
		BlockBegin: regexp.MustCompile(`^(KAUF|VERKAUF) AM `),
		Grammars: []*Grammar{{
			Family: "consorsbank/buysell",
			Anchor: anchor,
			Sections: []Section{
				{Lines: []*regexp.Regexp{anchor}},
				consorsSecurity,
				{Lines: []*regexp.Regexp{
					regexp.MustCompile(`^Einheit Umsatz(?: .*)?$`),
					regexp.MustCompile(`^ST (?P<shares>[.,\d]+)$`),
				}},
				{Optional: true, Lines: []*regexp.Regexp{
					regexp.MustCompile(`^KURSWERT (?P<grossCurrency>[A-Z]{3}) (?P<gross>[.,\d]+)$`),
				}},
				{Optional: true, Lines: []*regexp.Regexp{
					regexp.MustCompile(`^(?:GRUNDGEB.HR|PROVISION) (?P<feeCurrency>[A-Z]{3}) (?P<fee>[.,\d]+)$`),
				}},
				{Lines: []*regexp.Regexp{
					regexp.MustCompile(`^Wert (?P<valuta>\d{2}\.\d{2}\.\d{4}) (?P<amtCurrency>[A-Z]{3}) (?P<amount>[.,\d]+)$`),
				}},
			},
			Assemble: consorsAssembleBuySell,
		}},
	}
}

func consorsAssembleBuySell(doc models.Document, f Fields) ([]models.Item, error) {
	const family = "consorsbank/buysell"

	typ := models.PortfolioBuy
	if f["type"] == "VERKAUF" {
		typ = models.PortfolioSell
	}

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

	tr := trade{
		typ:      typ,
		security: sec,
		shares:   shares,
		date:     date,
		amount:   amount,
		source:   doc.Source,
	}

	if s, ok := f["gross"]; ok {
		gross, gerr := money.ParseAmount(f["grossCurrency"], s)
		if gerr != nil {
			return nil, &models.MalformedFieldError{Field: "gross", Text: s, Err: gerr}
		}
		tr.gross = &gross
	}
	if s, ok := f["fee"]; ok {
		fee, ferr := money.ParseAmount(f["feeCurrency"], s)
		if ferr != nil {
			return nil, &models.MalformedFieldError{Field: "fee", Text: s, Err: ferr}
		}
		tr.fees = append(tr.fees, fee.Abs())
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

func consorsDividend() *DocumentType {
	anchor := regexp.MustCompile(`^(Dividendengutschrift|Ertragsgutschrift)(?: .*)?$`)

	security := Section{Lines: []*regexp.Regexp{
		regexp.MustCompile(`^(?P<name>.*?)\s+(?P<wkn>[A-Z0-9]{6})\s+(?P<isin>[A-Z]{2}[A-Z0-9]{9}[0-9])$`),
		regexp.MustCompile(`^ST (?P<shares>[.,\d]+)(?: .*)?$`),
	}}
	gross := Section{Lines: []*regexp.Regexp{
		regexp.MustCompile(`^BRUTTO (?P<grossCurrency>[A-Z]{3}) (?P<gross>[.,\d]+)$`),
	}}
	kapst := Section{Optional: true, Lines: []*regexp.Regexp{
		regexp.MustCompile(`^KAPST (?P<kapstCurrency>[A-Z]{3}) (?P<kapst>[.,\d]+)$`),
	}}
	solz := Section{Optional: true, Lines: []*regexp.Regexp{
		regexp.MustCompile(`^SOLZ (?P<solzCurrency>[A-Z]{3}) (?P<solz>[.,\d]+)$`),
	}}
	quest := Section{Optional: true, Lines: []*regexp.Regexp{
		regexp.MustCompile(`^QUEST (?P<questCurrency>[A-Z]{3}) (?P<quest>[.,\d]+)$`),
	}}
	value := Section{Lines: []*regexp.Regexp{
		regexp.MustCompile(`^WERT (?P<valuta>\d{2}\.\d{2}\.\d{4})(?: [A-Z]{3} [.,\d]+)?$`),
	}}

	forex := &Grammar{
		Family: "consorsbank/dividend-forex",
		Anchor: anchor,
		Sections: []Section{
			security,
			gross,
			{Lines: []*regexp.Regexp{
				regexp.MustCompile(`^UMGER\.ZUM DEV\.-KURS (?P<rate>[.,\d]+) (?P<eqCurrency>[A-Z]{3}) (?P<eqGross>[.,\d]+)$`),
			}},
			kapst,
			solz,
			quest,
			value,
		},
		Assemble: consorsAssembleDividend,
	}

	domestic := &Grammar{
		Family: "consorsbank/dividend",
		Anchor: anchor,
		Sections: []Section{
			security,
			gross,
			kapst,
			solz,
			quest,
			value,
		},
		Assemble: consorsAssembleDividend,
	}

	return &DocumentType{
		Name:       "consorsbank/dividend",
		Match:      regexp.MustCompile(`(?m)^(Dividendengutschrift|Ertragsgutschrift)`),
		BlockBegin: anchor,
		Grammars:   []*Grammar{forex, domestic},
	}
}

// consorsAssembleDividend handles both the domestic and the forex layout.
// The dividend amount is the account-currency gross; withheld taxes are
// booked as a separate TAXES posting because Consorsbank settles them
// against the cash account rather than the payment itself.
func consorsAssembleDividend(doc models.Document, f Fields) ([]models.Item, error) {
	const family = "consorsbank/dividend"

	sec, err := f.fieldSecurity(family, "EUR")
	if err != nil {
		return nil, err
	}
	shares, err := f.fieldShares(family)
	if err != nil {
		return nil, err
	}
	gross, err := f.fieldAmount(family, "gross", f["grossCurrency"])
	if err != nil {
		return nil, err
	}
	date, dErr := parseDate(f["valuta"])
	if dErr != nil {
		return nil, &models.MalformedFieldError{Field: "valuta", Text: f["valuta"], Err: dErr}
	}

	d := dividend{
		security: sec,
		shares:   shares,
		date:     date,
		source:   doc.Source,
	}

	if f["eqGross"] != "" {
		// foreign payment: the gross table is in the payment currency,
		// the UMGER line carries the account-currency equivalent
		eqGross, eErr := f.fieldAmount(family, "eqGross", f["eqCurrency"])
		if eErr != nil {
			return nil, eErr
		}
		quoted, rErr := f.fieldRate(family, "rate")
		if rErr != nil {
			return nil, rErr
		}
		rate := money.InvertRate(quoted)
		grossUnit, uErr := models.NewForexUnit(models.UnitGrossValue, eqGross, gross, rate)
		if uErr != nil {
			return nil, uErr
		}
		d.amount = eqGross
		d.grossUnit = &grossUnit
		sec.Currency = gross.Currency
	} else {
		d.amount = gross
		d.grossUnit = &models.Unit{Kind: models.UnitGrossValue, Amount: gross}
	}

	taxes, err := sumAmounts(d.amount.Currency, f, "kapst", "solz", "quest")
	if err != nil {
		return nil, err
	}
	if !taxes.IsZero() {
		d.separateTaxes = &taxes
	}

	return d.build()
}
