package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
	"github.com/insightdelivered/portfolio-extractor/internal/money"
)

// DAB Bank / BNP Paribas settlement notes. Line shapes:
//
//	Kauf Kommissionsgeschäft
//	Gattungsbezeichnung ISIN
//	ARERO - Der Weltfonds Inhaber-Anteile o.N. LU0360863863
//	Nominal Kurs
//	STK 0,91920 EUR 163,1800
//	Handelstag 06.01.2015 Kurswert EUR 150,00
//	Abrechnungs-Nr. 9090909090
//	08.01.2015 8022574001 EUR 150,00
//
// Foreign-currency settlements add an exchange-rate settlement line
// ("03.08.2015 0000000000 EUR/USD 1,100297 EUR 4.730,54") and quote the
// market value in the trading currency.
func newDABBank() *Bank {
	return &Bank{
		ID:    models.BankDAB,
		Label: "DAB Bank / BNP Paribas S.A.",
		Identifiers: []string{
			"DAB Bank",
			"BNP Paribas S.A. Niederlassung Deutschland",
		},
		DocTypes: []*DocumentType{
			dabBuySell(),
			dabDividend(),
			dabDelivery(),
			dabTaxRefund(),
			dabAccountStatement(),
		},
	}
}

var (
	dabSecurityHeader = regexp.MustCompile(`^Gattungsbezeichnung ISIN$`)
	dabSecurityLine   = regexp.MustCompile(`^(?P<name>.*) (?P<isin>[A-Z]{2}[A-Z0-9]{9}[0-9])$`)
	dabNoteLine       = regexp.MustCompile(`^(?P<note>Abrechnungs-Nr\. .+)$`)
	dabSettlement     = regexp.MustCompile(`^(?P<valuta>\d{2}\.\d{2}\.\d{4}) \d+ (?P<amtCurrency>[A-Z]{3}) (?P<amount>[.,\d]+)$`)
	dabFxSettlement   = regexp.MustCompile(`^(?P<valuta>\d{2}\.\d{2}\.\d{4}) \d+ [A-Z]{3}/(?P<fxCurrency>[A-Z]{3}) (?P<rate>[.,\d]+) (?P<amtCurrency>[A-Z]{3}) (?P<amount>[.,\d]+)$`)
)

func dabBuySell() *DocumentType {
	anchor := regexp.MustCompile(`^(?P<type>Kauf|Verkauf) .*$`)

	security := Section{Lines: []*regexp.Regexp{
		dabSecurityHeader,
		dabSecurityLine,
	}}
	nominal := Section{Lines: []*regexp.Regexp{
		regexp.MustCompile(`^STK (?P<shares>[.,\d]+) (?P<currency>[A-Z]{3}) [.,\d]+$`),
	}}
	tradeTime := Section{Optional: true, Lines: []*regexp.Regexp{
		regexp.MustCompile(`^Handelszeit (?P<time>\d{2}:\d{2}).*$`),
	}}
	fee := Section{Optional: true, Lines: []*regexp.Regexp{
		regexp.MustCompile(`^.*Provision (?P<feeCurrency>[A-Z]{3}) (?P<fee>[.,\d]+-?)$`),
	}}
	note := Section{Optional: true, Lines: []*regexp.Regexp{dabNoteLine}}

	forex := &Grammar{
		Family: "dab/buysell-forex",
		Anchor: anchor,
		Sections: []Section{
			{Lines: []*regexp.Regexp{anchor}},
			security,
			nominal,
			tradeTime,
			{Lines: []*regexp.Regexp{
				regexp.MustCompile(`^Handelstag (?P<date>\d{2}\.\d{2}\.\d{4}) +Kurswert (?P<fxGrossCurrency>[A-Z]{3}) (?P<fxGross>[.,\d]+)-?$`),
			}},
			fee,
			note,
			{Lines: []*regexp.Regexp{dabFxSettlement}},
		},
		Assemble: dabAssembleBuySell,
	}

	domestic := &Grammar{
		Family: "dab/buysell",
		Anchor: anchor,
		Sections: []Section{
			{Lines: []*regexp.Regexp{anchor}},
			security,
			nominal,
			tradeTime,
			{Lines: []*regexp.Regexp{
				regexp.MustCompile(`^Handelstag (?P<date>\d{2}\.\d{2}\.\d{4}) +Kurswert (?P<grossCurrency>[A-Z]{3}) (?P<gross>[.,\d]+)$`),
			}},
			fee,
			note,
			{Lines: []*regexp.Regexp{dabSettlement}},
		},
		Assemble: dabAssembleBuySell,
	}

	return &DocumentType{
		Name:       "dab/buysell",
		Match:      regexp.MustCompile(`(?m)^(Kauf|Verkauf) `),
		BlockBegin: regexp.MustCompile(`^(Kauf|Verkauf) `),
		Grammars:   []*Grammar{forex, domestic},
	}
}

func dabAssembleBuySell(doc models.Document, f Fields) ([]models.Item, error) {
	const family = "dab/buysell"

	typ := models.PortfolioBuy
	if f["type"] == "Verkauf" {
		typ = models.PortfolioSell
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
	amount, err := f.fieldAmount(family, "amount", f["amtCurrency"])
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
		note:     f["note"],
	}

	if s, ok := f["fee"]; ok {
		feeAmount, ferr := money.ParseAmount(f["feeCurrency"], s)
		if ferr != nil {
			return nil, &models.MalformedFieldError{Field: "fee", Text: s, Err: ferr}
		}
		feeAmount = feeAmount.Abs()
		// fees quoted in the trading currency are converted at the
		// settlement rate before reconciliation
		if feeAmount.Currency != amount.Currency && f["rate"] != "" {
			rate, rerr := f.fieldRate(family, "rate")
			if rerr != nil {
				return nil, rerr
			}
			feeAmount = money.Convert(feeAmount, money.InvertRate(rate), amount.Currency)
		}
		tr.fees = append(tr.fees, feeAmount)
	}

	switch {
	case f["fxGross"] != "":
		fx, ferr := f.fieldAmount(family, "fxGross", f["fxGrossCurrency"])
		if ferr != nil {
			return nil, ferr
		}
		rate, rerr := f.fieldRate(family, "rate")
		if rerr != nil {
			return nil, rerr
		}
		if fx.Currency == sec.Currency && fx.Currency != amount.Currency {
			tr.fxGross = &fx
			tr.rate = money.InvertRate(rate)
		} else {
			tr.gross = &fx
		}
	case f["gross"] != "":
		gross, gerr := f.fieldAmount(family, "gross", f["grossCurrency"])
		if gerr != nil {
			return nil, gerr
		}
		tr.gross = &gross
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

func dabDividend() *DocumentType {
	anchor := regexp.MustCompile(`^(Dividendengutschrift|Ertragsgutschrift)(?: .*)?$`)

	security := Section{Lines: []*regexp.Regexp{
		dabSecurityHeader,
		dabSecurityLine,
	}}
	nominal := Section{Lines: []*regexp.Regexp{
		regexp.MustCompile(`^STK (?P<shares>[.,\d]+) \d{2}\.\d{2}\.\d{4} \d{2}\.\d{2}\.\d{4} (?P<currency>[A-Z]{3}) [.,\d]+$`),
	}}
	note := Section{Optional: true, Lines: []*regexp.Regexp{dabNoteLine}}

	forex := &Grammar{
		Family: "dab/dividend-forex",
		Anchor: anchor,
		Sections: []Section{
			security,
			nominal,
			{Lines: []*regexp.Regexp{
				regexp.MustCompile(`^Bruttobetrag (?P<fxGrossCurrency>[A-Z]{3}) (?P<fxGross>[.,\d]+)$`),
			}},
			{Optional: true, Lines: []*regexp.Regexp{
				regexp.MustCompile(`^.*Quellensteuer (?P<fxTaxCurrency>[A-Z]{3}) (?P<fxTax>[.,\d]+)-?$`),
			}},
			note,
			{Lines: []*regexp.Regexp{dabFxSettlement}},
		},
		Assemble: dabAssembleDividendForex,
	}

	domestic := &Grammar{
		Family: "dab/dividend",
		Anchor: anchor,
		Sections: []Section{
			security,
			nominal,
			{Optional: true, Lines: []*regexp.Regexp{
				regexp.MustCompile(`^Bruttobetrag (?P<grossCurrency>[A-Z]{3}) (?P<gross>[.,\d]+)$`),
			}},
			{Optional: true, Lines: []*regexp.Regexp{
				regexp.MustCompile(`^Kapitalertragsteuer (?P<taxCurrency>[A-Z]{3}) (?P<kapst>[.,\d]+)-?$`),
			}},
			{Optional: true, Lines: []*regexp.Regexp{
				regexp.MustCompile(`^Solidarit.tszuschlag (?:[A-Z]{3} )?(?P<solz>[.,\d]+)-?$`),
			}},
			note,
			{Lines: []*regexp.Regexp{dabSettlement}},
		},
		Assemble: dabAssembleDividendDomestic,
	}

	return &DocumentType{
		Name:       "dab/dividend",
		Match:      regexp.MustCompile(`(?m)^(Dividendengutschrift|Ertragsgutschrift)`),
		BlockBegin: anchor,
		Grammars:   []*Grammar{forex, domestic},
	}
}

func dabAssembleDividendForex(doc models.Document, f Fields) ([]models.Item, error) {
	const family = "dab/dividend-forex"

	sec, err := f.fieldSecurity(family, f["currency"])
	if err != nil {
		return nil, err
	}
	shares, err := f.fieldShares(family)
	if err != nil {
		return nil, err
	}
	amount, err := f.fieldAmount(family, "amount", f["amtCurrency"])
	if err != nil {
		return nil, err
	}
	fxGross, err := f.fieldAmount(family, "fxGross", f["fxGrossCurrency"])
	if err != nil {
		return nil, err
	}
	quoted, err := f.fieldRate(family, "rate")
	if err != nil {
		return nil, err
	}
	rate := money.InvertRate(quoted)

	date, err := parseDate(f["valuta"])
	if err != nil {
		return nil, &models.MalformedFieldError{Field: "valuta", Text: f["valuta"], Err: err}
	}

	grossUnit, err := models.NewForexUnit(models.UnitGrossValue,
		money.Convert(fxGross, rate, amount.Currency), fxGross, rate)
	if err != nil {
		return nil, err
	}

	d := dividend{
		security:  sec,
		shares:    shares,
		date:      date,
		amount:    amount,
		grossUnit: &grossUnit,
		source:    doc.Source,
		note:      f["note"],
	}

	if s, ok := f["fxTax"]; ok {
		fxTax, terr := money.ParseAmount(f["fxTaxCurrency"], s)
		if terr != nil {
			return nil, &models.MalformedFieldError{Field: "fxTax", Text: s, Err: terr}
		}
		taxUnit, uerr := models.NewForexUnit(models.UnitTax,
			money.Convert(fxTax, rate, amount.Currency), fxTax, rate)
		if uerr != nil {
			return nil, uerr
		}
		d.taxUnits = append(d.taxUnits, taxUnit)
	}

	return d.build()
}

func dabAssembleDividendDomestic(doc models.Document, f Fields) ([]models.Item, error) {
	const family = "dab/dividend"

	sec, err := f.fieldSecurity(family, f["currency"])
	if err != nil {
		return nil, err
	}
	shares, err := f.fieldShares(family)
	if err != nil {
		return nil, err
	}
	amount, err := f.fieldAmount(family, "amount", f["amtCurrency"])
	if err != nil {
		return nil, err
	}
	date, err := parseDate(f["valuta"])
	if err != nil {
		return nil, &models.MalformedFieldError{Field: "valuta", Text: f["valuta"], Err: err}
	}

	d := dividend{
		security: sec,
		shares:   shares,
		date:     date,
		amount:   amount,
		source:   doc.Source,
		note:     f["note"],
	}

	if s, ok := f["gross"]; ok {
		gross, gerr := money.ParseAmount(f["grossCurrency"], s)
		if gerr != nil {
			return nil, &models.MalformedFieldError{Field: "gross", Text: s, Err: gerr}
		}
		d.grossUnit = &models.Unit{Kind: models.UnitGrossValue, Amount: gross}
	}
	for _, key := range []string{"kapst", "solz"} {
		s, ok := f[key]
		if !ok {
			continue
		}
		tax, terr := money.ParseAmount(f["taxCurrency"], s)
		if terr != nil {
			return nil, &models.MalformedFieldError{Field: key, Text: s, Err: terr}
		}
		d.taxUnits = append(d.taxUnits, models.NewUnit(models.UnitTax, tax.Abs()))
	}

	return d.build()
}

// dabDelivery covers Bestandsausbuchung documents: several positions leave
// the portfolio with no cash leg. The booking date is printed once above
// the positions and seeds every block via the document context.
func dabDelivery() *DocumentType {
	return &DocumentType{
		Name:       "dab/delivery",
		Match:      regexp.MustCompile(`(?m)^Bestandsausbuchung`),
		BlockBegin: dabSecurityHeader,
		Context: []Section{
			{Lines: []*regexp.Regexp{
				regexp.MustCompile(`^Bestandsausbuchung per (?P<date>\d{2}\.\d{2}\.\d{4}).*$`),
			}},
			{Optional: true, Lines: []*regexp.Regexp{
				regexp.MustCompile(`^(?P<note>Ausf.hrungs-Nr\. .+)$`),
			}},
		},
		Grammars: []*Grammar{{
			Family: "dab/delivery",
			Anchor: dabSecurityHeader,
			Sections: []Section{
				{Lines: []*regexp.Regexp{
					dabSecurityHeader,
					dabSecurityLine,
				}},
				{Lines: []*regexp.Regexp{
					regexp.MustCompile(`^STK (?P<shares>[.,\d]+)$`),
				}},
			},
			Assemble: dabAssembleDelivery,
		}},
	}
}

func dabAssembleDelivery(doc models.Document, f Fields) ([]models.Item, error) {
	const family = "dab/delivery"

	sec, err := f.fieldSecurity(family, "EUR")
	if err != nil {
		return nil, err
	}
	shares, err := f.fieldShares(family)
	if err != nil {
		return nil, err
	}
	if shares.IsZero() {
		return nil, &models.MissingFieldError{Family: family, Field: "shares"}
	}
	date, err := f.fieldDate(family)
	if err != nil {
		return nil, err
	}

	pt := &models.PortfolioTransaction{
		Type:     models.PortfolioDeliveryOutbound,
		Date:     date,
		Security: sec,
		Shares:   shares,
		Amount:   money.Zero("EUR"),
		Source:   doc.Source,
		Note:     f["note"],
	}
	return []models.Item{
		&models.SecurityItem{Security: sec},
		&models.TransactionItem{Portfolio: pt},
	}, nil
}

// dabTaxRefund covers Steuerausgleich settlements, standalone or printed
// underneath a sale in the same document.
func dabTaxRefund() *DocumentType {
	anchor := regexp.MustCompile(`^Steuerausgleich(?: .*)?$`)
	return &DocumentType{
		Name:       "dab/taxrefund",
		Match:      regexp.MustCompile(`(?m)^Steuerausgleich`),
		BlockBegin: anchor,
		Grammars: []*Grammar{{
			Family: "dab/taxrefund",
			Anchor: anchor,
			Sections: []Section{
				{Optional: true, Lines: []*regexp.Regexp{dabNoteLine}},
				{Lines: []*regexp.Regexp{dabSettlement}},
			},
			Assemble: dabAssembleTaxRefund,
		}},
	}
}

func dabAssembleTaxRefund(doc models.Document, f Fields) ([]models.Item, error) {
	const family = "dab/taxrefund"

	amount, err := f.fieldAmount(family, "amount", f["amtCurrency"])
	if err != nil {
		return nil, err
	}
	date, err := parseDate(f["valuta"])
	if err != nil {
		return nil, &models.MalformedFieldError{Field: "valuta", Text: f["valuta"], Err: err}
	}

	tx := &models.AccountTransaction{
		Type:   models.AccountTaxRefund,
		Date:   date,
		Amount: amount,
		Source: doc.Source,
		Note:   f["note"],
	}
	return []models.Item{&models.TransactionItem{Account: tx}}, nil
}

// dabAccountStatement covers Kontoauszug documents: one booking per line,
// deposits and withdrawals plus the quarterly interest closing.
func dabAccountStatement() *DocumentType {
	lineBegin := regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4} \d{2}\.\d{2}\.\d{4} `)
	return &DocumentType{
		Name:       "dab/account",
		Match:      regexp.MustCompile(`(?m)^Kontoauszug`),
		BlockBegin: lineBegin,
		Grammars: []*Grammar{{
			Family: "dab/account",
			Anchor: lineBegin,
			Sections: []Section{
				{Lines: []*regexp.Regexp{
					regexp.MustCompile(`^(?P<date>\d{2}\.\d{2}\.\d{4}) \d{2}\.\d{2}\.\d{4} (?P<desc>.+?) (?P<amtCurrency>[A-Z]{3}) (?P<amount>[.,\d]+)(?P<sign>[+-])$`),
				}},
			},
			Assemble: dabAssembleAccountLine,
		}},
	}
}

func dabAssembleAccountLine(doc models.Document, f Fields) ([]models.Item, error) {
	const family = "dab/account"

	amount, err := f.fieldAmount(family, "amount", f["amtCurrency"])
	if err != nil {
		return nil, err
	}
	date, err := f.fieldDate(family)
	if err != nil {
		return nil, err
	}

	desc := f["desc"]
	credit := f["sign"] == "+"

	var typ models.AccountTxType
	switch {
	case strings.Contains(desc, "Zinsen") && credit:
		typ = models.AccountInterest
	case strings.Contains(desc, "Zinsen"):
		// the one place a negative net amount is valid
		typ = models.AccountInterestCharge
		amount = amount.Neg()
	case credit:
		typ = models.AccountDeposit
	default:
		typ = models.AccountRemoval
	}

	tx := &models.AccountTransaction{
		Type:   typ,
		Date:   date,
		Amount: amount,
		Source: doc.Source,
		Note:   desc,
	}
	return []models.Item{&models.TransactionItem{Account: tx}}, nil
}
