package parser

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
	"github.com/insightdelivered/portfolio-extractor/internal/money"
)

// trade collects the typed facts of one buy/sell block before assembly.
// Amount is the settled cash; gross is the stated market value in the
// settlement currency, fxGross the stated market value in the security's
// trading currency together with rate (settlement units per one forex unit).
type trade struct {
	typ      models.PortfolioTxType
	security *models.Security
	shares   money.Shares
	date     time.Time
	amount   money.Money
	gross    *money.Money
	fxGross  *money.Money
	rate     decimal.Decimal
	taxes    []money.Money
	fees     []money.Money
	source   string
	note     string
}

// build assembles the paired entry and asserts the buy/sell reconciliation
// invariant. Whichever of amount and gross the document does not state is
// derived; the stated one is verified within one minor unit.
func (tr trade) build() (*models.BuySellEntry, error) {
	pt := models.PortfolioTransaction{
		Type:     tr.typ,
		Date:     tr.date,
		Security: tr.security,
		Shares:   tr.shares,
		Amount:   tr.amount,
		Source:   tr.source,
		Note:     tr.note,
	}

	for _, tax := range tr.taxes {
		pt.Units = append(pt.Units, models.NewUnit(models.UnitTax, tax.Abs()))
	}
	for _, fee := range tr.fees {
		pt.Units = append(pt.Units, models.NewUnit(models.UnitFee, fee.Abs()))
	}

	if tr.fxGross != nil {
		unit, err := models.NewForexUnit(models.UnitGrossValue, tr.grossOrDerived(), *tr.fxGross, tr.rate)
		if err != nil {
			return nil, err
		}
		pt.Units = append(pt.Units, unit)
	} else if tr.gross != nil {
		// derive the fee by subtraction when the document states the gross
		// market value but no explicit charge lines
		charges := pt.UnitSum(models.UnitTax).Amount + pt.UnitSum(models.UnitFee).Amount
		var residual int64
		switch tr.typ {
		case models.PortfolioBuy:
			residual = tr.amount.Amount - tr.gross.Amount - charges
		case models.PortfolioSell:
			residual = tr.gross.Amount - charges - tr.amount.Amount
		}
		if residual < -1 {
			return nil, &models.ArithmeticMismatchError{
				Op:   string(tr.typ) + " reconciliation",
				Want: *tr.gross,
				Got:  tr.amount,
			}
		}
		if residual > 1 {
			pt.Units = append(pt.Units, models.NewUnit(models.UnitFee, money.New(tr.amount.Currency, residual)))
		}
	}

	entry := models.NewBuySellEntry(pt)
	if err := entry.Reconcile(); err != nil {
		return nil, err
	}
	return entry, nil
}

// grossOrDerived returns the stated settlement-currency gross, or the
// rounded conversion of the forex gross when the document states only that.
func (tr trade) grossOrDerived() money.Money {
	if tr.gross != nil {
		return *tr.gross
	}
	return money.Convert(*tr.fxGross, tr.rate, tr.amount.Currency)
}

// dividend collects the typed facts of one distribution block. Tax units
// are attached to the dividend transaction (net amount policy); separate
// taxes become an independent TAXES transaction sharing the date (gross
// amount policy). One bank family uses exactly one of the two, never both.
type dividend struct {
	security      *models.Security
	shares        money.Shares
	date          time.Time
	amount        money.Money
	grossUnit     *models.Unit
	taxUnits      []models.Unit
	separateTaxes *money.Money
	source        string
	note          string
}

func (d dividend) build() ([]models.Item, error) {
	tx := &models.AccountTransaction{
		Type:     models.AccountDividends,
		Date:     d.date,
		Security: d.security,
		Shares:   d.shares,
		Amount:   d.amount,
		Source:   d.source,
		Note:     d.note,
	}
	if d.grossUnit != nil {
		tx.Units = append(tx.Units, *d.grossUnit)
	}
	tx.Units = append(tx.Units, d.taxUnits...)

	gross := tx.GrossValue()
	taxes := tx.UnitSum(models.UnitTax)
	want := money.New(gross.Currency, gross.Amount-taxes.Amount)
	if !want.WithinOne(tx.Amount) {
		return nil, &models.ArithmeticMismatchError{Op: "DIVIDENDS reconciliation", Want: want, Got: tx.Amount}
	}

	items := []models.Item{
		&models.SecurityItem{Security: d.security},
		&models.TransactionItem{Account: tx},
	}
	if d.separateTaxes != nil && !d.separateTaxes.IsZero() {
		items = append(items, &models.TransactionItem{Account: &models.AccountTransaction{
			Type:   models.AccountTaxes,
			Date:   d.date,
			Amount: *d.separateTaxes,
			Source: d.source,
		}})
	}
	return items, nil
}

// sumAmounts folds optional tax/fee captures of one currency.
func sumAmounts(currency string, f Fields, keys ...string) (money.Money, error) {
	sum := money.Zero(currency)
	for _, key := range keys {
		s, ok := f[key]
		if !ok {
			continue
		}
		m, err := money.ParseAmount(currency, s)
		if err != nil {
			return money.Money{}, &models.MalformedFieldError{Field: key, Text: s, Err: err}
		}
		var addErr error
		sum, addErr = sum.Add(m.Abs())
		if addErr != nil {
			return money.Money{}, addErr
		}
	}
	return sum, nil
}
