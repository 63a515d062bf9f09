package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/portfolio-extractor/internal/money"
)

// AccountTxType enumerates the cash-side transaction types.
type AccountTxType string

const (
	AccountBuy            AccountTxType = "BUY"
	AccountSell           AccountTxType = "SELL"
	AccountDividends      AccountTxType = "DIVIDENDS"
	AccountTaxes          AccountTxType = "TAXES"
	AccountTaxRefund      AccountTxType = "TAX_REFUND"
	AccountFees           AccountTxType = "FEES"
	AccountDeposit        AccountTxType = "DEPOSIT"
	AccountRemoval        AccountTxType = "REMOVAL"
	AccountInterest       AccountTxType = "INTEREST"
	AccountInterestCharge AccountTxType = "INTEREST_CHARGE"
	AccountTransferIn     AccountTxType = "TRANSFER_IN"
	AccountTransferOut    AccountTxType = "TRANSFER_OUT"
)

// PortfolioTxType enumerates the position-side transaction types.
type PortfolioTxType string

const (
	PortfolioBuy              PortfolioTxType = "BUY"
	PortfolioSell             PortfolioTxType = "SELL"
	PortfolioDeliveryInbound  PortfolioTxType = "DELIVERY_INBOUND"
	PortfolioDeliveryOutbound PortfolioTxType = "DELIVERY_OUTBOUND"
	PortfolioTransferIn       PortfolioTxType = "TRANSFER_IN"
	PortfolioTransferOut      PortfolioTxType = "TRANSFER_OUT"
)

// UnitKind enumerates the decompositions attachable to a transaction.
type UnitKind string

const (
	UnitTax        UnitKind = "TAX"
	UnitFee        UnitKind = "FEE"
	UnitGrossValue UnitKind = "GROSS_VALUE"
)

// Unit is a named decomposition of a transaction amount. When the traded
// security settles in a different currency the unit carries the sibling
// amount in that currency together with the exchange rate used; the two
// sides must reconcile within one minor unit.
type Unit struct {
	Kind   UnitKind        `json:"kind"`
	Amount money.Money     `json:"amount"`
	Forex  *money.Money    `json:"forex,omitempty"`
	Rate   decimal.Decimal `json:"rate,omitempty"`
}

// NewUnit builds a single-currency unit.
func NewUnit(kind UnitKind, amount money.Money) Unit {
	return Unit{Kind: kind, Amount: amount}
}

// NewForexUnit builds a unit carrying a forex sibling. The rate converts one
// forex unit into the transaction currency; amount must equal the rounded
// conversion of forex within one minor unit.
func NewForexUnit(kind UnitKind, amount, forex money.Money, rate decimal.Decimal) (Unit, error) {
	converted := money.Convert(forex, rate, amount.Currency)
	if !converted.WithinOne(amount) {
		return Unit{}, &ArithmeticMismatchError{
			Op:   "forex unit " + string(kind),
			Want: amount,
			Got:  converted,
		}
	}
	return Unit{Kind: kind, Amount: amount, Forex: &forex, Rate: rate}, nil
}

// AccountTransaction is a cash-side posting. Security and shares are set
// only for security-bearing types (dividends, security-related taxes).
// Amount is net; INTEREST_CHARGE is the one context allowing a negative net.
type AccountTransaction struct {
	Type     AccountTxType `json:"type"`
	Date     time.Time     `json:"date"`
	Security *Security     `json:"security,omitempty"`
	Shares   money.Shares  `json:"shares,omitempty"`
	Amount   money.Money   `json:"amount"`
	Units    []Unit        `json:"units,omitempty"`
	Source   string        `json:"source,omitempty"`
	Note     string        `json:"note,omitempty"`
}

// PortfolioTransaction is a position-side posting; security is mandatory.
type PortfolioTransaction struct {
	Type     PortfolioTxType `json:"type"`
	Date     time.Time       `json:"date"`
	Security *Security       `json:"security"`
	Shares   money.Shares    `json:"shares"`
	Amount   money.Money     `json:"amount"`
	Units    []Unit          `json:"units,omitempty"`
	Source   string          `json:"source,omitempty"`
	Note     string          `json:"note,omitempty"`
}

// BuySellEntry pairs the position side and the cash side of one trade.
// Both halves share date, security and share count.
type BuySellEntry struct {
	Portfolio PortfolioTransaction `json:"portfolio"`
	Account   AccountTransaction   `json:"account"`
}

// NewBuySellEntry builds the paired record from the portfolio half.
func NewBuySellEntry(pt PortfolioTransaction) *BuySellEntry {
	at := AccountTransaction{
		Type:     AccountTxType(pt.Type),
		Date:     pt.Date,
		Security: pt.Security,
		Shares:   pt.Shares,
		Amount:   pt.Amount,
		Source:   pt.Source,
		Note:     pt.Note,
	}
	return &BuySellEntry{Portfolio: pt, Account: at}
}

func unitSum(units []Unit, currency string, kind UnitKind) money.Money {
	sum := money.Zero(currency)
	for _, u := range units {
		if u.Kind == kind && u.Amount.Currency == currency {
			sum.Amount += u.Amount.Amount
		}
	}
	return sum
}

// UnitSum returns the total of units of one kind.
func (t *AccountTransaction) UnitSum(kind UnitKind) money.Money {
	return unitSum(t.Units, t.Amount.Currency, kind)
}

// UnitSum returns the total of units of one kind.
func (t *PortfolioTransaction) UnitSum(kind UnitKind) money.Money {
	return unitSum(t.Units, t.Amount.Currency, kind)
}

// GrossValue returns the trade value before fees and taxes: for BUY the
// amount minus charges, for SELL the amount plus charges. An explicit
// GROSS_VALUE unit takes precedence over the derived value.
func (t *PortfolioTransaction) GrossValue() money.Money {
	for _, u := range t.Units {
		if u.Kind == UnitGrossValue {
			return u.Amount
		}
	}
	charges := t.UnitSum(UnitTax).Amount + t.UnitSum(UnitFee).Amount
	switch t.Type {
	case PortfolioBuy, PortfolioDeliveryInbound, PortfolioTransferIn:
		return money.New(t.Amount.Currency, t.Amount.Amount-charges)
	default:
		return money.New(t.Amount.Currency, t.Amount.Amount+charges)
	}
}

// GrossValue returns the pre-charge value of the cash posting, following the
// same derivation as the portfolio side.
func (t *AccountTransaction) GrossValue() money.Money {
	for _, u := range t.Units {
		if u.Kind == UnitGrossValue {
			return u.Amount
		}
	}
	return t.Amount
}

// Reconcile asserts the buy/sell invariant on the paired entry:
// BUY: amount == gross + fees + taxes; SELL: amount == gross - fees - taxes,
// each within one minor unit.
func (e *BuySellEntry) Reconcile() error {
	gross := e.Portfolio.GrossValue()
	fees := e.Portfolio.UnitSum(UnitFee)
	taxes := e.Portfolio.UnitSum(UnitTax)

	var want money.Money
	switch e.Portfolio.Type {
	case PortfolioBuy:
		want = money.New(gross.Currency, gross.Amount+fees.Amount+taxes.Amount)
	case PortfolioSell:
		want = money.New(gross.Currency, gross.Amount-fees.Amount-taxes.Amount)
	default:
		return nil
	}
	if !want.WithinOne(e.Portfolio.Amount) {
		return &ArithmeticMismatchError{
			Op:   string(e.Portfolio.Type) + " reconciliation",
			Want: want,
			Got:  e.Portfolio.Amount,
		}
	}
	return nil
}
