package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAddSub(t *testing.T) {
	a, b := New("EUR", 150), New("EUR", 50)

	sum, err := a.Add(b)
	if err != nil {
		t.Fatal(err)
	}
	if sum != New("EUR", 200) {
		t.Errorf("sum = %v", sum)
	}

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff != New("EUR", 100) {
		t.Errorf("diff = %v", diff)
	}

	if _, err := a.Add(New("USD", 50)); err == nil {
		t.Error("want error adding across currencies")
	}
	if _, err := a.Sub(New("USD", 50)); err == nil {
		t.Error("want error subtracting across currencies")
	}
}

func TestWithinOne(t *testing.T) {
	a := New("EUR", 473054)
	for _, delta := range []int64{-1, 0, 1} {
		if !a.WithinOne(New("EUR", 473054+delta)) {
			t.Errorf("delta %d should be within tolerance", delta)
		}
	}
	if a.WithinOne(New("EUR", 473056)) {
		t.Error("two minor units must not be within tolerance")
	}
	if a.WithinOne(New("USD", 473054)) {
		t.Error("different currencies never reconcile")
	}
}

func TestConvert(t *testing.T) {
	rate := InvertRate(decimal.RequireFromString("1.100297"))
	got := Convert(New("USD", 520500), rate, "EUR")
	if got != New("EUR", 473054) {
		t.Errorf("converted = %v, want EUR 4730.54", got)
	}

	// exactly .5 rounds away from zero
	half := Convert(New("USD", 1), decimal.RequireFromString("0.5"), "EUR")
	if half != New("EUR", 1) {
		t.Errorf("half = %v, want EUR 0.01", half)
	}
}

func TestInvertRate(t *testing.T) {
	got := InvertRate(decimal.RequireFromString("1.25"))
	if !got.Equal(decimal.RequireFromString("0.8")) {
		t.Errorf("inverted = %s, want 0.8", got)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{New("EUR", 123456), "EUR 1234.56"},
		{New("EUR", -14), "EUR -0.14"},
		{Zero("USD"), "USD 0.00"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSharesDecimal(t *testing.T) {
	s, err := SharesOf(decimal.RequireFromString("0.91920"))
	if err != nil {
		t.Fatal(err)
	}
	if s != Shares(91920000) {
		t.Errorf("shares = %d", s)
	}
	if s.String() != "0.9192" {
		t.Errorf("String() = %q", s.String())
	}
	if !Shares(0).IsZero() {
		t.Error("zero shares must report IsZero")
	}
}
