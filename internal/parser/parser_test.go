package parser

import (
	"testing"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.BankID
	}{
		{"dab", "DAB Bank AG\nKauf Kommissionsgeschäft\n", models.BankDAB},
		{"consorsbank", "Consorsbank\nKAUF AM 15.01.2015\n", models.BankConsorsbank},
		{"deutsche bank", "Deutsche Bank Privat- und Geschäftskunden AG\n", models.BankDeutscheBank},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank, err := Detect(tt.text)
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if bank.ID != tt.want {
				t.Errorf("bank = %s, want %s", bank.ID, tt.want)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := Detect("Lorem ipsum dolor sit amet.\n"); err == nil {
			t.Error("want error for unrecognized text")
		}
	})
}

func TestLookup(t *testing.T) {
	for _, b := range Banks() {
		got, err := Lookup(b.ID)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", b.ID, err)
		}
		if got.ID != b.ID {
			t.Errorf("Lookup(%s) = %s", b.ID, got.ID)
		}
	}
	if _, err := Lookup(models.BankID("sparkasse")); err == nil {
		t.Error("want error for unregistered bank")
	}
}
