package extractor

import (
	"strings"
	"testing"
)

func TestReadable(t *testing.T) {
	statement := []string{"DAB Bank AG\nKauf Kommissionsgeschäft\nGattungsbezeichnung ISIN\nHandelstag 06.01.2015 Kurswert EUR 150,00"}

	tests := []struct {
		name  string
		pages []string
		want  bool
	}{
		{"statement text", statement, true},
		{"empty", nil, false},
		{"too short", []string{"DAB Bank"}, false},
		{"binary garbage", []string{strings.Repeat("\x01\x02ÿþ", 40)}, false},
		{"readable but unrelated", []string{strings.Repeat("the quick brown fox jumps over the lazy dog ", 3)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := readable(tt.pages); got != tt.want {
				t.Errorf("readable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPagesMissingFile(t *testing.T) {
	if _, err := Pages("does-not-exist.pdf"); err == nil {
		t.Error("want error for missing file")
	}
}
