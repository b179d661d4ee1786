package currency

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRate(t *testing.T) {
	tests := []struct {
		from, to string
		want     string
	}{
		{"USD", "USD", "1"},
		{"USD", "EUR", "0.92"},
		{"gbp", "usd", "1.27"},
		{"XYZ", "USD", "1"},
		{"USD", "XYZ", "1"},
	}
	for _, tt := range tests {
		if got := Rate(tt.from, tt.to); !got.Equal(dec(tt.want)) {
			t.Errorf("Rate(%s, %s) = %s, want %s", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		from, to string
		want     string
	}{
		{"same_currency", "10.005", "USD", "USD", "10.005"},
		{"table_rate", "100", "USD", "EUR", "92"},
		{"rounds_to_cents", "10.01", "EUR", "GBP", "8.61"},
		{"unknown_source_uses_usd_row", "10", "CHF", "EUR", "9.2"},
		{"unknown_pair_keeps_amount", "10", "CHF", "NOK", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(dec(tt.amount), tt.from, tt.to)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Convert = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatAndSymbol(t *testing.T) {
	if got := Format(dec("5.5"), "USD"); got != "$5.50" {
		t.Errorf("Format = %q, want $5.50", got)
	}
	if got := Format(dec("12"), "CHF"); got != "CHF12.00" {
		t.Errorf("Format = %q, want CHF12.00", got)
	}
	if got := Symbol("eur"); got != "€" {
		t.Errorf("Symbol(eur) = %q", got)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"$1,234.50", "1234.5"},
		{"-12.00 EUR", "-12"},
		{"n/a", "0"},
	}
	for _, tt := range tests {
		if got := ParseAmount(tt.in); !got.Equal(dec(tt.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSupported(t *testing.T) {
	codes := Supported()
	if len(codes) != 6 {
		t.Fatalf("expected 6 currencies, got %d", len(codes))
	}
	if codes[0] != "AUD" || codes[5] != "USD" {
		t.Errorf("expected sorted codes, got %v", codes)
	}
	if !IsSupported("jpy") {
		t.Error("expected jpy to be supported")
	}
	if IsSupported("CHF") {
		t.Error("expected CHF to be unsupported")
	}
}
