// Package currency provides the exchange-rate lookup used for multi-currency
// provenance, plus formatting helpers. Rates are a fixed table; no amounts in
// the ledger statistics are ever converted through it.
package currency

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var rates = map[string]map[string]decimal.Decimal{
	"USD": row("1", "0.92", "0.79", "1.36", "1.53", "149.5"),
	"EUR": row("1.09", "1", "0.86", "1.48", "1.67", "163.5"),
	"GBP": row("1.27", "1.16", "1", "1.72", "1.94", "190.0"),
	"CAD": row("0.74", "0.68", "0.58", "1", "1.13", "110.0"),
	"AUD": row("0.65", "0.60", "0.51", "0.88", "1", "97.5"),
	"JPY": row("0.0067", "0.0061", "0.0053", "0.0091", "0.0103", "1"),
}

// row builds a rate row in the fixed column order USD, EUR, GBP, CAD, AUD, JPY.
func row(usd, eur, gbp, cad, aud, jpy string) map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"USD": decimal.RequireFromString(usd),
		"EUR": decimal.RequireFromString(eur),
		"GBP": decimal.RequireFromString(gbp),
		"CAD": decimal.RequireFromString(cad),
		"AUD": decimal.RequireFromString(aud),
		"JPY": decimal.RequireFromString(jpy),
	}
}

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CAD": "C$",
	"AUD": "A$",
	"JPY": "¥",
}

// RateFunc is the shape of an exchange-rate lookup.
type RateFunc func(from, to string) decimal.Decimal

// Rate returns how many units of to one unit of from buys.
// Unknown pairs yield 1.
func Rate(from, to string) decimal.Decimal {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1)
	}
	if r, ok := rates[from][to]; ok {
		return r
	}
	return decimal.NewFromInt(1)
}

// Convert converts amount between currencies, rounded to two places.
// When the source currency is unknown the USD row is used; when that also
// lacks the target the amount is returned unchanged (rate 1).
func Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return amount
	}

	rate, ok := rates[from][to]
	if !ok {
		rate, ok = rates["USD"][to]
	}
	if !ok {
		rate = decimal.NewFromInt(1)
	}
	return amount.Mul(rate).Round(2)
}

// Symbol returns the display symbol for a currency, or the code itself.
func Symbol(code string) string {
	if s, ok := symbols[strings.ToUpper(code)]; ok {
		return s
	}
	return code
}

// Format renders an amount with its currency symbol and two decimals.
func Format(amount decimal.Decimal, code string) string {
	return Symbol(code) + amount.StringFixed(2)
}

var nonNumeric = regexp.MustCompile(`[^\d.-]`)

// ParseAmount extracts a number from a formatted string such as "$1,234.50".
// Unparseable input yields zero.
func ParseAmount(formatted string) decimal.Decimal {
	cleaned := nonNumeric.ReplaceAllString(formatted, "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Supported lists the currency codes present in the rate table.
func Supported() []string {
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// IsSupported reports whether code (any case) is in the rate table.
func IsSupported(code string) bool {
	_, ok := rates[strings.ToUpper(code)]
	return ok
}
