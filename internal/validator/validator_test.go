package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type ruleRequest struct {
	MatchType string `validate:"required,rule_match_type"`
	Operator  string `validate:"rule_operator"`
	Color     string `validate:"omitempty,hex_color"`
	Currency  string `validate:"omitempty,iso4217"`
	Role      string `validate:"omitempty,user_role"`
}

func TestCustomTags(t *testing.T) {
	v := validator.New()
	RegisterOn(v)

	tests := []struct {
		name    string
		req     ruleRequest
		wantErr bool
	}{
		{"valid_merchant_rule", ruleRequest{MatchType: "merchant", Operator: "contains"}, false},
		{"empty_operator", ruleRequest{MatchType: "amount"}, false},
		{"bad_match_type", ruleRequest{MatchType: "weekday"}, true},
		{"bad_operator", ruleRequest{MatchType: "merchant", Operator: "regex"}, true},
		{"valid_color", ruleRequest{MatchType: "keyword", Color: "#A1b2C3"}, false},
		{"bad_color", ruleRequest{MatchType: "keyword", Color: "red"}, true},
		{"valid_currency", ruleRequest{MatchType: "date", Currency: "EUR"}, false},
		{"bad_currency", ruleRequest{MatchType: "date", Currency: "EURO"}, true},
		{"valid_role", ruleRequest{MatchType: "date", Role: "viewer"}, false},
		{"bad_role", ruleRequest{MatchType: "date", Role: "root"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsCurrencyCode(t *testing.T) {
	if !IsCurrencyCode("USD") {
		t.Error("USD should be valid")
	}
	if IsCurrencyCode("usd") {
		t.Error("lower-case codes are not ISO 4217")
	}
}
