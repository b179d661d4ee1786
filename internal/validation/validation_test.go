package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendsight/internal/models"
	"spendsight/internal/testutil"
)

var now = testutil.FixedTime.Add(time.Hour)

func fields(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidateTransaction_Valid(t *testing.T) {
	for _, amount := range []string{"0.01", "5.50", "999999.99", "1000000"} {
		tx := testutil.NewTransaction("Starbucks", amount, "USD")
		if errs := ValidateTransactionAt(tx, now); len(errs) != 0 {
			t.Errorf("amount %s: expected no errors, got %v", amount, errs)
		}
	}
}

func TestValidateTransaction_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Transaction)
		field   string
		message string
	}{
		{"missing_date", func(tx *models.Transaction) { tx.Date = time.Time{} }, "date", "Date is required"},
		{"future_date", func(tx *models.Transaction) { tx.Date = now.Add(time.Minute) }, "date", "Date cannot be in the future"},
		{"zero_amount", func(tx *models.Transaction) { tx.Amount = decimal.Zero }, "amount", "Amount must be greater than 0"},
		{"negative_amount", func(tx *models.Transaction) { tx.Amount = decimal.NewFromInt(-5) }, "amount", "Amount must be greater than 0"},
		{"large_amount", func(tx *models.Transaction) { tx.Amount = decimal.RequireFromString("1000000.01") }, "amount", "Amount seems unusually large"},
		{"missing_merchant", func(tx *models.Transaction) { tx.Merchant = "" }, "merchant", "Merchant is required"},
		{"blank_merchant", func(tx *models.Transaction) { tx.Merchant = "   " }, "merchant", "Merchant is required"},
		{"short_currency", func(tx *models.Transaction) { tx.Currency = "US" }, "currency", "Valid currency code is required (e.g., USD, EUR)"},
		{"missing_card", func(tx *models.Transaction) { tx.CardID = "" }, "card_id", "Card is required"},
		{"blank_category", func(tx *models.Transaction) { tx.Category = " " }, "category", "Category is required"},
		{"long_notes", func(tx *models.Transaction) { tx.Notes = strings.Repeat("n", 501) }, "notes", "Notes must be 500 characters or less"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := testutil.NewTransaction("Starbucks", "5.50", "USD")
			tt.mutate(&tx)

			errs := ValidateTransactionAt(tx, now)
			if len(errs) != 1 {
				t.Fatalf("expected exactly one error, got %v", errs)
			}
			if errs[0].Field != tt.field || errs[0].Message != tt.message {
				t.Errorf("expected %s: %q, got %s: %q", tt.field, tt.message, errs[0].Field, errs[0].Message)
			}
		})
	}
}

func TestValidateTransaction_Order(t *testing.T) {
	errs := ValidateTransactionAt(models.Transaction{Notes: strings.Repeat("é", 501)}, now)
	want := []string{"date", "amount", "merchant", "currency", "card_id", "category", "notes"}

	got := fields(errs)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected fields %v, got %v", want, got)
	}
}

func TestValidateTransaction_NotesCountCharacters(t *testing.T) {
	tx := testutil.NewTransaction("Starbucks", "5.50", "USD")
	tx.Notes = strings.Repeat("é", 500)
	if errs := ValidateTransactionAt(tx, now); len(errs) != 0 {
		t.Errorf("500 multi-byte characters should be accepted, got %v", errs)
	}
}

func TestIsDuplicateTransaction(t *testing.T) {
	existing := []models.Transaction{testutil.NewTransaction("Starbucks", "5.50", "USD")}

	tests := []struct {
		name      string
		merchant  string
		amount    string
		offset    time.Duration
		window    time.Duration
		duplicate bool
	}{
		{"sixty_seconds_default_window", "STARBUCKS", "5.50", 60 * time.Second, 0, true},
		{"before_existing", "starbucks", "5.5", -60 * time.Second, 0, true},
		{"three_hundred_one_seconds", "Starbucks", "5.50", 301 * time.Second, 0, false},
		{"boundary_is_exclusive", "Starbucks", "5.50", 300 * time.Second, 0, false},
		{"different_amount", "Starbucks", "5.51", 0, 0, false},
		{"different_merchant", "Dunkin", "5.50", 0, 0, false},
		{"custom_window", "Starbucks", "5.50", 10 * time.Minute, time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := testutil.NewTransactionOn(tt.merchant, tt.amount, "USD", testutil.FixedTime.Add(tt.offset))
			if got := IsDuplicateTransaction(existing, candidate, tt.window); got != tt.duplicate {
				t.Errorf("IsDuplicateTransaction() = %v, want %v", got, tt.duplicate)
			}
		})
	}
}

func TestIsDuplicateTransaction_IncompleteCandidate(t *testing.T) {
	existing := []models.Transaction{testutil.NewTransaction("Starbucks", "5.50", "USD")}

	noMerchant := testutil.NewTransaction("", "5.50", "USD")
	noDate := testutil.NewTransaction("Starbucks", "5.50", "USD")
	noDate.Date = time.Time{}
	noAmount := testutil.NewTransaction("Starbucks", "0", "USD")

	for _, c := range []models.Transaction{noMerchant, noDate, noAmount} {
		if IsDuplicateTransaction(existing, c, 0) {
			t.Errorf("incomplete candidate %+v should never be a duplicate", c)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if !ValidateEmail("demo@example.com") {
		t.Error("expected valid email")
	}
	for _, bad := range []string{"", "demo", "demo@"} {
		if ValidateEmail(bad) {
			t.Errorf("expected %q to be invalid", bad)
		}
	}
}

func TestValidateCurrencyCode(t *testing.T) {
	tests := map[string]bool{
		"USD":  true,
		"usd":  false,
		"US":   false,
		"USDT": false,
		"U5D":  false,
	}
	for code, want := range tests {
		if got := ValidateCurrencyCode(code); got != want {
			t.Errorf("ValidateCurrencyCode(%q) = %v, want %v", code, got, want)
		}
	}
}

func TestValidateDateRange(t *testing.T) {
	start := testutil.FixedTime
	if !ValidateDateRange(start, start) {
		t.Error("equal dates should be a valid range")
	}
	if ValidateDateRange(start.Add(time.Second), start) {
		t.Error("start after end should be invalid")
	}
}

func TestSanitizeNotes(t *testing.T) {
	if got := SanitizeNotes("  <b>lunch</b>  "); got != "blunch/b" {
		t.Errorf("SanitizeNotes = %q", got)
	}
	long := strings.Repeat("a", 600)
	if got := SanitizeNotes(long); len(got) != MaxNotesLength {
		t.Errorf("expected truncation to %d, got %d", MaxNotesLength, len(got))
	}
}
