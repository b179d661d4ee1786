// Package validation holds the business-rule checks applied to candidate
// transactions before they reach the ledger, plus the duplicate heuristics.
package validation

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"spendsight/internal/models"
)

const (
	// MaxNotesLength is the longest note, in characters, a transaction may carry.
	MaxNotesLength = 500
	// DefaultDuplicateWindow is the time window used by IsDuplicateTransaction
	// when the caller does not supply one.
	DefaultDuplicateWindow = 300 * time.Second
)

var largeAmount = decimal.NewFromInt(1_000_000)

// ValidationError describes one problem with one field of a candidate.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateTransaction checks a candidate against the current time.
// An empty result means the candidate is acceptable.
func ValidateTransaction(t models.Transaction) []ValidationError {
	return ValidateTransactionAt(t, time.Now())
}

// ValidateTransactionAt checks a candidate, treating now as the present.
// Errors are returned in a fixed field order; a large amount is reported as
// an error like any other.
func ValidateTransactionAt(t models.Transaction, now time.Time) []ValidationError {
	var errs []ValidationError
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if t.Date.IsZero() {
		add("date", "Date is required")
	} else if t.Date.After(now) {
		add("date", "Date cannot be in the future")
	}

	if !t.Amount.IsPositive() {
		add("amount", "Amount must be greater than 0")
	}
	if t.Amount.GreaterThan(largeAmount) {
		add("amount", "Amount seems unusually large")
	}

	if strings.TrimSpace(t.Merchant) == "" {
		add("merchant", "Merchant is required")
	}

	if utf8.RuneCountInString(t.Currency) != 3 {
		add("currency", "Valid currency code is required (e.g., USD, EUR)")
	}

	if t.CardID == "" {
		add("card_id", "Card is required")
	}

	if strings.TrimSpace(t.Category) == "" {
		add("category", "Category is required")
	}

	if utf8.RuneCountInString(t.Notes) > MaxNotesLength {
		add("notes", "Notes must be 500 characters or less")
	}

	return errs
}

// ValidateEmail reports whether email looks like a deliverable address.
func ValidateEmail(email string) bool {
	return engine().Var(email, "required,email") == nil
}

// ValidateCurrencyCode reports whether code is exactly three upper-case letters.
func ValidateCurrencyCode(code string) bool {
	return engine().Var(code, "len=3,alpha,uppercase") == nil
}

// ValidateDateRange reports whether start does not come after end.
func ValidateDateRange(start, end time.Time) bool {
	return !start.After(end)
}

// SanitizeNotes trims notes, truncates them to MaxNotesLength characters and
// strips angle brackets.
func SanitizeNotes(notes string) string {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		notes = string([]rune(notes)[:MaxNotesLength])
	}
	return strings.NewReplacer("<", "", ">", "").Replace(notes)
}

// IsDuplicateTransaction reports whether any existing transaction has the
// same amount, the same merchant ignoring case, and a date strictly less than
// window away from the candidate. A non-positive window means
// DefaultDuplicateWindow. Candidates without date, amount or merchant never
// match. The result is advisory; nothing rejects duplicates.
func IsDuplicateTransaction(existing []models.Transaction, candidate models.Transaction, window time.Duration) bool {
	if candidate.Date.IsZero() || candidate.Amount.IsZero() || candidate.Merchant == "" {
		return false
	}
	if window <= 0 {
		window = DefaultDuplicateWindow
	}

	for _, t := range existing {
		if absDuration(t.Date.Sub(candidate.Date)) < window &&
			t.Amount.Equal(candidate.Amount) &&
			strings.EqualFold(t.Merchant, candidate.Merchant) {
			return true
		}
	}
	return false
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
