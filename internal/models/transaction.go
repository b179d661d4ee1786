package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents one financial event in the ledger.
// Amount is always a positive magnitude; Currency is a 3-letter code.
type Transaction struct {
	ID             string          `json:"id"`
	Date           time.Time       `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Merchant       string          `json:"merchant"`
	Category       string          `json:"category"`
	CategoryID     string          `json:"category_id,omitempty"`
	CardID         string          `json:"card_id"`
	ReceiptURL     string          `json:"receipt_url,omitempty"`
	IsReimbursable bool            `json:"is_reimbursable"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Multi-currency provenance
	OriginalAmount   *decimal.Decimal `json:"original_amount,omitempty"`
	OriginalCurrency string           `json:"original_currency,omitempty"`
	ConvertedAmount  *decimal.Decimal `json:"converted_amount,omitempty"`
}

// TransactionPatch holds a partial update. Nil fields are left untouched.
type TransactionPatch struct {
	Date             *time.Time       `json:"date"`
	Amount           *decimal.Decimal `json:"amount"`
	Currency         *string          `json:"currency"`
	Merchant         *string          `json:"merchant"`
	Category         *string          `json:"category"`
	CategoryID       *string          `json:"category_id"`
	CardID           *string          `json:"card_id"`
	ReceiptURL       *string          `json:"receipt_url"`
	IsReimbursable   *bool            `json:"is_reimbursable"`
	Notes            *string          `json:"notes"`
	OriginalAmount   *decimal.Decimal `json:"original_amount"`
	OriginalCurrency *string          `json:"original_currency"`
	ConvertedAmount  *decimal.Decimal `json:"converted_amount"`
}

// Apply merges the non-nil fields of p into t. It does not touch timestamps.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Currency != nil {
		t.Currency = *p.Currency
	}
	if p.Merchant != nil {
		t.Merchant = *p.Merchant
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.CardID != nil {
		t.CardID = *p.CardID
	}
	if p.ReceiptURL != nil {
		t.ReceiptURL = *p.ReceiptURL
	}
	if p.IsReimbursable != nil {
		t.IsReimbursable = *p.IsReimbursable
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.OriginalAmount != nil {
		v := *p.OriginalAmount
		t.OriginalAmount = &v
	}
	if p.OriginalCurrency != nil {
		t.OriginalCurrency = *p.OriginalCurrency
	}
	if p.ConvertedAmount != nil {
		v := *p.ConvertedAmount
		t.ConvertedAmount = &v
	}
}

// TransactionFilter narrows a ledger query. Every set field must match
// (logical AND). Empty strings and nil pointers impose no constraint.
type TransactionFilter struct {
	StartDate      *time.Time
	EndDate        *time.Time
	Category       string
	CardID         string
	Merchant       string // case-insensitive substring
	Currency       string
	MinAmount      *decimal.Decimal
	MaxAmount      *decimal.Decimal
	IsReimbursable *bool
}

// TransactionStats aggregates the amounts of a set of transactions.
// Amounts are never converted: CurrencyBreakdown sums each currency separately
// and the totals are raw sums across currencies.
type TransactionStats struct {
	TotalCount        int                        `json:"total_count"`
	TotalAmount       decimal.Decimal            `json:"total_amount"`
	AverageAmount     decimal.Decimal            `json:"average_amount"`
	MinAmount         decimal.Decimal            `json:"min_amount"`
	MaxAmount         decimal.Decimal            `json:"max_amount"`
	CurrencyBreakdown map[string]decimal.Decimal `json:"currency_breakdown"`
}

// CategoryStats summarises spend for one category name.
type CategoryStats struct {
	CategoryID        string          `json:"category_id,omitempty"`
	Name              string          `json:"name"`
	TotalSpend        decimal.Decimal `json:"total_spend"`
	TransactionCount  int             `json:"transaction_count"`
	PercentageOfTotal float64         `json:"percentage_of_total"`
}
