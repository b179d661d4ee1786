package csvimport

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendsight/internal/idgen"
	"spendsight/internal/models"
	"spendsight/internal/validation"
)

// Recognised header names, compared after lower-casing.
const (
	ColDate         = "date"
	ColMerchant     = "merchant"
	ColAmount       = "amount"
	ColCurrency     = "currency"
	ColCategory     = "category"
	ColCardID       = "cardid"
	ColReimbursable = "reimbursable"
	ColNotes        = "notes"
)

const (
	// DefaultCategory is assigned to rows without a category.
	DefaultCategory = "Uncategorized"
	// DefaultCardID is assigned to rows without a card.
	DefaultCardID = "card_imported"
)

var requiredColumns = []string{ColDate, ColMerchant, ColAmount, ColCurrency}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// RowError describes why one data row was skipped. Row counts parsed rows,
// so the header is row 1 and the first data row is row 2.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Categorizer picks a category for a transaction, typically from rules.
type Categorizer interface {
	Categorize(tx models.Transaction) (*models.Category, bool)
}

// rowMapper converts parsed rows into transactions.
type rowMapper struct {
	headers     []string
	ids         idgen.Supplier
	now         time.Time
	categorizer Categorizer
}

func newRowMapper(header []string, ids idgen.Supplier, now time.Time, c Categorizer) *rowMapper {
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return &rowMapper{headers: headers, ids: ids, now: now, categorizer: c}
}

// record keys the fields of one row by header. Missing trailing fields are absent.
func (m *rowMapper) record(fields []string) map[string]string {
	rec := make(map[string]string, len(m.headers))
	for i, h := range m.headers {
		if i < len(fields) {
			rec[h] = fields[i]
		}
	}
	return rec
}

func (m *rowMapper) mapRow(fields []string) (models.Transaction, error) {
	rec := m.record(fields)

	var missing []string
	for _, col := range requiredColumns {
		if rec[col] == "" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return models.Transaction{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	date, err := parseDate(rec[ColDate])
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid date %q", rec[ColDate])
	}

	amount, err := parseAmount(rec[ColAmount])
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid amount %q", rec[ColAmount])
	}
	if !amount.IsPositive() {
		return models.Transaction{}, fmt.Errorf("amount must be greater than 0, got %s", rec[ColAmount])
	}

	tx := models.Transaction{
		ID:             m.ids.NewID(idgen.PrefixTransaction),
		Date:           date,
		Amount:         amount,
		Currency:       strings.ToUpper(rec[ColCurrency]),
		Merchant:       rec[ColMerchant],
		Category:       rec[ColCategory],
		CardID:         rec[ColCardID],
		IsReimbursable: strings.EqualFold(rec[ColReimbursable], "true"),
		Notes:          rec[ColNotes],
		CreatedAt:      m.now,
		UpdatedAt:      m.now,
	}
	if tx.CardID == "" {
		tx.CardID = DefaultCardID
	}
	if tx.Category == "" {
		tx.Category = DefaultCategory
		if m.categorizer != nil {
			if c, ok := m.categorizer.Categorize(tx); ok {
				tx.Category = c.Name
				tx.CategoryID = c.ID
			}
		}
	}

	if errs := validation.ValidateTransactionAt(tx, m.now); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Message
		}
		return models.Transaction{}, fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return tx, nil
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// groupedAmount matches commas used only as thousands separators, as in "1,234.50".
var groupedAmount = regexp.MustCompile(`^[-+]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// parseAmount accepts plain decimals and thousands separators. Any other comma,
// such as the decimal comma in "5,50", is rejected.
func parseAmount(s string) (decimal.Decimal, error) {
	if strings.Contains(s, ",") {
		if !groupedAmount.MatchString(s) {
			return decimal.Zero, fmt.Errorf("ambiguous comma in amount %q", s)
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	return decimal.NewFromString(s)
}
