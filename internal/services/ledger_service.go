package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "spendsight/internal/errors"
	"spendsight/internal/idgen"
	"spendsight/internal/logger"
	"spendsight/internal/models"
)

// ledgerService keeps transactions in memory in insertion order.
type ledgerService struct {
	mu   sync.RWMutex
	txns []models.Transaction
	ids  idgen.Supplier
	now  Clock
	log  *zap.SugaredLogger
}

// LedgerOption customises a ledger at construction.
type LedgerOption func(*ledgerService)

// WithLedgerClock overrides the time source used for updatedAt stamps.
func WithLedgerClock(now Clock) LedgerOption {
	return func(s *ledgerService) { s.now = now }
}

// WithLedgerIDs overrides the identifier supplier used for records added without an id.
func WithLedgerIDs(ids idgen.Supplier) LedgerOption {
	return func(s *ledgerService) { s.ids = ids }
}

// NewLedger creates a LedgerServicer seeded with initial, which is copied.
func NewLedger(initial []models.Transaction, opts ...LedgerOption) LedgerServicer {
	s := &ledgerService{
		ids: idgen.Default,
		now: time.Now,
		log: logger.Named("ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.txns = make([]models.Transaction, 0, len(initial))
	for _, tx := range initial {
		s.txns = append(s.txns, cloneTransaction(tx))
	}
	return s
}

// Add appends tx without validating it. A missing id or timestamp is filled in.
func (s *ledgerService) Add(tx models.Transaction) models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.prepare(tx)
	s.txns = append(s.txns, stored)
	return cloneTransaction(stored)
}

// ImportBatch appends txs in order, as if Add were called for each.
func (s *ledgerService) ImportBatch(txs []models.Transaction) []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		stored := s.prepare(tx)
		s.txns = append(s.txns, stored)
		out = append(out, cloneTransaction(stored))
	}
	s.log.Infow("batch committed", "count", len(txs), "total", len(s.txns))
	return out
}

func (s *ledgerService) prepare(tx models.Transaction) models.Transaction {
	stored := cloneTransaction(tx)
	if stored.ID == "" {
		stored.ID = s.ids.NewID(idgen.PrefixTransaction)
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	return stored
}

// Update merges patch into the record with the given id and refreshes
// updatedAt. An unknown id leaves the ledger unchanged.
func (s *ledgerService) Update(id string, patch models.TransactionPatch) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, apperrors.ErrTransactionNotFound
	}

	tx := &s.txns[i]
	patch.Apply(tx)
	tx.UpdatedAt = s.now()
	if tx.UpdatedAt.Before(tx.CreatedAt) {
		tx.UpdatedAt = tx.CreatedAt
	}

	out := cloneTransaction(*tx)
	return &out, nil
}

// Delete removes the record with the given id.
func (s *ledgerService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return apperrors.ErrTransactionNotFound
	}
	s.txns = append(s.txns[:i], s.txns[i+1:]...)
	return nil
}

// Get returns a copy of the record with the given id.
func (s *ledgerService) Get(id string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, apperrors.ErrTransactionNotFound
	}
	out := cloneTransaction(s.txns[i])
	return &out, nil
}

// Query returns the records matching every set field of filter, in insertion order.
func (s *ledgerService) Query(filter models.TransactionFilter) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, 0)
	for _, tx := range s.txns {
		if matchesFilter(tx, filter) {
			out = append(out, cloneTransaction(tx))
		}
	}
	return out
}

// Stats aggregates amounts over the filtered set, or over everything when
// filter is nil. Amounts are summed as-is without currency conversion.
func (s *ledgerService) Stats(filter *models.TransactionFilter) models.TransactionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.TransactionStats{
		TotalAmount:       decimal.Zero,
		AverageAmount:     decimal.Zero,
		MinAmount:         decimal.Zero,
		MaxAmount:         decimal.Zero,
		CurrencyBreakdown: make(map[string]decimal.Decimal),
	}

	for _, tx := range s.txns {
		if filter != nil && !matchesFilter(tx, *filter) {
			continue
		}
		if stats.TotalCount == 0 {
			stats.MinAmount = tx.Amount
			stats.MaxAmount = tx.Amount
		} else {
			stats.MinAmount = decimal.Min(stats.MinAmount, tx.Amount)
			stats.MaxAmount = decimal.Max(stats.MaxAmount, tx.Amount)
		}
		stats.TotalCount++
		stats.TotalAmount = stats.TotalAmount.Add(tx.Amount)
		stats.CurrencyBreakdown[tx.Currency] = stats.CurrencyBreakdown[tx.Currency].Add(tx.Amount)
	}

	if stats.TotalCount > 0 {
		stats.AverageAmount = stats.TotalAmount.Div(decimal.NewFromInt(int64(stats.TotalCount)))
	}
	return stats
}

// CategoryStats groups the filtered set by category name, largest spend first.
func (s *ledgerService) CategoryStats(filter *models.TransactionFilter) []models.CategoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName := make(map[string]*models.CategoryStats)
	var order []string
	total := decimal.Zero

	for _, tx := range s.txns {
		if filter != nil && !matchesFilter(tx, *filter) {
			continue
		}
		cs, ok := byName[tx.Category]
		if !ok {
			cs = &models.CategoryStats{Name: tx.Category, TotalSpend: decimal.Zero}
			byName[tx.Category] = cs
			order = append(order, tx.Category)
		}
		if cs.CategoryID == "" {
			cs.CategoryID = tx.CategoryID
		}
		cs.TotalSpend = cs.TotalSpend.Add(tx.Amount)
		cs.TransactionCount++
		total = total.Add(tx.Amount)
	}

	out := make([]models.CategoryStats, 0, len(order))
	for _, name := range order {
		cs := *byName[name]
		if total.IsPositive() {
			cs.PercentageOfTotal = cs.TotalSpend.Div(total).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
		}
		out = append(out, cs)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalSpend.GreaterThan(out[j].TotalSpend)
	})
	return out
}

// Clear empties the ledger.
func (s *ledgerService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Infow("ledger cleared", "removed", len(s.txns))
	s.txns = nil
}

// All returns a copy of every record in insertion order.
func (s *ledgerService) All() []models.Transaction {
	return s.Query(models.TransactionFilter{})
}

// Count returns the number of records held.
func (s *ledgerService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txns)
}

func (s *ledgerService) indexOf(id string) int {
	for i := range s.txns {
		if s.txns[i].ID == id {
			return i
		}
	}
	return -1
}

// matchesFilter applies every set field of f to tx. Date bounds are inclusive.
func matchesFilter(tx models.Transaction, f models.TransactionFilter) bool {
	if f.StartDate != nil && tx.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && tx.Date.After(*f.EndDate) {
		return false
	}
	if f.Category != "" && tx.Category != f.Category {
		return false
	}
	if f.CardID != "" && tx.CardID != f.CardID {
		return false
	}
	if f.Merchant != "" && !strings.Contains(strings.ToLower(tx.Merchant), strings.ToLower(f.Merchant)) {
		return false
	}
	if f.Currency != "" && tx.Currency != f.Currency {
		return false
	}
	if f.MinAmount != nil && tx.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && tx.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	if f.IsReimbursable != nil && tx.IsReimbursable != *f.IsReimbursable {
		return false
	}
	return true
}

// cloneTransaction copies tx including the values behind its pointer fields.
func cloneTransaction(tx models.Transaction) models.Transaction {
	if tx.OriginalAmount != nil {
		v := *tx.OriginalAmount
		tx.OriginalAmount = &v
	}
	if tx.ConvertedAmount != nil {
		v := *tx.ConvertedAmount
		tx.ConvertedAmount = &v
	}
	return tx
}
