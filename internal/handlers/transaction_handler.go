package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spendsight/internal/csvimport"
	"spendsight/internal/currency"
	apperrors "spendsight/internal/errors"
	"spendsight/internal/models"
	"spendsight/internal/pagination"
	"spendsight/internal/services"
	"spendsight/internal/validation"
)

// Importer runs CSV imports into the ledger.
type Importer interface {
	Run(ctx context.Context, src csvimport.Source) (csvimport.Outcome, error)
	State() csvimport.State
	LastOutcome() (csvimport.Outcome, bool)
}

// TransactionHandlerConfig carries the ledger settings the handler applies.
type TransactionHandlerConfig struct {
	BaseCurrency    string
	DuplicateWindow time.Duration
	Now             services.Clock
}

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	ledger       services.LedgerServicer
	categories   services.CategoryServicer
	importer     Importer
	auditService services.AuditServicer
	cfg          TransactionHandlerConfig
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(
	ledger services.LedgerServicer,
	categories services.CategoryServicer,
	importer Importer,
	auditService services.AuditServicer,
	cfg TransactionHandlerConfig,
) *TransactionHandler {
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = "USD"
	}
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = validation.DefaultDuplicateWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TransactionHandler{
		ledger:       ledger,
		categories:   categories,
		importer:     importer,
		auditService: auditService,
		cfg:          cfg,
	}
}

// CreateTransactionRequest represents the request payload for a quick-add transaction
type CreateTransactionRequest struct {
	Date           *string         `json:"date"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"string" example:"12.50"`
	Currency       string          `json:"currency" binding:"omitempty,iso4217"`
	Merchant       string          `json:"merchant" binding:"max=200"`
	Category       string          `json:"category" binding:"max=100"`
	CardID         string          `json:"card_id"`
	ReceiptURL     string          `json:"receipt_url" binding:"omitempty,url"`
	IsReimbursable bool            `json:"is_reimbursable"`
	Notes          string          `json:"notes"`
}

// UpdateTransactionRequest represents the request payload for patching a transaction
type UpdateTransactionRequest struct {
	Date           *string          `json:"date"`
	Amount         *decimal.Decimal `json:"amount" swaggertype:"string"`
	Currency       *string          `json:"currency" binding:"omitempty,iso4217"`
	Merchant       *string          `json:"merchant" binding:"omitempty,max=200"`
	Category       *string          `json:"category" binding:"omitempty,max=100"`
	CardID         *string          `json:"card_id"`
	ReceiptURL     *string          `json:"receipt_url"`
	IsReimbursable *bool            `json:"is_reimbursable"`
	Notes          *string          `json:"notes"`
}

// DuplicateCheckRequest represents a candidate checked against the ledger
type DuplicateCheckRequest struct {
	Date     string          `json:"date" binding:"required"`
	Amount   decimal.Decimal `json:"amount" swaggertype:"string"`
	Merchant string          `json:"merchant" binding:"required"`
}

// DuplicateCheckResponse reports exact and fuzzy matches for a candidate
type DuplicateCheckResponse struct {
	IsDuplicate bool                            `json:"is_duplicate"`
	Similar     []validation.SimilarTransaction `json:"similar"`
}

// ValidationFailedResponse lists every field that failed validation
type ValidationFailedResponse struct {
	Error  ErrorDetail                  `json:"error"`
	Errors []validation.ValidationError `json:"errors"`
}

func respondWithValidationErrors(c *gin.Context, errs []validation.ValidationError) {
	c.JSON(apperrors.ErrValidation.StatusCode, ValidationFailedResponse{
		Error: ErrorDetail{
			Code:    apperrors.ErrValidation.Code,
			Message: apperrors.ErrValidation.Message,
		},
		Errors: errs,
	})
}

// CreateTransaction handles quick-add of a single transaction
// @Summary     Create a transaction
// @Description Validate and add one transaction. Empty categories are filled by the category rules.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ValidationFailedResponse "Validation failed"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date := h.cfg.Now()
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		date = parsed
	}

	code := strings.ToUpper(strings.TrimSpace(req.Currency))
	if code == "" {
		code = h.cfg.BaseCurrency
	}

	tx := models.Transaction{
		Date:           date,
		Amount:         req.Amount,
		Currency:       code,
		Merchant:       strings.TrimSpace(req.Merchant),
		Category:       strings.TrimSpace(req.Category),
		CardID:         req.CardID,
		ReceiptURL:     req.ReceiptURL,
		IsReimbursable: req.IsReimbursable,
		Notes:          req.Notes,
	}

	categorized := false
	if tx.Category == "" {
		if cat, ok := h.categories.Categorize(tx); ok {
			tx.Category = cat.Name
			tx.CategoryID = cat.ID
			categorized = true
		}
	}

	if errs := validation.ValidateTransactionAt(tx, h.cfg.Now()); len(errs) > 0 {
		respondWithValidationErrors(c, errs)
		return
	}
	tx.Notes = validation.SanitizeNotes(tx.Notes)

	if code != h.cfg.BaseCurrency {
		original := tx.Amount
		converted := currency.Convert(tx.Amount, code, h.cfg.BaseCurrency)
		tx.OriginalAmount = &original
		tx.OriginalCurrency = code
		tx.ConvertedAmount = &converted
	}

	created := h.ledger.Add(tx)

	entry := newAuditEntry(c, userID, models.AuditCreate, models.ResourceTransaction, created.ID)
	entry.After = map[string]any{"merchant": created.Merchant, "amount": created.Amount.String(), "currency": created.Currency, "category": created.Category}
	entry.Metadata = map[string]any{"auto_categorized": categorized}
	h.auditService.Log(c.Request.Context(), entry)

	c.JSON(http.StatusCreated, gin.H{"transaction": created})
}

// ListTransactions returns a page of transactions matching the query filter
// @Summary     List transactions
// @Description Get transactions in insertion order, narrowed by optional filters
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page            query int    false "Page number"
// @Param       page_size       query int    false "Items per page"
// @Param       start_date      query string false "Earliest date (RFC3339 or YYYY-MM-DD)"
// @Param       end_date        query string false "Latest date (RFC3339 or YYYY-MM-DD)"
// @Param       category        query string false "Category name"
// @Param       card_id         query string false "Card ID"
// @Param       merchant        query string false "Merchant substring"
// @Param       currency        query string false "Currency code"
// @Param       min_amount      query string false "Minimum amount"
// @Param       max_amount      query string false "Maximum amount"
// @Param       is_reimbursable query bool   false "Reimbursable flag"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.Slice(h.ledger.Query(filter), page))
}

// GetTransaction returns one transaction
// @Summary     Get transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.ledger.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// UpdateTransaction applies a partial update to a transaction
// @Summary     Update transaction
// @Description Merge the supplied fields into a transaction. The merged result must still validate.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     422 {object} ValidationFailedResponse "Validation failed"
// @Router      /transactions/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	patch := models.TransactionPatch{
		Amount:         req.Amount,
		Merchant:       req.Merchant,
		Category:       req.Category,
		CardID:         req.CardID,
		ReceiptURL:     req.ReceiptURL,
		IsReimbursable: req.IsReimbursable,
		Notes:          req.Notes,
	}
	if req.Currency != nil {
		code := strings.ToUpper(*req.Currency)
		patch.Currency = &code
	}
	if req.Date != nil {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		patch.Date = &parsed
	}

	current, err := h.ledger.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	merged := *current
	patch.Apply(&merged)
	if errs := validation.ValidateTransactionAt(merged, h.cfg.Now()); len(errs) > 0 {
		respondWithValidationErrors(c, errs)
		return
	}
	if patch.Notes != nil {
		notes := validation.SanitizeNotes(*patch.Notes)
		patch.Notes = &notes
	}

	updated, err := h.ledger.Update(id, patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry := newAuditEntry(c, userID, models.AuditUpdate, models.ResourceTransaction, id)
	entry.Before = map[string]any{"merchant": current.Merchant, "amount": current.Amount.String(), "category": current.Category}
	entry.After = map[string]any{"merchant": updated.Merchant, "amount": updated.Amount.String(), "category": updated.Category}
	h.auditService.Log(c.Request.Context(), entry)

	c.JSON(http.StatusOK, gin.H{"transaction": updated})
}

// DeleteTransaction removes one transaction
// @Summary     Delete transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]string "Transaction deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ledger.Delete(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), newAuditEntry(c, userID, models.AuditDelete, models.ResourceTransaction, id))

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// ClearTransactions removes every transaction from the ledger
// @Summary     Clear ledger
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Ledger cleared"
// @Router      /transactions [delete]
func (h *TransactionHandler) ClearTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	removed := h.ledger.Count()
	h.ledger.Clear()

	entry := newAuditEntry(c, userID, models.AuditDelete, models.ResourceTransaction, "")
	entry.Metadata = map[string]any{"removed": removed}
	h.auditService.Log(c.Request.Context(), entry)

	c.JSON(http.StatusOK, gin.H{"message": "Ledger cleared", "removed": removed})
}

// GetStats returns aggregate amounts for the matching transactions
// @Summary     Transaction statistics
// @Description Totals, mean, extremes and a per-currency breakdown. Amounts are not converted.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.TransactionStats "Statistics"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /transactions/stats [get]
func (h *TransactionHandler) GetStats(c *gin.Context) {
	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var f *models.TransactionFilter
	if hasFilter(filter) {
		f = &filter
	}
	c.JSON(http.StatusOK, gin.H{"stats": h.ledger.Stats(f)})
}

// GetCategoryStats returns spend per category name
// @Summary     Category statistics
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.CategoryStats "Per-category spend"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /transactions/stats/categories [get]
func (h *TransactionHandler) GetCategoryStats(c *gin.Context) {
	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var f *models.TransactionFilter
	if hasFilter(filter) {
		f = &filter
	}
	c.JSON(http.StatusOK, gin.H{"categories": h.ledger.CategoryStats(f)})
}

// CheckDuplicates reports whether a candidate duplicates a recorded transaction
// @Summary     Check for duplicates
// @Description Exact match within the duplicate window plus fuzzy merchant suggestions. Advisory only.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body DuplicateCheckRequest true "Candidate"
// @Success     200 {object} DuplicateCheckResponse "Matches"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions/duplicates [post]
func (h *TransactionHandler) CheckDuplicates(c *gin.Context) {
	var req DuplicateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseFlexibleTime(req.Date)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	candidate := models.Transaction{Date: date, Amount: req.Amount, Merchant: req.Merchant}
	existing := h.ledger.All()

	similar := validation.FindSimilarTransactions(existing, candidate, 0)
	if similar == nil {
		similar = []validation.SimilarTransaction{}
	}

	c.JSON(http.StatusOK, DuplicateCheckResponse{
		IsDuplicate: validation.IsDuplicateTransaction(existing, candidate, h.cfg.DuplicateWindow),
		Similar:     similar,
	})
}

// ImportTransactions imports an uploaded CSV file into the ledger
// @Summary     Import CSV
// @Description Import transactions from a CSV file. Rows that fail to convert are skipped and reported.
// @Tags        transactions
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "CSV file"
// @Success     200 {object} csvimport.Outcome "Import succeeded"
// @Failure     400 {object} ErrorResponse "No file uploaded"
// @Failure     409 {object} ErrorResponse "Import already running"
// @Failure     422 {object} csvimport.Outcome "Import failed"
// @Router      /transactions/import [post]
func (h *TransactionHandler) ImportTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}

	out, err := h.importer.Run(c.Request.Context(), csvimport.MultipartSource{Header: fh})
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry := newAuditEntry(c, userID, models.AuditImport, models.ResourceTransaction, "")
	entry.Metadata = map[string]any{
		"file":            fh.Filename,
		"status":          out.Status,
		"imported_count":  out.ImportedCount,
		"skipped_count":   out.SkippedCount,
		"duplicate_count": out.DuplicateCount,
	}
	h.auditService.Log(c.Request.Context(), entry)

	if out.Status != csvimport.StatusSuccess {
		c.JSON(http.StatusUnprocessableEntity, out)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetImportState reports where the importer is in its cycle and how the last import went
// @Summary     Import state
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "State and last outcome"
// @Router      /transactions/import [get]
func (h *TransactionHandler) GetImportState(c *gin.Context) {
	resp := gin.H{"state": h.importer.State()}
	if last, ok := h.importer.LastOutcome(); ok {
		resp["last"] = last
	}
	c.JSON(http.StatusOK, resp)
}
