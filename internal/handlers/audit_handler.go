package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "spendsight/internal/errors"
	"spendsight/internal/models"
	"spendsight/internal/pagination"
	"spendsight/internal/services"
	"spendsight/internal/validation"
)

// AuditHandler serves the audit trail.
type AuditHandler struct {
	auditService services.AuditServicer
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService services.AuditServicer) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func parseAuditFilter(c *gin.Context) (models.AuditLogFilter, error) {
	filter := models.AuditLogFilter{
		UserID:       c.Query("user_id"),
		Action:       models.AuditAction(c.Query("action")),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
	}

	if v := c.Query("start_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.EndDate = &t
	}
	if filter.StartDate != nil && filter.EndDate != nil && !validation.ValidateDateRange(*filter.StartDate, *filter.EndDate) {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "start_date must not be after end_date")
	}

	return filter, nil
}

// ListAuditLogs returns a page of audit entries, newest first
// @Summary     List audit logs
// @Tags        audit
// @Produce     json
// @Security    BearerAuth
// @Param       user_id       query string false "User ID"
// @Param       action        query string false "Action"
// @Param       resource_type query string false "Resource type"
// @Param       resource_id   query string false "Resource ID"
// @Param       start_date    query string false "From (RFC3339 or YYYY-MM-DD)"
// @Param       end_date      query string false "To (RFC3339 or YYYY-MM-DD)"
// @Param       page          query int    false "Page number"
// @Param       page_size     query int    false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.AuditLog] "Audit entries"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseAuditFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.auditService.List(c.Request.Context(), filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAuditStats summarises the audit entries matching the filter
// @Summary     Audit statistics
// @Tags        audit
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.AuditStats "Statistics"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /audit-logs/stats [get]
func (h *AuditHandler) GetAuditStats(c *gin.Context) {
	filter, err := parseAuditFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.auditService.Stats(c.Request.Context(), filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
