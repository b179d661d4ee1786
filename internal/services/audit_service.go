package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "spendsight/internal/errors"
	"spendsight/internal/logger"
	"spendsight/internal/models"
	"spendsight/internal/pagination"
)

// auditDayLayout keys the per-day counters of AuditStats.
const auditDayLayout = "2006-01-02"

// auditService handles audit log recording.
type auditService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db, log: logger.Named("audit")}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(ctx context.Context, entry AuditEntry) {
	row := &models.AuditLog{
		UserID:        entry.UserID,
		Action:        entry.Action,
		ResourceType:  entry.ResourceType,
		ResourceID:    entry.ResourceID,
		ChangesBefore: s.encode(entry.Before, entry.Action),
		ChangesAfter:  s.encode(entry.After, entry.Action),
		Metadata:      s.encode(entry.Metadata, entry.Action),
		IPAddress:     entry.IPAddress,
		UserAgent:     entry.UserAgent,
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		s.log.Errorw("failed to create audit log entry",
			"error", err,
			"user_id", entry.UserID,
			"action", entry.Action,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
		)
	}
}

func (s *auditService) encode(v map[string]any, action models.AuditAction) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Errorw("failed to marshal audit log changes", "error", err, "action", action)
		return "{}"
	}
	return string(data)
}

// List returns a page of entries matching filter, newest first.
func (s *auditService) List(ctx context.Context, filter models.AuditLogFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()

	var total int64
	if err := s.filtered(ctx, filter).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	if err := s.filtered(ctx, filter).
		Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(entries, page.Page, page.PageSize, total)
	return &resp, nil
}

// Stats counts the entries matching filter by action, user and day.
func (s *auditService) Stats(ctx context.Context, filter models.AuditLogFilter) (*models.AuditStats, error) {
	var entries []models.AuditLog
	if err := s.filtered(ctx, filter).
		Select("user_id", "action", "created_at").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := &models.AuditStats{
		TotalActions:  int64(len(entries)),
		ActionsByType: make(map[models.AuditAction]int64),
		ChangesByUser: make(map[string]int64),
		ChangesPerDay: make(map[string]int64),
	}
	for _, e := range entries {
		stats.ActionsByType[e.Action]++
		stats.ChangesByUser[e.UserID]++
		stats.ChangesPerDay[e.CreatedAt.Format(auditDayLayout)]++
	}
	return stats, nil
}

func (s *auditService) filtered(ctx context.Context, f models.AuditLogFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.ResourceType != "" {
		q = q.Where("resource_type = ?", f.ResourceType)
	}
	if f.ResourceID != "" {
		q = q.Where("resource_id = ?", f.ResourceID)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", *f.EndDate)
	}
	return q
}
