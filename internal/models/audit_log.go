package models

import (
	"time"

	"gorm.io/gorm"

	"spendsight/internal/idgen"
)

// AuditAction names the kind of change recorded in the audit trail.
type AuditAction string

const (
	AuditCreate     AuditAction = "CREATE"
	AuditUpdate     AuditAction = "UPDATE"
	AuditDelete     AuditAction = "DELETE"
	AuditImport     AuditAction = "IMPORT"
	AuditCategorize AuditAction = "CATEGORIZE"
	AuditLogin      AuditAction = "LOGIN"
	AuditLogout     AuditAction = "LOGOUT"
	AuditExport     AuditAction = "EXPORT"
	AuditMerge      AuditAction = "MERGE"
	AuditArchive    AuditAction = "ARCHIVE"
)

// Audit resource types.
const (
	ResourceTransaction = "transaction"
	ResourceCategory    = "category"
	ResourceCard        = "card"
	ResourceUser        = "user"
	ResourceRule        = "rule"
	ResourceTemplate    = "template"
	ResourceSession     = "session"
)

// AuditLog records a user operation. Change sets are stored as JSON text.
type AuditLog struct {
	ID            string      `gorm:"primaryKey;size:64" json:"id"`
	UserID        string      `gorm:"not null;index" json:"user_id"`
	Action        AuditAction `gorm:"not null;index" json:"action"`
	ResourceType  string      `gorm:"not null" json:"resource_type"`
	ResourceID    string      `json:"resource_id"`
	ChangesBefore string      `json:"changes_before,omitempty"`
	ChangesAfter  string      `json:"changes_after,omitempty"`
	Metadata      string      `json:"metadata,omitempty"`
	IPAddress     string      `json:"ip_address,omitempty"`
	UserAgent     string      `json:"user_agent,omitempty"`
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a prefixed identifier to new entries.
func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = idgen.New(idgen.PrefixAudit)
	}
	return nil
}

// AuditLogFilter narrows an audit log listing.
type AuditLogFilter struct {
	UserID       string
	Action       AuditAction
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
}

// AuditStats summarises a set of audit entries.
type AuditStats struct {
	TotalActions  int64                 `json:"total_actions"`
	ActionsByType map[AuditAction]int64 `json:"actions_by_type"`
	ChangesByUser map[string]int64      `json:"changes_by_user"`
	ChangesPerDay map[string]int64      `json:"changes_per_day"`
}
