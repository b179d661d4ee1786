package models

import (
	"time"

	"gorm.io/gorm"

	"spendsight/internal/idgen"
)

// UserRole is the coarse access level of a user.
type UserRole string

const (
	RoleOwner  UserRole = "owner"
	RoleAdmin  UserRole = "admin"
	RoleViewer UserRole = "viewer"
)

// Permission is a single capability granted through a role.
type Permission string

const (
	PermViewTransactions   Permission = "view_transactions"
	PermEditTransactions   Permission = "edit_transactions"
	PermDeleteTransactions Permission = "delete_transactions"
	PermManageCategories   Permission = "manage_categories"
	PermManageCards        Permission = "manage_cards"
	PermManageUsers        Permission = "manage_users"
	PermViewAnalytics      Permission = "view_analytics"
	PermExportData         Permission = "export_data"
	PermManageSettings     Permission = "manage_settings"
	PermViewAuditLogs      Permission = "view_audit_logs"
)

// User represents the user model in the database
type User struct {
	Base
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	Name        string     `json:"name"`
	Role        UserRole   `gorm:"not null;default:viewer" json:"role"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// BeforeCreate assigns a prefixed identifier to new users.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = idgen.New(idgen.PrefixUser)
	}
	return nil
}
