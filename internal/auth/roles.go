// Package auth holds the role model, access tokens and the login flow.
package auth

import (
	"slices"

	"spendsight/internal/models"
)

// RolePermissions lists the permissions each role grants.
var RolePermissions = map[models.UserRole][]models.Permission{
	models.RoleOwner: {
		models.PermViewTransactions,
		models.PermEditTransactions,
		models.PermDeleteTransactions,
		models.PermManageCategories,
		models.PermManageCards,
		models.PermManageUsers,
		models.PermViewAnalytics,
		models.PermExportData,
		models.PermManageSettings,
		models.PermViewAuditLogs,
	},
	models.RoleAdmin: {
		models.PermViewTransactions,
		models.PermEditTransactions,
		models.PermDeleteTransactions,
		models.PermManageCategories,
		models.PermManageCards,
		models.PermViewAnalytics,
		models.PermExportData,
		models.PermManageSettings,
		models.PermViewAuditLogs,
	},
	models.RoleViewer: {
		models.PermViewTransactions,
		models.PermViewAnalytics,
		models.PermExportData,
	},
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
}

// HasRole reports whether the principal holds exactly role.
func (p Principal) HasRole(role models.UserRole) bool {
	return p.Role == role
}

// HasPermission reports whether the principal's role grants perm.
func (p Principal) HasPermission(perm models.Permission) bool {
	return slices.Contains(RolePermissions[p.Role], perm)
}

// Permissions returns a copy of the permissions granted to the principal.
func (p Principal) Permissions() []models.Permission {
	return slices.Clone(RolePermissions[p.Role])
}
