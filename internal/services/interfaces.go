package services

import (
	"context"
	"time"

	"spendsight/internal/models"
	"spendsight/internal/pagination"
)

// Clock returns the current time. Stores take one so tests can pin it.
type Clock func() time.Time

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, name string, role models.UserRole) (*models.User, error)
	EnsureUser(ctx context.Context, email, password, name string, role models.UserRole) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
}

// LedgerServicer defines the contract of the in-memory transaction ledger.
// Every value returned is a copy; callers never hold references into the ledger.
type LedgerServicer interface {
	Add(tx models.Transaction) models.Transaction
	Update(id string, patch models.TransactionPatch) (*models.Transaction, error)
	Delete(id string) error
	Get(id string) (*models.Transaction, error)
	Query(filter models.TransactionFilter) []models.Transaction
	Stats(filter *models.TransactionFilter) models.TransactionStats
	CategoryStats(filter *models.TransactionFilter) []models.CategoryStats
	ImportBatch(txs []models.Transaction) []models.Transaction
	Clear()
	All() []models.Transaction
	Count() int
}

// CategoryServicer defines the contract of the category and rule store.
type CategoryServicer interface {
	Add(input models.CategoryInput) (string, error)
	Update(id string, patch models.CategoryPatch) (*models.Category, error)
	Delete(id string) error
	Get(id string) (*models.Category, error)
	List(includeArchived bool) []models.Category
	Count() int
	Hierarchy() ([]models.CategoryHierarchy, error)
	Subcategories(parentID string) []models.Category
	SeedDefaults() bool

	AddRule(input models.RuleInput) (string, error)
	UpdateRule(id string, patch models.RulePatch) (*models.CategoryRule, error)
	DeleteRule(id string) error
	GetRule(id string) (*models.CategoryRule, error)
	RulesFor(categoryID string) []models.CategoryRule
	Categorize(tx models.Transaction) (*models.Category, bool)
}

// AuditEntry is the caller-side description of one audited operation.
type AuditEntry struct {
	UserID       string
	Action       models.AuditAction
	ResourceType string
	ResourceID   string
	Before       map[string]any
	After        map[string]any
	Metadata     map[string]any
	IPAddress    string
	UserAgent    string
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, entry AuditEntry)
	List(ctx context.Context, filter models.AuditLogFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
	Stats(ctx context.Context, filter models.AuditLogFilter) (*models.AuditStats, error)
}
