package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"spendsight/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an owner with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.RoleOwner)
}

// CreateTestUserWithRole creates a user with the given role and a unique email.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email, role)
}

// CreateTestUserWithEmail creates a user with the given email and role.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     "Test User",
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// FixedTime is a stable reference instant for fixtures.
var FixedTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

// NewTransaction builds a valid transaction dated FixedTime. The id is unique
// within the test run.
func NewTransaction(merchant, amount, currency string) models.Transaction {
	return models.Transaction{
		ID:        fmt.Sprintf("txn_fixture_%d", nextID()),
		Date:      FixedTime,
		Amount:    decimal.RequireFromString(amount),
		Currency:  currency,
		Merchant:  merchant,
		Category:  "Meals & Entertainment",
		CardID:    "card_test",
		CreatedAt: FixedTime,
		UpdatedAt: FixedTime,
	}
}

// NewTransactionOn is NewTransaction with an explicit date.
func NewTransactionOn(merchant, amount, currency string, date time.Time) models.Transaction {
	tx := NewTransaction(merchant, amount, currency)
	tx.Date = date
	return tx
}
