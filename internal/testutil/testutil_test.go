package testutil_test

import (
	"testing"

	"spendsight/internal/models"
	"spendsight/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"users", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	testutil.CreateTestUser(t, first)

	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	var count int64
	second.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected a fresh database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUserWithRole(t, db, models.RoleViewer)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}
	if user.Role != models.RoleViewer {
		t.Errorf("expected viewer role, got %s", user.Role)
	}

	a := testutil.NewTransaction("Starbucks", "5.50", "USD")
	b := testutil.NewTransaction("Starbucks", "5.50", "USD")
	if a.ID == b.ID {
		t.Error("fixture transactions should have distinct ids")
	}
	testutil.AssertDecimal(t, a.Amount, "5.5")
}
