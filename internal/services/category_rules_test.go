package services

import (
	"testing"
	"time"

	"spendsight/internal/models"
	"spendsight/internal/testutil"
)

func TestRuleCRUD(t *testing.T) {
	s := newTestCategories()
	travel := mustAddCategory(t, s, "Travel", nil)

	t.Run("add_requires_category", func(t *testing.T) {
		_, err := s.AddRule(models.RuleInput{CategoryID: "cat_missing", MatchType: models.RuleMatchMerchant, MatchValue: "Delta"})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("add_rejects_bad_rules", func(t *testing.T) {
		bad := []models.RuleInput{
			{CategoryID: travel, MatchType: models.RuleMatchMerchant, MatchValue: ""},
			{CategoryID: travel, MatchType: "weekday", MatchValue: "monday"},
			{CategoryID: travel, MatchType: models.RuleMatchAmount, MatchValue: "lots"},
			{CategoryID: travel, MatchType: models.RuleMatchDate, MatchValue: "15/01/2024"},
			{CategoryID: travel, MatchType: models.RuleMatchMerchant, MatchValue: "Delta", Operator: models.RuleOpGreaterThan},
		}
		for _, in := range bad {
			_, err := s.AddRule(in)
			testutil.AssertAppError(t, err, "INVALID_INPUT")
		}
	})

	id, err := s.AddRule(models.RuleInput{CategoryID: travel, MatchType: models.RuleMatchMerchant, MatchValue: "Delta", IsActive: true})
	testutil.AssertNoError(t, err)

	t.Run("update", func(t *testing.T) {
		priority := 5
		r, err := s.UpdateRule(id, models.RulePatch{Priority: &priority})
		testutil.AssertNoError(t, err)
		if r.Priority != 5 || r.MatchValue != "Delta" {
			t.Errorf("unexpected rule %+v", r)
		}
	})

	t.Run("rules_for_returns_active_only", func(t *testing.T) {
		inactive, err := s.AddRule(models.RuleInput{CategoryID: travel, MatchType: models.RuleMatchKeyword, MatchValue: "hotel"})
		testutil.AssertNoError(t, err)

		rules := s.RulesFor(travel)
		if len(rules) != 1 || rules[0].ID != id {
			t.Errorf("expected only the active rule, got %+v", rules)
		}

		active := true
		_, err = s.UpdateRule(inactive, models.RulePatch{IsActive: &active})
		testutil.AssertNoError(t, err)
		if len(s.RulesFor(travel)) != 2 {
			t.Error("expected activated rule to be listed")
		}
	})

	t.Run("delete", func(t *testing.T) {
		testutil.AssertNoError(t, s.DeleteRule(id))
		testutil.AssertAppError(t, s.DeleteRule(id), "RULE_NOT_FOUND")
		_, err := s.GetRule(id)
		testutil.AssertAppError(t, err, "RULE_NOT_FOUND")
	})

	t.Run("update_unknown", func(t *testing.T) {
		_, err := s.UpdateRule("rule_missing", models.RulePatch{})
		testutil.AssertAppError(t, err, "RULE_NOT_FOUND")
	})
}

func TestCategorize(t *testing.T) {
	s := newTestCategories()
	travel := mustAddCategory(t, s, "Travel", nil)
	coffee := mustAddCategory(t, s, "Coffee", nil)
	big := mustAddCategory(t, s, "Big Ticket", nil)
	newYear := mustAddCategory(t, s, "New Year", nil)
	archived, _ := s.Add(models.CategoryInput{Name: "Retired", IsArchived: true})

	rules := []models.RuleInput{
		{CategoryID: travel, MatchType: models.RuleMatchMerchant, MatchValue: "delta", Operator: models.RuleOpStartsWith, Priority: 1, IsActive: true},
		{CategoryID: coffee, MatchType: models.RuleMatchKeyword, MatchValue: "latte", Priority: 1, IsActive: true},
		{CategoryID: big, MatchType: models.RuleMatchAmount, MatchValue: "1000", Operator: models.RuleOpGreaterThan, Priority: 10, IsActive: true},
		{CategoryID: newYear, MatchType: models.RuleMatchDate, MatchValue: "2024-01-01", Priority: 0, IsActive: true},
		{CategoryID: archived, MatchType: models.RuleMatchMerchant, MatchValue: "Starbucks", Priority: 99, IsActive: true},
		{CategoryID: coffee, MatchType: models.RuleMatchMerchant, MatchValue: "Starbucks", Priority: 2, IsActive: true},
		{CategoryID: travel, MatchType: models.RuleMatchMerchant, MatchValue: "Peets", Priority: 50, IsActive: false},
	}
	for _, in := range rules {
		_, err := s.AddRule(in)
		testutil.AssertNoError(t, err)
	}

	withNotes := testutil.NewTransaction("Corner Cafe", "4.00", "USD")
	withNotes.Notes = "Oat LATTE"
	newYearsDay := testutil.NewTransactionOn("Bodega", "3", "USD", time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC))

	tests := []struct {
		name string
		tx   models.Transaction
		want string
	}{
		{"merchant_prefix_ignores_case", testutil.NewTransaction("DELTA AIR LINES", "300", "USD"), "Travel"},
		{"higher_priority_wins", testutil.NewTransaction("Delta Air Lines", "1200", "USD"), "Big Ticket"},
		{"keyword_in_notes", withNotes, "Coffee"},
		{"date_same_day", newYearsDay, "New Year"},
		{"archived_category_skipped", testutil.NewTransaction("starbucks", "5", "USD"), "Coffee"},
		{"inactive_rule_ignored", testutil.NewTransaction("Peets", "5", "USD"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := s.Categorize(tt.tx)
			if tt.want == "" {
				if ok {
					t.Errorf("expected no match, got %s", c.Name)
				}
				return
			}
			if !ok {
				t.Fatalf("expected %s, got no match", tt.want)
			}
			if c.Name != tt.want {
				t.Errorf("expected %s, got %s", tt.want, c.Name)
			}
		})
	}
}
