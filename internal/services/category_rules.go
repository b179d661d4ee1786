package services

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "spendsight/internal/errors"
	"spendsight/internal/idgen"
	"spendsight/internal/models"
)

// ruleDateLayout is the format of MatchValue for date rules.
const ruleDateLayout = "2006-01-02"

// AddRule binds a new rule to an existing category and returns its id.
func (s *categoryService) AddRule(input models.RuleInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(input.CategoryID) < 0 {
		return "", apperrors.ErrCategoryNotFound
	}
	if err := checkRule(input.MatchType, input.MatchValue, input.Operator); err != nil {
		return "", err
	}

	r := models.CategoryRule{
		ID:         s.ids.NewID(idgen.PrefixRule),
		CategoryID: input.CategoryID,
		MatchType:  input.MatchType,
		MatchValue: strings.TrimSpace(input.MatchValue),
		Operator:   input.Operator,
		Priority:   input.Priority,
		IsActive:   input.IsActive,
		CreatedAt:  s.now(),
	}
	s.rules = append(s.rules, r)
	return r.ID, nil
}

// UpdateRule merges patch into the rule with the given id.
func (s *categoryService) UpdateRule(id string, patch models.RulePatch) (*models.CategoryRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.ruleIndex(id)
	if i < 0 {
		return nil, apperrors.ErrRuleNotFound
	}

	r := s.rules[i]
	if patch.CategoryID != nil {
		if s.indexOf(*patch.CategoryID) < 0 {
			return nil, apperrors.ErrCategoryNotFound
		}
		r.CategoryID = *patch.CategoryID
	}
	if patch.MatchType != nil {
		r.MatchType = *patch.MatchType
	}
	if patch.MatchValue != nil {
		r.MatchValue = strings.TrimSpace(*patch.MatchValue)
	}
	if patch.Operator != nil {
		r.Operator = *patch.Operator
	}
	if patch.Priority != nil {
		r.Priority = *patch.Priority
	}
	if patch.IsActive != nil {
		r.IsActive = *patch.IsActive
	}
	if err := checkRule(r.MatchType, r.MatchValue, r.Operator); err != nil {
		return nil, err
	}

	s.rules[i] = r
	return &r, nil
}

// DeleteRule removes the rule with the given id.
func (s *categoryService) DeleteRule(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.ruleIndex(id)
	if i < 0 {
		return apperrors.ErrRuleNotFound
	}
	s.rules = append(s.rules[:i], s.rules[i+1:]...)
	return nil
}

// GetRule returns a copy of the rule with the given id.
func (s *categoryService) GetRule(id string) (*models.CategoryRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.ruleIndex(id)
	if i < 0 {
		return nil, apperrors.ErrRuleNotFound
	}
	r := s.rules[i]
	return &r, nil
}

// RulesFor returns the active rules bound to categoryID in insertion order.
func (s *categoryService) RulesFor(categoryID string) []models.CategoryRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CategoryRule, 0)
	for _, r := range s.rules {
		if r.CategoryID == categoryID && r.IsActive {
			out = append(out, r)
		}
	}
	return out
}

// Categorize returns the category of the highest-priority active rule that
// matches tx. Rules bound to archived categories are ignored.
func (s *categoryService) Categorize(tx models.Transaction) (*models.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]models.CategoryRule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.IsActive {
			candidates = append(candidates, r)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})

	for _, r := range candidates {
		if !ruleMatches(r, tx) {
			continue
		}
		i := s.indexOf(r.CategoryID)
		if i < 0 || s.categories[i].IsArchived {
			continue
		}
		c := cloneCategory(s.categories[i])
		return &c, true
	}
	return nil, false
}

func (s *categoryService) ruleIndex(id string) int {
	for i := range s.rules {
		if s.rules[i].ID == id {
			return i
		}
	}
	return -1
}

func checkRule(matchType models.RuleMatchType, value string, op models.RuleOperator) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "rule match value is required")
	}

	switch matchType {
	case models.RuleMatchMerchant, models.RuleMatchKeyword:
		switch op {
		case "", models.RuleOpEquals, models.RuleOpContains, models.RuleOpStartsWith, models.RuleOpEndsWith:
			return nil
		}
	case models.RuleMatchAmount:
		if _, err := decimal.NewFromString(strings.TrimSpace(value)); err != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount rule needs a numeric match value")
		}
		switch op {
		case "", models.RuleOpEquals, models.RuleOpGreaterThan, models.RuleOpLessThan:
			return nil
		}
	case models.RuleMatchDate:
		if _, err := time.Parse(ruleDateLayout, strings.TrimSpace(value)); err != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "date rule needs a YYYY-MM-DD match value")
		}
		switch op {
		case "", models.RuleOpEquals, models.RuleOpGreaterThan, models.RuleOpLessThan:
			return nil
		}
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown rule match type")
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, "operator "+string(op)+" does not apply to "+string(matchType)+" rules")
}

// ruleMatches evaluates one rule against a transaction.
func ruleMatches(r models.CategoryRule, tx models.Transaction) bool {
	switch r.MatchType {
	case models.RuleMatchMerchant:
		return matchText(tx.Merchant, r.MatchValue, r.Operator, models.RuleOpEquals)
	case models.RuleMatchKeyword:
		return matchText(tx.Merchant, r.MatchValue, r.Operator, models.RuleOpContains) ||
			matchText(tx.Notes, r.MatchValue, r.Operator, models.RuleOpContains)
	case models.RuleMatchAmount:
		want, err := decimal.NewFromString(r.MatchValue)
		if err != nil {
			return false
		}
		return compare(tx.Amount.Cmp(want), r.Operator)
	case models.RuleMatchDate:
		want, err := time.Parse(ruleDateLayout, r.MatchValue)
		if err != nil {
			return false
		}
		day, _ := time.Parse(ruleDateLayout, tx.Date.Format(ruleDateLayout))
		return compare(day.Compare(want), r.Operator)
	}
	return false
}

// matchText compares case-insensitively; an empty operator means def.
func matchText(s, value string, op, def models.RuleOperator) bool {
	if s == "" {
		return false
	}
	s, value = strings.ToLower(s), strings.ToLower(value)
	if op == "" {
		op = def
	}
	switch op {
	case models.RuleOpEquals:
		return s == value
	case models.RuleOpContains:
		return strings.Contains(s, value)
	case models.RuleOpStartsWith:
		return strings.HasPrefix(s, value)
	case models.RuleOpEndsWith:
		return strings.HasSuffix(s, value)
	}
	return false
}

// compare maps a three-way comparison result onto an ordering operator.
func compare(cmp int, op models.RuleOperator) bool {
	switch op {
	case "", models.RuleOpEquals:
		return cmp == 0
	case models.RuleOpGreaterThan:
		return cmp > 0
	case models.RuleOpLessThan:
		return cmp < 0
	}
	return false
}
