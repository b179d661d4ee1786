package services

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "spendsight/internal/errors"
	"spendsight/internal/idgen"
	"spendsight/internal/logger"
	"spendsight/internal/models"
)

// categoryService owns categories and their rules, both kept in insertion order.
type categoryService struct {
	mu         sync.RWMutex
	categories []models.Category
	rules      []models.CategoryRule
	ids        idgen.Supplier
	now        Clock
	log        *zap.SugaredLogger
}

// CategoryOption customises a category store at construction.
type CategoryOption func(*categoryService)

// WithCategoryClock overrides the time source used for timestamps.
func WithCategoryClock(now Clock) CategoryOption {
	return func(s *categoryService) { s.now = now }
}

// WithCategoryIDs overrides the identifier supplier.
func WithCategoryIDs(ids idgen.Supplier) CategoryOption {
	return func(s *categoryService) { s.ids = ids }
}

// NewCategoryService creates a CategoryServicer seeded with copies of the
// given categories and rules.
func NewCategoryService(categories []models.Category, rules []models.CategoryRule, opts ...CategoryOption) CategoryServicer {
	s := &categoryService{
		ids: idgen.Default,
		now: time.Now,
		log: logger.Named("categories"),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, c := range categories {
		s.categories = append(s.categories, cloneCategory(c))
	}
	s.rules = append(s.rules, rules...)
	return s
}

// Add creates a category and returns its id.
func (s *categoryService) Add(input models.CategoryInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(input)
}

func (s *categoryService) add(input models.CategoryInput) (string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if input.ParentID != nil && s.indexOf(*input.ParentID) < 0 {
		return "", apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
	}

	now := s.now()
	c := models.Category{
		ID:          s.ids.NewID(idgen.PrefixCategory),
		Name:        name,
		Description: input.Description,
		ParentID:    copyString(input.ParentID),
		Color:       input.Color,
		Icon:        input.Icon,
		IsArchived:  input.IsArchived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.categories = append(s.categories, c)
	return c.ID, nil
}

// Update merges patch into the category and refreshes updatedAt. Reparenting
// that would make a category its own ancestor is rejected.
func (s *categoryService) Update(id string, patch models.CategoryPatch) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, apperrors.ErrCategoryNotFound
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
	}
	if !patch.ClearParent && patch.ParentID != nil {
		if err := s.checkParent(id, *patch.ParentID); err != nil {
			return nil, err
		}
	}

	c := &s.categories[i]
	if patch.Name != nil {
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.ClearParent {
		c.ParentID = nil
	} else if patch.ParentID != nil {
		c.ParentID = copyString(patch.ParentID)
	}
	if patch.Color != nil {
		c.Color = *patch.Color
	}
	if patch.Icon != nil {
		c.Icon = *patch.Icon
	}
	if patch.IsArchived != nil {
		c.IsArchived = *patch.IsArchived
	}
	c.UpdatedAt = s.now()

	out := cloneCategory(*c)
	return &out, nil
}

// checkParent verifies parentID exists and is not id or one of its descendants.
func (s *categoryService) checkParent(id, parentID string) error {
	if parentID == id {
		return apperrors.ErrSelfParentCategory
	}
	if s.indexOf(parentID) < 0 {
		return apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
	}

	seen := map[string]bool{}
	for cur := parentID; cur != ""; {
		if cur == id {
			return apperrors.WithMessage(apperrors.ErrCategoryCycle, "a category cannot be moved under its own descendant")
		}
		if seen[cur] {
			return apperrors.ErrCategoryCycle
		}
		seen[cur] = true

		j := s.indexOf(cur)
		if j < 0 || s.categories[j].ParentID == nil {
			break
		}
		cur = *s.categories[j].ParentID
	}
	return nil
}

// Delete removes the category and its rules. Children keep their parent
// reference and drop out of the hierarchy.
func (s *categoryService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return apperrors.ErrCategoryNotFound
	}
	s.categories = append(s.categories[:i], s.categories[i+1:]...)

	kept := s.rules[:0]
	removed := 0
	for _, r := range s.rules {
		if r.CategoryID == id {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.rules = kept

	s.log.Debugw("category deleted", "category_id", id, "rules_removed", removed)
	return nil
}

// Get returns a copy of the category with the given id.
func (s *categoryService) Get(id string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, apperrors.ErrCategoryNotFound
	}
	out := cloneCategory(s.categories[i])
	return &out, nil
}

// List returns all categories in insertion order.
func (s *categoryService) List(includeArchived bool) []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if c.IsArchived && !includeArchived {
			continue
		}
		out = append(out, cloneCategory(c))
	}
	return out
}

// Count returns the number of categories, archived ones included.
func (s *categoryService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categories)
}

// Hierarchy builds the forest of non-archived categories rooted at the
// categories without a parent. Broken parent links that loop back on
// themselves are reported as ErrCategoryCycle.
func (s *categoryService) Hierarchy() ([]models.CategoryHierarchy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.findCycle(); ok {
		s.log.Errorw("category cycle detected", "category_id", id)
		return nil, apperrors.WithMessage(apperrors.ErrCategoryCycle, "category "+id+" is its own ancestor")
	}

	children := make(map[string][]int)
	var roots []int
	for i, c := range s.categories {
		if c.IsArchived {
			continue
		}
		if c.ParentID == nil {
			roots = append(roots, i)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], i)
	}

	out := make([]models.CategoryHierarchy, 0, len(roots))
	for _, i := range roots {
		node, err := s.buildNode(i, children, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

func (s *categoryService) buildNode(i int, children map[string][]int, depth int) (models.CategoryHierarchy, error) {
	if depth > len(s.categories) {
		return models.CategoryHierarchy{}, apperrors.ErrCategoryCycle
	}

	c := s.categories[i]
	node := models.CategoryHierarchy{
		Category:      cloneCategory(c),
		Subcategories: make([]models.CategoryHierarchy, 0, len(children[c.ID])),
	}
	for _, j := range children[c.ID] {
		child, err := s.buildNode(j, children, depth+1)
		if err != nil {
			return models.CategoryHierarchy{}, err
		}
		node.Subcategories = append(node.Subcategories, child)
	}
	return node, nil
}

// findCycle follows every parent chain and returns a category that lies on a loop.
func (s *categoryService) findCycle() (string, bool) {
	const (
		unvisited = iota
		inProgress
		done
	)

	parent := make(map[string]string, len(s.categories))
	for _, c := range s.categories {
		if c.ParentID != nil {
			parent[c.ID] = *c.ParentID
		}
	}

	state := make(map[string]int, len(s.categories))
	for _, c := range s.categories {
		var path []string
		cur := c.ID
		for cur != "" && state[cur] == unvisited {
			state[cur] = inProgress
			path = append(path, cur)
			cur = parent[cur]
		}
		if cur != "" && state[cur] == inProgress {
			return cur, true
		}
		for _, id := range path {
			state[id] = done
		}
	}
	return "", false
}

// Subcategories returns the non-archived direct children of parentID.
func (s *categoryService) Subcategories(parentID string) []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0)
	for _, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == parentID && !c.IsArchived {
			out = append(out, cloneCategory(c))
		}
	}
	return out
}

// SeedDefaults installs the default taxonomy when the store is empty and
// reports whether it did.
func (s *categoryService) SeedDefaults() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.categories) > 0 {
		return false
	}

	for _, def := range models.DefaultCategories {
		parentID, err := s.add(models.CategoryInput{Name: def.Name, Icon: def.Icon, Color: def.Color})
		if err != nil {
			s.log.Errorw("failed to seed category", "name", def.Name, "error", err)
			continue
		}
		for _, sub := range def.Subcategories {
			if _, err := s.add(models.CategoryInput{Name: sub, ParentID: &parentID}); err != nil {
				s.log.Errorw("failed to seed subcategory", "name", sub, "parent", def.Name, "error", err)
			}
		}
	}
	s.log.Infow("default categories seeded", "count", len(s.categories))
	return true
}

func (s *categoryService) indexOf(id string) int {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneCategory(c models.Category) models.Category {
	c.ParentID = copyString(c.ParentID)
	return c
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
