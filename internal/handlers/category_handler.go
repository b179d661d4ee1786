package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "spendsight/internal/errors"
	"spendsight/internal/models"
	"spendsight/internal/services"
)

// CategoryHandler handles category and categorization rule requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description string  `json:"description" binding:"max=500"`
	Icon        string  `json:"icon"`
	Color       string  `json:"color" binding:"omitempty,hex_color"`
	ParentID    *string `json:"parent_id"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
// A parent_id of "" turns the category into a root.
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color" binding:"omitempty,hex_color"`
	ParentID    *string `json:"parent_id"`
	IsArchived  *bool   `json:"is_archived"`
}

// CreateRuleRequest represents the request payload for creating a categorization rule
type CreateRuleRequest struct {
	MatchType  models.RuleMatchType `json:"match_type" binding:"required,rule_match_type"`
	MatchValue string               `json:"match_value" binding:"required"`
	Operator   models.RuleOperator  `json:"operator" binding:"rule_operator"`
	Priority   int                  `json:"priority"`
	IsActive   *bool                `json:"is_active"`
}

// UpdateRuleRequest represents the request payload for updating a categorization rule
type UpdateRuleRequest struct {
	CategoryID *string               `json:"category_id"`
	MatchType  *models.RuleMatchType `json:"match_type" binding:"omitempty,rule_match_type"`
	MatchValue *string               `json:"match_value" binding:"omitempty,min=1"`
	Operator   *models.RuleOperator  `json:"operator" binding:"omitempty,rule_operator"`
	Priority   *int                  `json:"priority"`
	IsActive   *bool                 `json:"is_active"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a new category, optionally under an existing parent
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Parent not found"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	id, err := h.categoryService.Add(models.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		Color:       req.Color,
		Icon:        req.Icon,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry := newAuditEntry(c, userID, models.AuditCreate, models.ResourceCategory, id)
	entry.After = map[string]any{"name": category.Name, "parent_id": category.ParentID}
	h.auditService.Log(c.Request.Context(), entry)

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// ListCategories returns all categories
// @Summary     List categories
// @Description Get every category in insertion order. Archived ones are included only on request.
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       include_archived query bool false "Include archived categories"
// @Success     200 {array}  models.Category "Categories"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	includeArchived := false
	if v := c.Query("include_archived"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid include_archived, must be true or false"))
			return
		}
		includeArchived = b
	}

	c.JSON(http.StatusOK, gin.H{"categories": h.categoryService.List(includeArchived)})
}

// GetCategory returns one category
// @Summary     Get category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory applies a partial update to a category
// @Summary     Update category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to change"
// @Success     200 {object} models.Category "Updated category"
// @Failure     400 {object} ErrorResponse "Invalid input or self parent"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Parent change would form a cycle"
// @Router      /categories/{id} [patch]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	patch := models.CategoryPatch{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		IsArchived:  req.IsArchived,
	}
	if req.ParentID != nil {
		if *req.ParentID == "" {
			patch.ClearParent = true
		} else {
			patch.ParentID = req.ParentID
		}
	}

	category, err := h.categoryService.Update(id, patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	action := models.AuditUpdate
	if req.IsArchived != nil && *req.IsArchived {
		action = models.AuditArchive
	}
	entry := newAuditEntry(c, userID, action, models.ResourceCategory, id)
	entry.After = map[string]any{"name": category.Name, "parent_id": category.ParentID, "is_archived": category.IsArchived}
	h.auditService.Log(c.Request.Context(), entry)

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory removes a category and its rules. Children become roots.
// @Summary     Delete category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} map[string]string "Category deleted"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.Delete(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), newAuditEntry(c, userID, models.AuditDelete, models.ResourceCategory, id))

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// GetHierarchy returns the tree of non-archived categories
// @Summary     Category hierarchy
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.CategoryHierarchy "Category tree"
// @Failure     409 {object} ErrorResponse "Parent links form a cycle"
// @Router      /categories/hierarchy [get]
func (h *CategoryHandler) GetHierarchy(c *gin.Context) {
	tree, err := h.categoryService.Hierarchy()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"hierarchy": tree})
}

// GetSubcategories returns the direct children of a category
// @Summary     Subcategories
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Parent category ID"
// @Success     200 {array}  models.Category "Direct children"
// @Router      /categories/{id}/subcategories [get]
func (h *CategoryHandler) GetSubcategories(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": h.categoryService.Subcategories(id)})
}

// SeedDefaults installs the default taxonomy into an empty store
// @Summary     Seed default categories
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Seed result"
// @Router      /categories/seed [post]
func (h *CategoryHandler) SeedDefaults(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	seeded := h.categoryService.SeedDefaults()
	if seeded {
		entry := newAuditEntry(c, userID, models.AuditCreate, models.ResourceCategory, "")
		entry.Metadata = map[string]any{"seeded": h.categoryService.Count()}
		h.auditService.Log(c.Request.Context(), entry)
	}

	c.JSON(http.StatusOK, gin.H{"seeded": seeded, "count": h.categoryService.Count()})
}

// CreateRule adds a categorization rule to a category
// @Summary     Create rule
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Category ID"
// @Param       request body CreateRuleRequest true "Rule details"
// @Success     201 {object} models.CategoryRule "Rule created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id}/rules [post]
func (h *CategoryHandler) CreateRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	id, err := h.categoryService.AddRule(models.RuleInput{
		CategoryID: categoryID,
		MatchType:  req.MatchType,
		MatchValue: req.MatchValue,
		Operator:   req.Operator,
		Priority:   req.Priority,
		IsActive:   active,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	rule, err := h.categoryService.GetRule(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry := newAuditEntry(c, userID, models.AuditCreate, models.ResourceRule, id)
	entry.After = map[string]any{"category_id": rule.CategoryID, "match_type": rule.MatchType, "match_value": rule.MatchValue}
	h.auditService.Log(c.Request.Context(), entry)

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// ListRules returns the active rules of a category
// @Summary     List rules
// @Tags        rules
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {array}  models.CategoryRule "Active rules"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id}/rules [get]
func (h *CategoryHandler) ListRules(c *gin.Context) {
	categoryID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if _, err := h.categoryService.Get(categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": h.categoryService.RulesFor(categoryID)})
}

// UpdateRule applies a partial update to a rule
// @Summary     Update rule
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Rule ID"
// @Param       request body UpdateRuleRequest true "Fields to change"
// @Success     200 {object} models.CategoryRule "Updated rule"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /rules/{id} [patch]
func (h *CategoryHandler) UpdateRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rule, err := h.categoryService.UpdateRule(id, models.RulePatch{
		CategoryID: req.CategoryID,
		MatchType:  req.MatchType,
		MatchValue: req.MatchValue,
		Operator:   req.Operator,
		Priority:   req.Priority,
		IsActive:   req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), newAuditEntry(c, userID, models.AuditUpdate, models.ResourceRule, id))

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// DeleteRule removes a rule
// @Summary     Delete rule
// @Tags        rules
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Rule ID"
// @Success     200 {object} map[string]string "Rule deleted"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /rules/{id} [delete]
func (h *CategoryHandler) DeleteRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteRule(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), newAuditEntry(c, userID, models.AuditDelete, models.ResourceRule, id))

	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted successfully"})
}
