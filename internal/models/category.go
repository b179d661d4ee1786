package models

import "time"

// Category is a node in the tree of expense classifications.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ParentID    *string   `json:"parent_id,omitempty"`
	Color       string    `json:"color,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	IsArchived  bool      `json:"is_archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryInput carries the caller-supplied fields of a new category.
type CategoryInput struct {
	Name        string
	Description string
	ParentID    *string
	Color       string
	Icon        string
	IsArchived  bool
}

// CategoryPatch holds a partial category update. ClearParent turns the
// category into a root and wins over ParentID.
type CategoryPatch struct {
	Name        *string
	Description *string
	ParentID    *string
	ClearParent bool
	Color       *string
	Icon        *string
	IsArchived  *bool
}

// CategoryHierarchy is a category with its non-archived descendants.
type CategoryHierarchy struct {
	Category
	Subcategories []CategoryHierarchy `json:"subcategories"`
}

// RuleMatchType selects which transaction attribute a rule inspects.
type RuleMatchType string

const (
	RuleMatchMerchant RuleMatchType = "merchant"
	RuleMatchAmount   RuleMatchType = "amount"
	RuleMatchDate     RuleMatchType = "date"
	RuleMatchKeyword  RuleMatchType = "keyword"
)

// RuleOperator is the comparison applied between the attribute and MatchValue.
type RuleOperator string

const (
	RuleOpEquals      RuleOperator = "equals"
	RuleOpContains    RuleOperator = "contains"
	RuleOpStartsWith  RuleOperator = "startsWith"
	RuleOpEndsWith    RuleOperator = "endsWith"
	RuleOpGreaterThan RuleOperator = "greaterThan"
	RuleOpLessThan    RuleOperator = "lessThan"
)

// CategoryRule is an auto-categorization rule bound to one category.
// Rules with a higher Priority are evaluated first.
type CategoryRule struct {
	ID         string        `json:"id"`
	CategoryID string        `json:"category_id"`
	MatchType  RuleMatchType `json:"match_type"`
	MatchValue string        `json:"match_value"`
	Operator   RuleOperator  `json:"operator,omitempty"`
	Priority   int           `json:"priority"`
	IsActive   bool          `json:"is_active"`
	CreatedAt  time.Time     `json:"created_at"`
}

// RuleInput carries the caller-supplied fields of a new rule.
type RuleInput struct {
	CategoryID string
	MatchType  RuleMatchType
	MatchValue string
	Operator   RuleOperator
	Priority   int
	IsActive   bool
}

// RulePatch holds a partial rule update.
type RulePatch struct {
	CategoryID *string
	MatchType  *RuleMatchType
	MatchValue *string
	Operator   *RuleOperator
	Priority   *int
	IsActive   *bool
}

// DefaultCategory describes one top-level entry of the seed taxonomy.
type DefaultCategory struct {
	Name          string
	Icon          string
	Color         string
	Subcategories []string
}

// DefaultCategories is the taxonomy installed on first start.
var DefaultCategories = []DefaultCategory{
	{Name: "Travel", Subcategories: []string{"Flights", "Hotels", "Car Rental", "Parking", "Public Transit", "Other"}},
	{Name: "Meals & Entertainment", Subcategories: []string{"Restaurants", "Coffee", "Delivery", "Entertainment", "Other"}},
	{Name: "Office Supplies", Subcategories: []string{"Stationery", "Electronics", "Furniture", "Other"}},
	{Name: "Software & Subscriptions", Subcategories: []string{"SaaS", "Cloud Services", "Licenses", "Other"}},
	{Name: "Professional Services", Subcategories: []string{"Consulting", "Legal", "Accounting", "Design", "Other"}},
	{Name: "Equipment & Tools", Subcategories: []string{"Hardware", "Software Tools", "Maintenance", "Other"}},
	{Name: "Marketing & Advertising", Subcategories: []string{"Digital Ads", "Print", "Events", "Other"}},
	{Name: "Utilities & Communications", Subcategories: []string{"Internet", "Phone", "Electricity", "Other"}},
	{Name: "Personnel Expenses", Subcategories: []string{"Salary", "Payroll Taxes", "Benefits", "Training", "Other"}},
	{Name: "Miscellaneous", Subcategories: []string{"Reimbursable", "Other"}},
}
