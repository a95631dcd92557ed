package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
	// CategoryTypeBoth categories may be referenced by income and expense
	// transactions alike.
	CategoryTypeBoth CategoryType = "both"
)

// Accepts reports whether a category of this type may be referenced by a
// transaction of the given type.
func (t CategoryType) Accepts(txType TransactionType) bool {
	switch t {
	case CategoryTypeBoth:
		return txType == TransactionTypeIncome || txType == TransactionTypeExpense
	case CategoryTypeIncome:
		return txType == TransactionTypeIncome
	case CategoryTypeExpense:
		return txType == TransactionTypeExpense
	}
	return false
}

// PathSeparator joins ancestor names in the denormalized Path field.
const PathSeparator = "/"

// Category is a node in a user's category forest. Level, Path and PathIDs
// are denormalized from the parent chain; they are always recomputed
// server-side and never trusted from clients.
type Category struct {
	Base
	UserID      string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string       `gorm:"not null" json:"name"`
	Type        CategoryType `gorm:"not null" json:"type"`
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	ParentID    *string      `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Level       int          `gorm:"not null;default:1" json:"level"`
	Path        string       `gorm:"not null" json:"path"`
	PathIDs     StringList   `gorm:"type:text;not null;default:'[]'" json:"path_ids"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
	Color       string       `json:"color"`

	// Relationships
	Parent       *Category     `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children     []Category    `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
}

// IsRoot reports whether the category sits at the top of its tree.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// HasAncestor reports whether id appears in the category's ancestor chain,
// using the denormalized PathIDs.
func (c *Category) HasAncestor(id string) bool {
	for _, ancestorID := range c.PathIDs {
		if ancestorID == id {
			return true
		}
	}
	return false
}
