package services

import (
	"time"

	"daric/internal/models"
	"daric/internal/pagination"
	"daric/internal/tree"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	StoreRefreshTokenHash(userID, tokenHash string) error
	ClearRefreshTokenHash(userID string) error
	GetPreferences(userID string) (*models.User, error)
}

// CreateCategoryInput holds the caller-supplied fields for a new category.
// Level, path and path_ids are never accepted from callers.
type CreateCategoryInput struct {
	Name        string
	Type        models.CategoryType
	Description string
	Icon        string
	Color       string
	ParentID    *string
	IsActive    *bool
}

// UpdateCategoryInput holds partial update fields. Nil pointers leave the
// corresponding column untouched. A non-nil ParentID is a structural move;
// moves to root level go through MoveCategory with a nil parent.
type UpdateCategoryInput struct {
	Name        *string
	Type        *models.CategoryType
	Description *string
	Icon        *string
	Color       *string
	ParentID    *string
	IsActive    *bool
	// Cascade propagates an IsActive change to every descendant.
	Cascade bool
}

// CategoryFilter narrows category listings.
type CategoryFilter struct {
	Type     *models.CategoryType
	Active   *bool
	Level    *int
	ParentID *string // empty string selects root categories
}

// CategoryUsage reports whether (and how heavily) a category is referenced.
type CategoryUsage struct {
	HasTransactions  bool  `json:"has_transactions"`
	HasChildren      bool  `json:"has_children"`
	TransactionCount int64 `json:"transaction_count"`
	ChildrenCount    int64 `json:"children_count"`
}

// CategoryServicer defines the contract for category tree business logic.
type CategoryServicer interface {
	CreateCategory(userID string, input CreateCategoryInput) (*models.Category, error)
	GetUserCategories(userID string, filter CategoryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryTree(userID string, filter CategoryFilter) ([]*tree.Node, error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	// UpdateCategory returns the updated row and, when a cascade ran, the
	// number of descendants it touched.
	UpdateCategory(userID, categoryID string, input UpdateCategoryInput) (*models.Category, int64, error)
	MoveCategory(userID, categoryID string, newParentID *string) (*models.Category, error)
	// DeleteCategory returns the number of descendants removed alongside
	// the category itself.
	DeleteCategory(userID, categoryID string, deleteChildren bool) (int64, error)
	GetCategoryUsage(userID, categoryID string) (*CategoryUsage, error)
}

// UsageOracler answers reference questions about categories. Reads are
// best-effort under concurrent mutation; the transaction service re-checks
// leaf-only at insertion time and is the final authority.
type UsageOracler interface {
	CountTransactions(userID, categoryID string) (int64, error)
	ChildrenCount(userID, categoryID string) (int64, error)
	HasChildren(userID, categoryID string) (bool, error)
	CountSubtreeTransactions(userID, categoryID string) (int64, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
}

// TransactionServicer defines the contract for the ledger boundary.
type TransactionServicer interface {
	CreateTransaction(userID, categoryID string, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}
