package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"daric/internal/models"
	"daric/internal/tree"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
		Currency: "USD",
		Calendar: models.CalendarGregorian,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a root expense category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string) *models.Category {
	t.Helper()
	name := fmt.Sprintf("Category %d", nextID())
	return CreateTestCategoryNamed(t, db, userID, name, nil)
}

// CreateTestCategoryNamed creates a category with the given name under the
// given parent (nil for root), computing level, path and path ids from the
// parent's stored values.
func CreateTestCategoryNamed(t *testing.T, db *gorm.DB, userID, name string, parent *models.Category) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:   userID,
		Name:     name,
		Type:     models.CategoryTypeExpense,
		IsActive: true,
	}
	if parent != nil {
		category.ParentID = &parent.ID
	}
	tree.ChildPathInfo(parent, name).Apply(category)

	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates an expense transaction against the category.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, categoryID string, amount int64) *models.Transaction {
	t.Helper()

	transaction := &models.Transaction{
		UserID:      userID,
		CategoryID:  categoryID,
		Type:        models.TransactionTypeExpense,
		Amount:      amount,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Date:        time.Now(),
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return transaction
}
