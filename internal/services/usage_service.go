package services

import (
	"gorm.io/gorm"

	apperrors "daric/internal/errors"
	"daric/internal/models"
)

// usageOracle answers category reference questions against the ledger and
// the category table. The unexported query helpers take the db handle as a
// parameter so the mutation engine can run them inside its transactions.
type usageOracle struct {
	db *gorm.DB
}

// NewUsageOracle creates a new UsageOracler.
func NewUsageOracle(db *gorm.DB) UsageOracler {
	return &usageOracle{db: db}
}

// CountTransactions counts ledger rows referencing the category directly.
func (o *usageOracle) CountTransactions(userID, categoryID string) (int64, error) {
	return countTransactions(o.db, userID, categoryID)
}

// ChildrenCount counts the category's direct children.
func (o *usageOracle) ChildrenCount(userID, categoryID string) (int64, error) {
	return countChildren(o.db, userID, categoryID)
}

// HasChildren reports whether the category has at least one direct child.
func (o *usageOracle) HasChildren(userID, categoryID string) (bool, error) {
	count, err := countChildren(o.db, userID, categoryID)
	return count > 0, err
}

// CountSubtreeTransactions counts ledger rows referencing the category or
// any of its descendants. Descendant membership comes from path_ids
// containment, not recursive traversal.
func (o *usageOracle) CountSubtreeTransactions(userID, categoryID string) (int64, error) {
	return countSubtreeTransactions(o.db, userID, categoryID)
}

func countTransactions(db *gorm.DB, userID, categoryID string) (int64, error) {
	var count int64
	err := db.Model(&models.Transaction{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

func countChildren(db *gorm.DB, userID, categoryID string) (int64, error) {
	var count int64
	err := db.Model(&models.Category{}).
		Where("user_id = ? AND parent_id = ?", userID, categoryID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

func countSubtreeTransactions(db *gorm.DB, userID, categoryID string) (int64, error) {
	subtree := db.Model(&models.Category{}).
		Select("id").
		Where("user_id = ? AND (id = ? OR path_ids LIKE ?)",
			userID, categoryID, models.LikePattern(categoryID))

	var count int64
	err := db.Model(&models.Transaction{}).
		Where("user_id = ? AND category_id IN (?)", userID, subtree).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// findDescendants loads every category under the given one, shallowest
// first so a top-down rewrite always sees its parent's fresh values.
func findDescendants(db *gorm.DB, userID, categoryID string) ([]models.Category, error) {
	var descendants []models.Category
	err := db.Where("user_id = ? AND path_ids LIKE ?", userID, models.LikePattern(categoryID)).
		Order("level ASC").
		Find(&descendants).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return descendants, nil
}
