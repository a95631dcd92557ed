package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "daric/internal/errors"
	"daric/internal/models"
	"daric/internal/pagination"
)

// transactionService is the ledger boundary. It is the final authority on
// the leaf-only rule: even if a category check elsewhere raced with a
// concurrent mutation, insertion re-validates against current state.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction records a ledger row against a category. The category
// must exist for the user, be active, be a leaf, and accept the
// transaction type.
func (s *transactionService) CreateTransaction(
	userID string,
	categoryID string,
	transactionType models.TransactionType,
	amount int64,
	description string,
	date time.Time,
) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if categoryID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category ID is required")
	}

	if date.IsZero() {
		date = time.Now()
	}

	var result *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCategoryNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if !category.IsActive {
			return apperrors.WithDetails(apperrors.ErrCategoryInactive, map[string]interface{}{
				"category_id":   category.ID,
				"category_name": category.Name,
			})
		}

		if !category.Type.Accepts(transactionType) {
			return apperrors.WithDetails(apperrors.ErrCategoryTypeMismatch, map[string]interface{}{
				"category_type":    category.Type,
				"transaction_type": transactionType,
			})
		}

		// Leaf-only: a category with children can never hold transactions.
		childCount, err := countChildren(tx, userID, category.ID)
		if err != nil {
			return err
		}
		if childCount > 0 {
			return apperrors.WithDetails(apperrors.ErrCategoryNotLeaf, map[string]interface{}{
				"category_id":    category.ID,
				"category_name":  category.Name,
				"children_count": childCount,
			})
		}

		result = &models.Transaction{
			UserID:      userID,
			CategoryID:  categoryID,
			Type:        transactionType,
			Amount:      amount,
			Description: description,
			Date:        date,
		}
		if err := tx.Create(result).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetUserTransactions retrieves a paginated, filtered list of transactions.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.FromDate != nil {
		base = base.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Order("date DESC").Scopes(pagination.Paginate(page)).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// DeleteTransaction removes a transaction.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
