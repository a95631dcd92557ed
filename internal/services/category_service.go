package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "daric/internal/errors"
	"daric/internal/models"
	"daric/internal/pagination"
	"daric/internal/tree"
)

// categoryService is the mutation engine for per-user category forests.
// Every structural change recomputes the denormalized level/path/path_ids
// eagerly for each affected row; there is no background reconciliation.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category, optionally under a parent.
func (s *categoryService) CreateCategory(userID string, input CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	var parent *models.Category
	if input.ParentID != nil {
		var err error
		parent, err = s.loadParent(s.db, userID, *input.ParentID)
		if err != nil {
			return nil, err
		}

		// A category holding transactions is a leaf with data and may
		// not gain children.
		txCount, err := countTransactions(s.db, userID, parent.ID)
		if err != nil {
			return nil, err
		}
		if txCount > 0 {
			return nil, apperrors.WithDetails(apperrors.ErrParentHasTransactions, map[string]interface{}{
				"parent_id":         parent.ID,
				"parent_name":       parent.Name,
				"transaction_count": txCount,
			})
		}
	}

	taken, err := s.siblingNameTaken(s.db, userID, input.ParentID, name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.WithDetails(apperrors.ErrDuplicateSiblingName, map[string]interface{}{
			"name": name,
		})
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	category := &models.Category{
		UserID:      userID,
		Name:        name,
		Type:        input.Type,
		IsActive:    isActive,
		ParentID:    input.ParentID,
		Description: input.Description,
		Icon:        input.Icon,
		Color:       input.Color,
	}
	tree.ChildPathInfo(parent, name).Apply(category)

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetUserCategories retrieves a paginated flat list of categories.
func (s *categoryService) GetUserCategories(userID string, filter CategoryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.applyFilter(s.db.Model(&models.Category{}).Where("user_id = ?", userID), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Order("path ASC").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryTree returns the user's categories assembled into a forest.
func (s *categoryService) GetCategoryTree(userID string, filter CategoryFilter) ([]*tree.Node, error) {
	var categories []models.Category
	err := s.applyFilter(s.db.Where("user_id = ?", userID), filter).
		Order("level ASC, path ASC").
		Find(&categories).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tree.Build(categories), nil
}

// GetCategoryByID retrieves a category by ID for a specific user.
// Absent and not-owned look identical to the caller.
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory applies a partial update. A parent change is a structural
// move; a rename rewrites the subtree's paths; an is_active change with
// Cascade touches every descendant. All subtree writes happen inside one
// transaction.
func (s *categoryService) UpdateCategory(userID, categoryID string, input UpdateCategoryInput) (*models.Category, int64, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, 0, err
	}

	finalName := category.Name
	if input.Name != nil {
		finalName = strings.TrimSpace(*input.Name)
		if finalName == "" {
			return nil, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
		}
	}
	renaming := finalName != category.Name

	moving := false
	if input.ParentID != nil {
		moving = category.ParentID == nil || *category.ParentID != *input.ParentID
	}

	finalParentID := category.ParentID
	if moving {
		finalParentID = input.ParentID
	}

	var newParent *models.Category
	if moving {
		newParent, err = s.validateMoveTarget(userID, category, input.ParentID)
		if err != nil {
			return nil, 0, err
		}
	} else if (renaming || input.IsActive != nil) && category.ParentID != nil {
		// Rename needs the parent's path; activation needs the chain.
		newParent, err = s.loadParent(s.db, userID, *category.ParentID)
		if err != nil {
			return nil, 0, err
		}
	}

	if renaming || moving {
		taken, err := s.siblingNameTaken(s.db, userID, finalParentID, finalName, category.ID)
		if err != nil {
			return nil, 0, err
		}
		if taken {
			return nil, 0, apperrors.WithDetails(apperrors.ErrDuplicateSiblingName, map[string]interface{}{
				"name": finalName,
			})
		}
	}

	newInfo := tree.ChildPathInfo(newParent, finalName)

	// Reactivation policy: a category may not come back while any ancestor
	// in its (possibly new) chain is inactive. Request-time check only;
	// stored state is never rewritten to satisfy it.
	if input.IsActive != nil && *input.IsActive && !category.IsActive {
		if err := s.checkAncestorsActive(s.db, userID, newInfo.PathIDs); err != nil {
			return nil, 0, err
		}
	}

	updates := make(map[string]interface{})
	if renaming {
		updates["name"] = finalName
	}
	if input.Type != nil {
		updates["type"] = *input.Type
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Icon != nil {
		updates["icon"] = *input.Icon
	}
	if input.Color != nil {
		updates["color"] = *input.Color
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if moving {
		updates["parent_id"] = input.ParentID
	}
	if renaming || moving {
		updates["level"] = newInfo.Level
		updates["path"] = newInfo.Path
		updates["path_ids"] = newInfo.PathIDs
	}

	var cascaded int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Category{}).Where("id = ?", category.ID).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if renaming || moving {
			newInfo.Apply(category)
			category.Name = finalName
			category.ParentID = finalParentID
			if err := s.rewriteSubtree(tx, category); err != nil {
				return err
			}
		}

		if input.IsActive != nil && input.Cascade {
			result := tx.Model(&models.Category{}).
				Where("user_id = ? AND path_ids LIKE ?", userID, models.LikePattern(category.ID)).
				Update("is_active", *input.IsActive)
			if result.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
			}
			cascaded = result.RowsAffected
		}

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	updated, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, 0, err
	}
	return updated, cascaded, nil
}

// MoveCategory reassigns a category's parent (nil moves it to root level)
// with the same semantics as a parent change through UpdateCategory.
func (s *categoryService) MoveCategory(userID, categoryID string, newParentID *string) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	newParent, err := s.validateMoveTarget(userID, category, newParentID)
	if err != nil {
		return nil, err
	}

	taken, err := s.siblingNameTaken(s.db, userID, newParentID, category.Name, category.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.WithDetails(apperrors.ErrDuplicateSiblingName, map[string]interface{}{
			"name": category.Name,
		})
	}

	newInfo := tree.ChildPathInfo(newParent, category.Name)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"parent_id": newParentID,
			"level":     newInfo.Level,
			"path":      newInfo.Path,
			"path_ids":  newInfo.PathIDs,
		}
		if err := tx.Model(&models.Category{}).Where("id = ?", category.ID).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		newInfo.Apply(category)
		category.ParentID = newParentID
		return s.rewriteSubtree(tx, category)
	})
	if err != nil {
		return nil, err
	}

	return s.GetCategoryByID(userID, categoryID)
}

// DeleteCategory removes a category, and with deleteChildren the whole
// subtree, provided nothing in scope is referenced by transactions.
func (s *categoryService) DeleteCategory(userID, categoryID string, deleteChildren bool) (int64, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return 0, err
	}

	childCount, err := countChildren(s.db, userID, category.ID)
	if err != nil {
		return 0, err
	}
	if childCount > 0 && !deleteChildren {
		return 0, apperrors.WithDetails(apperrors.ErrCategoryHasChildren, map[string]interface{}{
			"children_count": childCount,
		})
	}

	txCount, err := countTransactions(s.db, userID, category.ID)
	if err != nil {
		return 0, err
	}
	if txCount > 0 {
		return 0, apperrors.WithDetails(apperrors.ErrCategoryInUse, map[string]interface{}{
			"transaction_count": txCount,
		})
	}

	if deleteChildren {
		subtreeTxCount, err := countSubtreeTransactions(s.db, userID, category.ID)
		if err != nil {
			return 0, err
		}
		if subtreeTxCount > 0 {
			return 0, apperrors.WithDetails(apperrors.ErrSubtreeInUse, map[string]interface{}{
				"transaction_count": subtreeTxCount,
			})
		}
	}

	var deletedDescendants int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if deleteChildren {
			result := tx.Where("user_id = ? AND path_ids LIKE ?", userID, models.LikePattern(category.ID)).
				Delete(&models.Category{})
			if result.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
			}
			deletedDescendants = result.RowsAffected
		}

		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deletedDescendants, nil
}

// GetCategoryUsage reports reference counts for a category.
func (s *categoryService) GetCategoryUsage(userID, categoryID string) (*CategoryUsage, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	txCount, err := countTransactions(s.db, userID, category.ID)
	if err != nil {
		return nil, err
	}
	childCount, err := countChildren(s.db, userID, category.ID)
	if err != nil {
		return nil, err
	}

	return &CategoryUsage{
		HasTransactions:  txCount > 0,
		HasChildren:      childCount > 0,
		TransactionCount: txCount,
		ChildrenCount:    childCount,
	}, nil
}

// loadParent fetches a prospective parent, reporting absence the same way
// as a missing category so existence never leaks across users.
func (s *categoryService) loadParent(db *gorm.DB, userID, parentID string) (*models.Category, error) {
	var parent models.Category
	if err := db.Where("id = ? AND user_id = ?", parentID, userID).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &parent, nil
}

// validateMoveTarget checks the self-parent, cycle, and
// parent-has-transactions rules for a prospective move. Returns the loaded
// new parent, or nil for a move to root level.
func (s *categoryService) validateMoveTarget(userID string, category *models.Category, newParentID *string) (*models.Category, error) {
	if newParentID == nil {
		return nil, nil
	}
	if *newParentID == category.ID {
		return nil, apperrors.ErrSelfParentCategory
	}

	parent, err := s.loadParent(s.db, userID, *newParentID)
	if err != nil {
		return nil, err
	}

	// The new parent descending from the moved category would close a
	// cycle; its path_ids chain makes this an O(depth) containment check.
	if parent.HasAncestor(category.ID) {
		return nil, apperrors.WithDetails(apperrors.ErrCyclicParent, map[string]interface{}{
			"category_id":   category.ID,
			"new_parent_id": parent.ID,
		})
	}

	txCount, err := countTransactions(s.db, userID, parent.ID)
	if err != nil {
		return nil, err
	}
	if txCount > 0 {
		return nil, apperrors.WithDetails(apperrors.ErrParentHasTransactions, map[string]interface{}{
			"parent_id":         parent.ID,
			"parent_name":       parent.Name,
			"transaction_count": txCount,
		})
	}

	return parent, nil
}

// rewriteSubtree recomputes level/path/path_ids for every descendant of
// root, top-down: rows are visited shallowest first, so each child reads
// its parent's freshly written values. Callers wrap this in a transaction;
// either the whole subtree is rewritten or none of it is.
func (s *categoryService) rewriteSubtree(tx *gorm.DB, root *models.Category) error {
	descendants, err := findDescendants(tx, root.UserID, root.ID)
	if err != nil {
		return err
	}

	rewritten := map[string]*models.Category{root.ID: root}
	for i := range descendants {
		d := &descendants[i]
		if d.ParentID == nil {
			return apperrors.Wrap(apperrors.ErrInternalServer,
				errors.New("descendant "+d.ID+" has no parent"))
		}
		parent, ok := rewritten[*d.ParentID]
		if !ok {
			return apperrors.Wrap(apperrors.ErrInternalServer,
				errors.New("descendant "+d.ID+" visited before its parent"))
		}

		info := tree.ChildPathInfo(parent, d.Name)
		info.Apply(d)

		err := tx.Model(&models.Category{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
			"level":    d.Level,
			"path":     d.Path,
			"path_ids": d.PathIDs,
		}).Error
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		rewritten[d.ID] = d
	}

	return nil
}

// checkAncestorsActive walks the chain from the immediate parent to the
// root and rejects with the nearest inactive ancestor, so the client can
// prompt the user to activate that specific category first.
func (s *categoryService) checkAncestorsActive(db *gorm.DB, userID string, pathIDs models.StringList) error {
	if len(pathIDs) == 0 {
		return nil
	}

	var ancestors []models.Category
	err := db.Where("user_id = ? AND id IN ?", userID, []string(pathIDs)).Find(&ancestors).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	byID := make(map[string]*models.Category, len(ancestors))
	for i := range ancestors {
		byID[ancestors[i].ID] = &ancestors[i]
	}

	for i := len(pathIDs) - 1; i >= 0; i-- {
		ancestor := byID[pathIDs[i]]
		if ancestor != nil && !ancestor.IsActive {
			return apperrors.WithDetails(apperrors.ErrInactiveAncestor, map[string]interface{}{
				"ancestor_id":    ancestor.ID,
				"ancestor_name":  ancestor.Name,
				"ancestor_level": ancestor.Level,
			})
		}
	}

	return nil
}

// siblingNameTaken reports whether another category with the same user and
// parent already uses the name, case-insensitively.
func (s *categoryService) siblingNameTaken(db *gorm.DB, userID string, parentID *string, name, excludeID string) (bool, error) {
	q := db.Model(&models.Category{}).
		Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// applyFilter narrows a category query by the optional filter fields.
func (s *categoryService) applyFilter(q *gorm.DB, filter CategoryFilter) *gorm.DB {
	if filter.Type != nil {
		// "both" categories serve either ledger, so a type filter keeps them.
		q = q.Where("type IN ?", []models.CategoryType{*filter.Type, models.CategoryTypeBoth})
	}
	if filter.Active != nil {
		q = q.Where("is_active = ?", *filter.Active)
	}
	if filter.Level != nil {
		q = q.Where("level = ?", *filter.Level)
	}
	if filter.ParentID != nil {
		if *filter.ParentID == "" {
			q = q.Where("parent_id IS NULL")
		} else {
			q = q.Where("parent_id = ?", *filter.ParentID)
		}
	}
	return q
}
