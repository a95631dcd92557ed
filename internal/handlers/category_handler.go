package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "daric/internal/errors"
	"daric/internal/models"
	"daric/internal/pagination"
	"daric/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
	usageOracle     services.UsageOracler
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer, usageOracle services.UsageOracler) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		usageOracle:     usageOracle,
	}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name        string              `json:"name" binding:"required,max=100"`
	Type        models.CategoryType `json:"type" binding:"required,category_type"`
	Description string              `json:"description" binding:"max=500"`
	Icon        string              `json:"icon" binding:"max=50"`
	Color       string              `json:"color" binding:"omitempty,hex_color"`
	ParentID    *string             `json:"parent_id" binding:"omitempty,uuid"`
	IsActive    *bool               `json:"is_active"`
}

// UpdateCategoryRequest represents the request payload for updating a
// category. Omitted fields are left unchanged; a parent_id is a structural
// move. Level, path and path_ids are never accepted from clients.
type UpdateCategoryRequest struct {
	Name        *string              `json:"name" binding:"omitempty,max=100"`
	Type        *models.CategoryType `json:"type" binding:"omitempty,category_type"`
	Description *string              `json:"description" binding:"omitempty,max=500"`
	Icon        *string              `json:"icon" binding:"omitempty,max=50"`
	Color       *string              `json:"color" binding:"omitempty,hex_color"`
	ParentID    *string              `json:"parent_id" binding:"omitempty,uuid"`
	IsActive    *bool                `json:"is_active"`
}

// MoveCategoryRequest represents the request payload for moving a category.
// A null parent_id moves the category to root level.
type MoveCategoryRequest struct {
	ParentID *string `json:"parent_id" binding:"omitempty,uuid"`
}

// ListCategoriesQuery holds the optional listing filters.
type ListCategoriesQuery struct {
	pagination.PageRequest
	Type     string  `form:"type" binding:"omitempty,category_type"`
	Active   *bool   `form:"active"`
	Level    *int    `form:"level" binding:"omitempty,min=1"`
	ParentID *string `form:"parent_id"`
	Tree     bool    `form:"tree"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a new transaction category, optionally under a parent
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Parent not found"
// @Failure     409 {object} ErrorResponse "Duplicate sibling name or parent holds transactions"
// @Failure     500 {object} ErrorResponse "Server error"
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

	category, err := h.categoryService.CreateCategory(userID, services.CreateCategoryInput{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		ParentID:    req.ParentID,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetUserCategories handles the retrieval of categories for a user
// @Summary     List categories
// @Description List the authenticated user's categories, flat (paginated) or as a tree
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       type query string false "Filter by category type (income/expense/both)"
// @Param       active query bool false "Filter by active flag"
// @Param       level query int false "Filter by tree depth (1 = roots)"
// @Param       parent_id query string false "Filter by parent id (empty selects roots)"
// @Param       tree query bool false "Return the assembled forest instead of flat rows"
// @Success     200 {array} models.Category "Categories"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) GetUserCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ListCategoriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.CategoryFilter{
		Active:   query.Active,
		Level:    query.Level,
		ParentID: query.ParentID,
	}
	if query.Type != "" {
		t := models.CategoryType(query.Type)
		filter.Type = &t
	}

	if query.Tree {
		forest, err := h.categoryService.GetCategoryTree(userID, filter)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": forest})
		return
	}

	result, err := h.categoryService.GetUserCategories(userID, filter, query.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": result})
}

// GetCategoryByID handles the retrieval of a specific category
// @Summary     Get category by ID
// @Description Get a specific transaction category by ID
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category details"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory handles updating a category
// @Summary     Update category
// @Description Partially update a category; changing parent_id moves it. With cascade=true an is_active change propagates to every descendant.
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Param       cascade query bool false "Propagate an is_active change to all descendants"
// @Param       request body UpdateCategoryRequest true "Updated category details"
// @Success     200 {object} models.Category "Updated category"
// @Failure     400 {object} ErrorResponse "Invalid input or category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Conflict (duplicate name, cycle, inactive ancestor, parent in use)"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, cascaded, err := h.categoryService.UpdateCategory(userID, categoryID, services.UpdateCategoryInput{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		ParentID:    req.ParentID,
		IsActive:    req.IsActive,
		Cascade:     parseBoolQuery(c, "cascade"),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	body := gin.H{"category": category}
	if req.IsActive != nil && parseBoolQuery(c, "cascade") {
		body["cascaded_count"] = cascaded
	}
	c.JSON(http.StatusOK, body)
}

// MoveCategory handles reassigning a category's parent
// @Summary     Move category
// @Description Move a category under a new parent (or to root level with a null parent_id); the whole subtree's paths are rewritten atomically
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Param       request body MoveCategoryRequest true "New parent"
// @Success     200 {object} models.Category "Moved category"
// @Failure     400 {object} ErrorResponse "Invalid input or self-parent"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category or parent not found"
// @Failure     409 {object} ErrorResponse "Cycle or parent holds transactions"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id}/move [put]
func (h *CategoryHandler) MoveCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MoveCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.MoveCategory(userID, categoryID, req.ParentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category
// @Summary     Delete category
// @Description Delete a category; with delete_children=true the whole subtree goes, provided no member is referenced by transactions
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Param       delete_children query bool false "Also delete all descendants"
// @Success     200 {object} MessageResponse "Category deleted"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Has children or in use by transactions"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	deletedDescendants, err := h.categoryService.DeleteCategory(userID, categoryID, parseBoolQuery(c, "delete_children"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Category deleted successfully",
		"deleted_count": deletedDescendants,
	})
}

// GetCategoryUsage handles the usage report for a category
// @Summary     Get category usage
// @Description Report whether a category has transactions or children, with counts
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} services.CategoryUsage "Usage report"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id}/usage [get]
func (h *CategoryHandler) GetCategoryUsage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	usage, err := h.categoryService.GetCategoryUsage(userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"usage": usage})
}
