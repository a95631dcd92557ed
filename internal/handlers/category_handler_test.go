package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "daric/internal/errors"
	"daric/internal/models"
	"daric/internal/pagination"
	"daric/internal/services"
	"daric/internal/tree"
)

// --- mock category service ---

type mockCategoryService struct {
	createCategoryFn    func(userID string, input services.CreateCategoryInput) (*models.Category, error)
	getUserCategoriesFn func(userID string, filter services.CategoryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	getCategoryTreeFn   func(userID string, filter services.CategoryFilter) ([]*tree.Node, error)
	getCategoryByIDFn   func(userID, categoryID string) (*models.Category, error)
	updateCategoryFn    func(userID, categoryID string, input services.UpdateCategoryInput) (*models.Category, int64, error)
	moveCategoryFn      func(userID, categoryID string, newParentID *string) (*models.Category, error)
	deleteCategoryFn    func(userID, categoryID string, deleteChildren bool) (int64, error)
	getCategoryUsageFn  func(userID, categoryID string) (*services.CategoryUsage, error)
}

func (m *mockCategoryService) CreateCategory(userID string, input services.CreateCategoryInput) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(userID, input)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetUserCategories(userID string, filter services.CategoryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	if m.getUserCategoriesFn != nil {
		return m.getUserCategoriesFn(userID, filter, page)
	}
	resp := pagination.NewPageResponse([]models.Category{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockCategoryService) GetCategoryTree(userID string, filter services.CategoryFilter) ([]*tree.Node, error) {
	if m.getCategoryTreeFn != nil {
		return m.getCategoryTreeFn(userID, filter)
	}
	return []*tree.Node{}, nil
}

func (m *mockCategoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(userID, categoryID)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) UpdateCategory(userID, categoryID string, input services.UpdateCategoryInput) (*models.Category, int64, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(userID, categoryID, input)
	}
	return &models.Category{}, 0, nil
}

func (m *mockCategoryService) MoveCategory(userID, categoryID string, newParentID *string) (*models.Category, error) {
	if m.moveCategoryFn != nil {
		return m.moveCategoryFn(userID, categoryID, newParentID)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) DeleteCategory(userID, categoryID string, deleteChildren bool) (int64, error) {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(userID, categoryID, deleteChildren)
	}
	return 0, nil
}

func (m *mockCategoryService) GetCategoryUsage(userID, categoryID string) (*services.CategoryUsage, error) {
	if m.getCategoryUsageFn != nil {
		return m.getCategoryUsageFn(userID, categoryID)
	}
	return &services.CategoryUsage{}, nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

type mockUsageOracle struct{}

func (m *mockUsageOracle) CountTransactions(_, _ string) (int64, error)        { return 0, nil }
func (m *mockUsageOracle) ChildrenCount(_, _ string) (int64, error)            { return 0, nil }
func (m *mockUsageOracle) HasChildren(_, _ string) (bool, error)               { return false, nil }
func (m *mockUsageOracle) CountSubtreeTransactions(_, _ string) (int64, error) { return 0, nil }

var _ services.UsageOracler = (*mockUsageOracle)(nil)

const testCategoryID = "0190b7d5-1111-7cc1-8d2e-3f0f5a3b7c22"

func setupCategoryRouter(handler *CategoryHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/categories", handler.CreateCategory)
	auth.GET("/categories", handler.GetUserCategories)
	auth.GET("/categories/:id", handler.GetCategoryByID)
	auth.PUT("/categories/:id", handler.UpdateCategory)
	auth.PUT("/categories/:id/move", handler.MoveCategory)
	auth.DELETE("/categories/:id", handler.DeleteCategory)
	auth.GET("/categories/:id/usage", handler.GetCategoryUsage)
	return r
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		catSvc := &mockCategoryService{
			createCategoryFn: func(_ string, input services.CreateCategoryInput) (*models.Category, error) {
				cat := &models.Category{
					Name:  input.Name,
					Type:  input.Type,
					Level: 1,
					Path:  input.Name,
				}
				cat.ID = testCategoryID
				return cat, nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories",
			`{"name":"Food","type":"expense","icon":"🍕","color":"#FF0000"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		cat := parseJSON(t, rec)["category"].(map[string]interface{})
		if cat["name"] != "Food" {
			t.Errorf("expected Food, got %v", cat["name"])
		}
	})

	t.Run("accepts both type", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories", `{"name":"Adjustments","type":"both"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories", `{"type":"expense"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid type", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories", `{"name":"Food","type":"invalid"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid color format", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories", `{"name":"Food","type":"expense","color":"red"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 when parent holds transactions", func(t *testing.T) {
		catSvc := &mockCategoryService{
			createCategoryFn: func(_ string, _ services.CreateCategoryInput) (*models.Category, error) {
				return nil, apperrors.ErrParentHasTransactions
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories",
			`{"name":"Organic","type":"expense","parent_id":"`+testCategoryID+`"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PARENT_HAS_TRANSACTIONS")
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockUsageOracle{})
		r := gin.New()
		r.POST("/categories", handler.CreateCategory)

		rec := doRequest(r, "POST", "/categories", `{"name":"Food","type":"expense"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestCategoryHandler_GetUserCategories(t *testing.T) {
	t.Run("returns 200 with flat page", func(t *testing.T) {
		catSvc := &mockCategoryService{
			getUserCategoriesFn: func(_ string, _ services.CategoryFilter, _ pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
				resp := pagination.NewPageResponse([]models.Category{
					{Name: "Food", Type: "expense"},
					{Name: "Salary", Type: "income"},
				}, 1, 20, 2)
				return &resp, nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "GET", "/categories", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		page := parseJSON(t, rec)["categories"].(map[string]interface{})
		data := page["data"].([]interface{})
		if len(data) != 2 {
			t.Errorf("expected 2 categories, got %d", len(data))
		}
	})

	t.Run("passes filters through", func(t *testing.T) {
		var captured services.CategoryFilter
		catSvc := &mockCategoryService{
			getUserCategoriesFn: func(_ string, filter services.CategoryFilter, _ pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
				captured = filter
				resp := pagination.NewPageResponse([]models.Category{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		doRequest(r, "GET", "/categories?type=income&active=true&level=2", "")

		if captured.Type == nil || *captured.Type != models.CategoryTypeIncome {
			t.Errorf("expected income type filter, got %v", captured.Type)
		}
		if captured.Active == nil || !*captured.Active {
			t.Errorf("expected active filter, got %v", captured.Active)
		}
		if captured.Level == nil || *captured.Level != 2 {
			t.Errorf("expected level filter 2, got %v", captured.Level)
		}
	})

	t.Run("tree mode returns forest", func(t *testing.T) {
		catSvc := &mockCategoryService{
			getCategoryTreeFn: func(_ string, _ services.CategoryFilter) ([]*tree.Node, error) {
				root := &tree.Node{Children: []*tree.Node{}}
				root.Name = "Food"
				child := &tree.Node{Children: []*tree.Node{}}
				child.Name = "Groceries"
				root.Children = append(root.Children, child)
				return []*tree.Node{root}, nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "GET", "/categories?tree=true", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		forest := parseJSON(t, rec)["categories"].([]interface{})
		if len(forest) != 1 {
			t.Fatalf("expected 1 root, got %d", len(forest))
		}
		root := forest[0].(map[string]interface{})
		children := root["children"].([]interface{})
		if len(children) != 1 {
			t.Errorf("expected 1 child in tree, got %d", len(children))
		}
	})

	t.Run("returns 400 on invalid type filter", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "GET", "/categories?type=invalid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestCategoryHandler_GetCategoryByID(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		catSvc := &mockCategoryService{
			getCategoryByIDFn: func(_, catID string) (*models.Category, error) {
				cat := &models.Category{Name: "Food"}
				cat.ID = catID
				return cat, nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "GET", "/categories/"+testCategoryID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on malformed id", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "GET", "/categories/not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		catSvc := &mockCategoryService{
			getCategoryByIDFn: func(_, _ string) (*models.Category, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "GET", "/categories/"+testCategoryID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestCategoryHandler_UpdateCategory(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		catSvc := &mockCategoryService{
			updateCategoryFn: func(_, catID string, input services.UpdateCategoryInput) (*models.Category, int64, error) {
				cat := &models.Category{Name: *input.Name}
				cat.ID = catID
				return cat, 0, nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "PUT", "/categories/"+testCategoryID, `{"name":"Updated Food"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		cat := parseJSON(t, rec)["category"].(map[string]interface{})
		if cat["name"] != "Updated Food" {
			t.Errorf("expected Updated Food, got %v", cat["name"])
		}
	})

	t.Run("cascade flag reaches service and count returned", func(t *testing.T) {
		catSvc := &mockCategoryService{
			updateCategoryFn: func(_, _ string, input services.UpdateCategoryInput) (*models.Category, int64, error) {
				if !input.Cascade {
					t.Error("expected cascade flag to be set")
				}
				if input.IsActive == nil || *input.IsActive {
					t.Error("expected is_active=false to be passed")
				}
				return &models.Category{}, 3, nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "PUT", "/categories/"+testCategoryID+"?cascade=true", `{"is_active":false}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["cascaded_count"] != float64(3) {
			t.Errorf("expected cascaded_count 3, got %v", result["cascaded_count"])
		}
	})

	t.Run("returns 409 on inactive ancestor", func(t *testing.T) {
		catSvc := &mockCategoryService{
			updateCategoryFn: func(_, _ string, _ services.UpdateCategoryInput) (*models.Category, int64, error) {
				return nil, 0, apperrors.ErrInactiveAncestor
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "PUT", "/categories/"+testCategoryID, `{"is_active":true}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INACTIVE_ANCESTOR")
	})

	t.Run("returns 400 on self-parent", func(t *testing.T) {
		catSvc := &mockCategoryService{
			updateCategoryFn: func(_, _ string, _ services.UpdateCategoryInput) (*models.Category, int64, error) {
				return nil, 0, apperrors.ErrSelfParentCategory
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "PUT", "/categories/"+testCategoryID,
			`{"parent_id":"`+testCategoryID+`"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SELF_PARENT_CATEGORY")
	})
}

func TestCategoryHandler_MoveCategory(t *testing.T) {
	t.Run("returns 200 and passes new parent", func(t *testing.T) {
		newParent := "0190b7d5-2222-7cc1-8d2e-3f0f5a3b7c33"
		catSvc := &mockCategoryService{
			moveCategoryFn: func(_, catID string, parentID *string) (*models.Category, error) {
				if parentID == nil || *parentID != newParent {
					t.Errorf("expected parent %s, got %v", newParent, parentID)
				}
				cat := &models.Category{Name: "Errands", Level: 2}
				cat.ID = catID
				return cat, nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "PUT", "/categories/"+testCategoryID+"/move",
			`{"parent_id":"`+newParent+`"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("null parent moves to root", func(t *testing.T) {
		catSvc := &mockCategoryService{
			moveCategoryFn: func(_, _ string, parentID *string) (*models.Category, error) {
				if parentID != nil {
					t.Errorf("expected nil parent for move to root, got %v", *parentID)
				}
				return &models.Category{Level: 1}, nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "PUT", "/categories/"+testCategoryID+"/move", `{"parent_id":null}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on cycle", func(t *testing.T) {
		catSvc := &mockCategoryService{
			moveCategoryFn: func(_, _ string, _ *string) (*models.Category, error) {
				return nil, apperrors.ErrCyclicParent
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "PUT", "/categories/"+testCategoryID+"/move",
			`{"parent_id":"`+testCategoryID+`"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CYCLIC_PARENT")
	})
}

func TestCategoryHandler_DeleteCategory(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "DELETE", "/categories/"+testCategoryID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["message"] != "Category deleted successfully" {
			t.Errorf("unexpected message: %v", result["message"])
		}
	})

	t.Run("delete_children flag reaches service", func(t *testing.T) {
		catSvc := &mockCategoryService{
			deleteCategoryFn: func(_, _ string, deleteChildren bool) (int64, error) {
				if !deleteChildren {
					t.Error("expected delete_children flag to be set")
				}
				return 4, nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "DELETE", "/categories/"+testCategoryID+"?delete_children=true", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["deleted_count"] != float64(4) {
			t.Error("expected deleted_count 4 in response")
		}
	})

	t.Run("returns 409 when has children", func(t *testing.T) {
		catSvc := &mockCategoryService{
			deleteCategoryFn: func(_, _ string, _ bool) (int64, error) {
				return 0, apperrors.ErrCategoryHasChildren
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "DELETE", "/categories/"+testCategoryID, "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_HAS_CHILDREN")
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		catSvc := &mockCategoryService{
			deleteCategoryFn: func(_, _ string, _ bool) (int64, error) {
				return 0, apperrors.ErrCategoryNotFound
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "DELETE", "/categories/"+testCategoryID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestCategoryHandler_GetCategoryUsage(t *testing.T) {
	t.Run("returns 200 with usage report", func(t *testing.T) {
		catSvc := &mockCategoryService{
			getCategoryUsageFn: func(_, _ string) (*services.CategoryUsage, error) {
				return &services.CategoryUsage{
					HasTransactions:  true,
					TransactionCount: 7,
					HasChildren:      false,
				}, nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockUsageOracle{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "GET", "/categories/"+testCategoryID+"/usage", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		usage := parseJSON(t, rec)["usage"].(map[string]interface{})
		if usage["has_transactions"] != true {
			t.Error("expected has_transactions true")
		}
		if usage["transaction_count"] != float64(7) {
			t.Errorf("expected transaction_count 7, got %v", usage["transaction_count"])
		}
	})
}
