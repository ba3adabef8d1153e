package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/catalog-storefront/internal/category"
	"github.com/fekuna/catalog-storefront/internal/category/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUseCase struct {
	category.UseCase
	bySlug  *model.Category
	filters []dto.CategoryFilters
	created *dto.CreateCategoryInput
	err     error
}

func (s *stubUseCase) GetCategoryBySlug(context.Context, model.Level, *string, string) (*model.Category, error) {
	if s.bySlug == nil {
		return nil, category.ErrNotFound
	}
	return s.bySlug, nil
}

func (s *stubUseCase) ListCategories(_ context.Context, f *dto.CategoryFilters) ([]model.Category, int, error) {
	s.filters = append(s.filters, *f)
	return []model.Category{}, 0, nil
}

func (s *stubUseCase) CreateCategory(_ context.Context, in *dto.CreateCategoryInput) (*model.Category, error) {
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	return &model.Category{BaseModel: model.BaseModel{ID: "new"}, Level: in.Level, Name: in.Name}, nil
}

func newRouter(uc category.UseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewCategoryHandler(uc, logger.NewNop())
	h.RegisterPublic(r.Group("/api"))
	h.RegisterAdmin(r.Group("/api/admin"))
	return r
}

func TestPublicListsOnlyActive(t *testing.T) {
	uc := &stubUseCase{}
	w := httptest.NewRecorder()
	newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sub-categories?category_id=c1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	require.Len(t, uc.filters, 1)
	assert.Equal(t, model.LevelSubCategory, uc.filters[0].Level)
	assert.True(t, *uc.filters[0].IsActive)
	assert.Equal(t, "c1", *uc.filters[0].ParentID)
}

func TestCategoryBySlugHidesInactive(t *testing.T) {
	uc := &stubUseCase{bySlug: &model.Category{BaseModel: model.BaseModel{ID: "c1"}, Slug: "valves", IsActive: false}}
	w := httptest.NewRecorder()
	newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories/valves", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	uc.bySlug.IsActive = true
	w = httptest.NewRecorder()
	newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories/valves", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subCategories":[]`)
	assert.Equal(t, "c1", *uc.filters[0].ParentID)
}

func TestCreateCategory(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		body   string
		err    error
		status int
	}{
		{"top level", "/api/admin/categories", `{"name":"Valves"}`, nil, http.StatusCreated},
		{"missing name", "/api/admin/categories", `{"slug":"valves"}`, nil, http.StatusBadRequest},
		{"sub without parent", "/api/admin/sub-categories", `{"name":"Ball"}`, nil, http.StatusBadRequest},
		{"sub with column name parent", "/api/admin/sub-categories", `{"name":"Ball","category_id":"c1"}`, nil, http.StatusCreated},
		{"slug taken", "/api/admin/categories", `{"name":"Valves"}`, category.ErrSlugTaken, http.StatusConflict},
		{"unknown parent", "/api/admin/super-sub-categories", `{"name":"Flanged","parent_id":"nope"}`, category.ErrInvalidParent, http.StatusBadRequest},
		{"malformed json", "/api/admin/categories", `{"name":`, nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{err: tc.err}
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			newRouter(uc).ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestCreateSubCategoryPassesParent(t *testing.T) {
	uc := &stubUseCase{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/sub-categories", strings.NewReader(`{"name":"Ball","category_id":"c1","sort_order":3}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(uc).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, uc.created)
	assert.Equal(t, model.LevelSubCategory, uc.created.Level)
	assert.Equal(t, "c1", uc.created.ParentID)
	assert.Equal(t, 3, uc.created.SortOrder)
}
