package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/internal/product"
	"github.com/fekuna/catalog-storefront/internal/product/dto"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUseCase struct {
	product.UseCase
	resolveIn *dto.ResolveInput
	listIn    *dto.ProductFilters
	createIn  *dto.CreateProductInput
	createErr error
	listErr   error
}

func (s *stubUseCase) Resolve(_ context.Context, in *dto.ResolveInput) (*dto.Resolution, error) {
	s.resolveIn = in
	if len(in.Segments) > 1 {
		return nil, product.ErrNotFound
	}
	return &dto.Resolution{Type: dto.ResolvedCategory, Breadcrumbs: []dto.Breadcrumb{}}, nil
}

func (s *stubUseCase) ListProducts(_ context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	s.listIn = f
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	return []model.Product{{Name: "Gate Valve"}}, 1, nil
}

func (s *stubUseCase) CreateProduct(_ context.Context, in *dto.CreateProductInput) (*model.Product, error) {
	s.createIn = in
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &model.Product{Name: in.Name, CategoryID: in.CategoryID}, nil
}

func newRouter(uc product.UseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewProductHandler(uc, logger.NewNop())
	h.RegisterPublic(r.Group("/api"))
	h.RegisterAdmin(r.Group("/api/admin"))
	return r
}

func TestResolveSlugSplitsPath(t *testing.T) {
	uc := &stubUseCase{}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/valves", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"valves"}, uc.resolveIn.Segments)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/valves/ball-valves/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, []string{"valves", "ball-valves"}, uc.resolveIn.Segments)
	assert.JSONEq(t, `{"error":"Product not found"}`, w.Body.String())
}

func TestListProductsParsesFilters(t *testing.T) {
	uc := &stubUseCase{}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/products?category_id=abc&featured=true&page=2&limit=500&sort=name&order=desc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "abc", uc.listIn.CategoryID)
	require.NotNil(t, uc.listIn.IsFeatured)
	assert.True(t, *uc.listIn.IsFeatured)
	require.NotNil(t, uc.listIn.IsActive)
	assert.True(t, *uc.listIn.IsActive)
	assert.Equal(t, 2, uc.listIn.Page)
	assert.Equal(t, 100, uc.listIn.PageSize)
	assert.Equal(t, "name", uc.listIn.SortBy)

	var body struct {
		Products []model.Product `json:"products"`
		Total    int             `json:"total"`
		Page     int             `json:"page"`
		Limit    int             `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Products, 1)
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, 100, body.Limit)
}

func TestListProductsHidesInternalErrors(t *testing.T) {
	r := newRouter(&stubUseCase{listErr: errors.New("pq: connection refused")})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestCreateProduct(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"missing name", `{"category_id":"c1"}`, nil, http.StatusBadRequest},
		{"missing category", `{"name":"Gate Valve"}`, nil, http.StatusBadRequest},
		{"malformed json", `{"name":`, nil, http.StatusBadRequest},
		{"bad category chain", `{"name":"Gate Valve","category_id":"c1"}`, product.ErrInvalidCategory, http.StatusBadRequest},
		{"duplicate slug", `{"name":"Gate Valve","category_id":"c1"}`, product.ErrSlugTaken, http.StatusConflict},
		{"created", `{"name":"Gate Valve","category_id":"c1","price":12.5}`, nil, http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{createErr: tc.err}
			r := newRouter(uc)

			req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestSearchWithoutQueryIsEmpty(t *testing.T) {
	r := newRouter(&stubUseCase{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search?q=%20", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"products":[],"total":0,"page":1,"limit":20}`, w.Body.String())
}
