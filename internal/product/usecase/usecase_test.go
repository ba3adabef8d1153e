package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	catdto "github.com/fekuna/catalog-storefront/internal/category/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/internal/product"
	"github.com/fekuna/catalog-storefront/internal/product/dto"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/fekuna/catalog-storefront/pkg/search"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducts struct {
	rows      map[string]*model.Product
	createErr error
	lastQuery *dto.ProductFilters
	findCalls int
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{rows: map[string]*model.Product{}}
}

func (f *fakeProducts) Create(_ context.Context, p *model.Product) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *p
	f.rows[p.ID] = &cp
	return nil
}

func (f *fakeProducts) FindByID(_ context.Context, id string) (*model.Product, error) {
	if p, ok := f.rows[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeProducts) FindBySlug(_ context.Context, slug string) (*model.Product, error) {
	for _, p := range f.rows {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeProducts) FindAll(_ context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	f.findCalls++
	f.lastQuery = filters
	out := []model.Product{}
	for _, p := range f.rows {
		if filters.CategoryID != "" && p.CategoryID != filters.CategoryID {
			continue
		}
		if filters.SubCategoryID != "" && (p.SubCategoryID == nil || *p.SubCategoryID != filters.SubCategoryID) {
			continue
		}
		if filters.SuperSubCategoryID != "" && (p.SuperSubCategoryID == nil || *p.SuperSubCategoryID != filters.SuperSubCategoryID) {
			continue
		}
		if filters.IsActive != nil && p.IsActive != *filters.IsActive {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakeProducts) Update(_ context.Context, p *model.Product) error {
	cp := *p
	f.rows[p.ID] = &cp
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := f.rows[id]; !ok {
		return false, nil
	}
	delete(f.rows, id)
	return true, nil
}

type fakeCategories struct {
	rows map[model.Level][]model.Category
}

func (f *fakeCategories) add(level model.Level, parent *model.Category, name, slug string, active bool) *model.Category {
	c := model.Category{
		BaseModel: model.BaseModel{ID: uuid.New().String()},
		Level:     level,
		Name:      name,
		Slug:      slug,
		IsActive:  active,
	}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	if f.rows == nil {
		f.rows = map[model.Level][]model.Category{}
	}
	f.rows[level] = append(f.rows[level], c)
	return &c
}

func (f *fakeCategories) Create(context.Context, *model.Category) error { return nil }
func (f *fakeCategories) Update(context.Context, *model.Category) error { return nil }
func (f *fakeCategories) Delete(context.Context, model.Level, string) (bool, error) {
	return false, nil
}

func (f *fakeCategories) FindByID(_ context.Context, level model.Level, id string) (*model.Category, error) {
	for _, c := range f.rows[level] {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCategories) FindBySlug(_ context.Context, level model.Level, parentID *string, slug string) (*model.Category, error) {
	for _, c := range f.rows[level] {
		if c.Slug != slug {
			continue
		}
		if parentID != nil && level != model.LevelCategory && (c.ParentID == nil || *c.ParentID != *parentID) {
			continue
		}
		cp := c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeCategories) FindAll(_ context.Context, filters *catdto.CategoryFilters) ([]model.Category, int, error) {
	out := []model.Category{}
	for _, c := range f.rows[filters.Level] {
		if filters.ParentID != nil && (c.ParentID == nil || *c.ParentID != *filters.ParentID) {
			continue
		}
		if filters.IsActive != nil && c.IsActive != *filters.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	cleared int
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = value
	return nil
}

func (m *memCache) DeletePattern(context.Context, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.cleared++
	return nil
}

type failingIndex struct{}

func (failingIndex) CreateIndex(context.Context, string, string) error { return nil }
func (failingIndex) Index(context.Context, string, string, any) error  { return nil }
func (failingIndex) Delete(context.Context, string, string) error      { return nil }
func (failingIndex) Search(context.Context, string, map[string]any) (*search.SearchResponse, error) {
	return nil, errors.New("cluster unavailable")
}

// catalog builds valves > ball-valves > flanged with one product at each depth.
type catalog struct {
	cats     *fakeCategories
	products *fakeProducts
	valves   *model.Category
	ball     *model.Category
	flanged  *model.Category
}

func newCatalog() *catalog {
	cats := &fakeCategories{}
	valves := cats.add(model.LevelCategory, nil, "Valves", "valves", true)
	ball := cats.add(model.LevelSubCategory, valves, "Ball Valves", "ball-valves", true)
	flanged := cats.add(model.LevelSuperSubCategory, ball, "Flanged", "flanged", true)
	cats.add(model.LevelSubCategory, valves, "Retired", "retired", false)

	products := newFakeProducts()
	put := func(name, slug string, sub, super *string) {
		id := uuid.New().String()
		products.rows[id] = &model.Product{
			BaseModel:          model.BaseModel{ID: id},
			CategoryID:         valves.ID,
			SubCategoryID:      sub,
			SuperSubCategoryID: super,
			Name:               name,
			Slug:               slug,
			IsActive:           true,
		}
	}
	put("Valve Key", "valve-key", nil, nil)
	put("Two Piece Ball Valve", "two-piece-ball-valve", &ball.ID, nil)
	put("PN16 Flanged Ball Valve", "pn16-flanged", &ball.ID, &flanged.ID)

	return &catalog{cats: cats, products: products, valves: valves, ball: ball, flanged: flanged}
}

func (c *catalog) usecase() product.UseCase {
	return NewProductUseCase(c.products, c.cats, nil, nil, logger.NewNop())
}

func TestResolveCategoryChain(t *testing.T) {
	c := newCatalog()
	uc := c.usecase()
	ctx := context.Background()

	res, err := uc.Resolve(ctx, &dto.ResolveInput{Segments: []string{"valves"}})
	require.NoError(t, err)
	assert.Equal(t, dto.ResolvedCategory, res.Type)
	require.Len(t, res.Children, 1, "inactive sub-categories are hidden")
	assert.Equal(t, "ball-valves", res.Children[0].Slug)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []dto.Breadcrumb{{Name: "Valves", Path: "/products/valves"}}, res.Breadcrumbs)

	res, err = uc.Resolve(ctx, &dto.ResolveInput{Segments: []string{"valves", "ball-valves", "flanged"}})
	require.NoError(t, err)
	assert.Equal(t, dto.ResolvedSuperSubCategory, res.Type)
	assert.Equal(t, c.ball.ID, res.SubCategory.ID)
	assert.Empty(t, res.Children)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "pn16-flanged", res.Products[0].Slug)
	assert.Equal(t, "/products/valves/ball-valves/flanged", res.Breadcrumbs[2].Path)
}

func TestResolveProductAtEachDepth(t *testing.T) {
	uc := newCatalog().usecase()
	ctx := context.Background()

	cases := []struct {
		name     string
		segments []string
		slug     string
		crumbs   int
	}{
		{"bare product slug", []string{"valve-key"}, "valve-key", 1},
		{"under category", []string{"valves", "valve-key"}, "valve-key", 2},
		{"under sub-category", []string{"valves", "ball-valves", "two-piece-ball-valve"}, "two-piece-ball-valve", 3},
		{"full depth", []string{"valves", "ball-valves", "flanged", "pn16-flanged"}, "pn16-flanged", 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := uc.Resolve(ctx, &dto.ResolveInput{Segments: tc.segments})
			require.NoError(t, err)
			assert.Equal(t, dto.ResolvedProduct, res.Type)
			require.NotNil(t, res.Product)
			assert.Equal(t, tc.slug, res.Product.Slug)
			assert.Len(t, res.Breadcrumbs, tc.crumbs)
		})
	}
}

func TestResolveRejectsMismatchedPaths(t *testing.T) {
	uc := newCatalog().usecase()
	ctx := context.Background()

	cases := map[string][]string{
		"empty":                  {},
		"too deep":               {"valves", "ball-valves", "flanged", "pn16-flanged", "extra"},
		"unknown slug":           {"pumps"},
		"inactive sub-category":  {"valves", "retired"},
		"product outside branch": {"valves", "ball-valves", "valve-key"},
		"product not last":       {"valve-key", "ball-valves"},
		"unknown middle segment": {"valves", "nope", "flanged"},
	}
	for name, segments := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Resolve(ctx, &dto.ResolveInput{Segments: segments})
			assert.ErrorIs(t, err, product.ErrNotFound)
		})
	}
}

func TestCreateProductValidatesCategoryChain(t *testing.T) {
	c := newCatalog()
	uc := c.usecase()
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Orphan", CategoryID: uuid.New().String()})
	assert.ErrorIs(t, err, product.ErrInvalidCategory)

	other := c.cats.add(model.LevelCategory, nil, "Pumps", "pumps", true)
	_, err = uc.CreateProduct(ctx, &dto.CreateProductInput{
		Name:          "Wrong Branch",
		CategoryID:    other.ID,
		SubCategoryID: c.ball.ID,
	})
	assert.ErrorIs(t, err, product.ErrInvalidCategory)

	_, err = uc.CreateProduct(ctx, &dto.CreateProductInput{
		Name:               "Skipped Level",
		CategoryID:         c.valves.ID,
		SuperSubCategoryID: c.flanged.ID,
	})
	assert.ErrorIs(t, err, product.ErrInvalidCategory)

	p, err := uc.CreateProduct(ctx, &dto.CreateProductInput{
		Name:               "Three Piece Flanged Valve",
		CategoryID:         c.valves.ID,
		SubCategoryID:      c.ball.ID,
		SuperSubCategoryID: c.flanged.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "three-piece-flanged-valve", p.Slug)
	assert.True(t, p.IsActive)
	require.NotNil(t, p.SuperSubCategoryID)
	assert.Equal(t, c.flanged.ID, *p.SuperSubCategoryID)
}

func TestCreateProductTranslatesUniqueViolation(t *testing.T) {
	c := newCatalog()
	c.products.createErr = &pgconn.PgError{Code: "23505"}

	_, err := c.usecase().CreateProduct(context.Background(), &dto.CreateProductInput{
		Name:       "Valve Key",
		CategoryID: c.valves.ID,
	})
	assert.ErrorIs(t, err, product.ErrSlugTaken)
}

func TestUpdateProductClearsSubCategory(t *testing.T) {
	c := newCatalog()
	uc := c.usecase()
	ctx := context.Background()

	res, err := uc.Resolve(ctx, &dto.ResolveInput{Segments: []string{"pn16-flanged"}})
	require.NoError(t, err)

	empty := ""
	_, err = uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: res.Product.ID, SubCategoryID: &empty})
	assert.ErrorIs(t, err, product.ErrInvalidCategory, "super-sub without sub is rejected")

	updated, err := uc.UpdateProduct(ctx, &dto.UpdateProductInput{
		ID:                 res.Product.ID,
		SubCategoryID:      &empty,
		SuperSubCategoryID: &empty,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.SubCategoryID)
	assert.Nil(t, updated.SuperSubCategoryID)
	assert.Equal(t, "PN16 Flanged Ball Valve", updated.Name)
}

func TestListProductsUsesCache(t *testing.T) {
	c := newCatalog()
	cache := &memCache{}
	uc := NewProductUseCase(c.products, c.cats, cache, nil, logger.NewNop())
	ctx := context.Background()

	filters := &dto.ProductFilters{CategoryID: c.valves.ID, Page: 1, PageSize: 20}
	_, total, err := uc.ListProducts(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, total, err = uc.ListProducts(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, c.products.findCalls)

	_, err = uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Gate Valve", CategoryID: c.valves.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.cleared)

	_, total, err = uc.ListProducts(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, 2, c.products.findCalls)
}

func TestSearchFallsBackToDatabase(t *testing.T) {
	c := newCatalog()
	uc := NewProductUseCase(c.products, c.cats, nil, failingIndex{}, logger.NewNop())

	_, _, err := uc.SearchProducts(context.Background(), "  ball ", 2, 10)
	require.NoError(t, err)
	require.NotNil(t, c.products.lastQuery)
	assert.Equal(t, "ball", c.products.lastQuery.SearchQuery)
	assert.Equal(t, 2, c.products.lastQuery.Page)
	require.NotNil(t, c.products.lastQuery.IsActive)
	assert.True(t, *c.products.lastQuery.IsActive)
}

func TestDeleteProductMissing(t *testing.T) {
	uc := newCatalog().usecase()

	assert.ErrorIs(t, uc.DeleteProduct(context.Background(), "nope"), product.ErrNotFound)
	assert.ErrorIs(t, uc.DeleteProduct(context.Background(), uuid.New().String()), product.ErrNotFound)
}

type recordingIndex struct {
	mu      sync.Mutex
	indexed map[string]*model.Product
	deleted []string
}

func (r *recordingIndex) CreateIndex(context.Context, string, string) error { return nil }

func (r *recordingIndex) Index(_ context.Context, _ string, id string, doc any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexed == nil {
		r.indexed = map[string]*model.Product{}
	}
	r.indexed[id] = doc.(*model.Product)
	return nil
}

func (r *recordingIndex) Delete(_ context.Context, _ string, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingIndex) Search(context.Context, string, map[string]any) (*search.SearchResponse, error) {
	return &search.SearchResponse{}, nil
}

func (r *recordingIndex) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.indexed), len(r.deleted)
}

func TestCategoryChangedRefreshesCacheAndIndex(t *testing.T) {
	c := newCatalog()
	cache := &memCache{}
	index := &recordingIndex{}
	uc := NewProductUseCase(c.products, c.cats, cache, index, logger.NewNop())
	ctx := context.Background()

	filters := &dto.ProductFilters{CategoryID: c.valves.ID, Page: 1, PageSize: 20}
	_, _, err := uc.ListProducts(ctx, filters)
	require.NoError(t, err)
	require.Len(t, cache.entries, 1)

	// Removing a sub-category clears the reference on its products.
	underBall, err := uc.AffectedProducts(ctx, model.LevelSubCategory, c.ball.ID)
	require.NoError(t, err)
	require.Len(t, underBall, 2)
	for _, id := range underBall {
		c.products.rows[id].SubCategoryID = nil
		c.products.rows[id].SuperSubCategoryID = nil
	}
	uc.CategoryChanged(ctx, underBall)
	assert.Equal(t, 1, cache.cleared)
	assert.Nil(t, cache.entries)
	assert.Eventually(t, func() bool {
		indexed, _ := index.counts()
		return indexed == 2
	}, time.Second, 10*time.Millisecond)
	index.mu.Lock()
	for _, id := range underBall {
		require.Contains(t, index.indexed, id)
		assert.Nil(t, index.indexed[id].SubCategoryID)
	}
	index.mu.Unlock()

	// Removing a top-level category cascades to its products.
	all, err := uc.AffectedProducts(ctx, model.LevelCategory, c.valves.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, id := range all {
		delete(c.products.rows, id)
	}
	uc.CategoryChanged(ctx, all)
	assert.Equal(t, 2, cache.cleared)
	assert.Eventually(t, func() bool {
		_, deleted := index.counts()
		return deleted == 3
	}, time.Second, 10*time.Millisecond)

	_, err = uc.AffectedProducts(ctx, model.Level("bogus"), c.valves.ID)
	assert.Error(t, err)
}
