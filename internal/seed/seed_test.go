package seed

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/fekuna/catalog-storefront/internal/category"
	catdto "github.com/fekuna/catalog-storefront/internal/category/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/internal/product"
	prodto "github.com/fekuna/catalog-storefront/internal/product/dto"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCategories struct {
	category.UseCase
	rows []model.Category
}

func (s *stubCategories) GetCategoryBySlug(_ context.Context, level model.Level, parentID *string, slug string) (*model.Category, error) {
	for i, c := range s.rows {
		if c.Level == level && c.Slug == slug && deref(c.ParentID) == deref(parentID) {
			return &s.rows[i], nil
		}
	}
	return nil, category.ErrNotFound
}

func (s *stubCategories) CreateCategory(_ context.Context, in *catdto.CreateCategoryInput) (*model.Category, error) {
	c := model.Category{BaseModel: model.BaseModel{ID: fmt.Sprintf("%s-%d", in.Level, len(s.rows))}, Level: in.Level, Slug: in.Slug, Name: in.Name, IsActive: *in.IsActive}
	if in.ParentID != "" {
		parent := in.ParentID
		c.ParentID = &parent
	}
	s.rows = append(s.rows, c)
	return &c, nil
}

type stubProducts struct {
	product.UseCase
	created []prodto.CreateProductInput
	taken   map[string]bool
}

func (s *stubProducts) CreateProduct(_ context.Context, in *prodto.CreateProductInput) (*model.Product, error) {
	if s.taken[in.Slug] {
		return nil, product.ErrSlugTaken
	}
	s.created = append(s.created, *in)
	return &model.Product{Slug: in.Slug}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const catalogYAML = `
categories:
  - name: Valves
    products:
      - name: Valve Key
        slug: valve-key
    children:
      - name: Ball Valves
        slug: ball-valves
        inactive: true
        children:
          - name: Flanged
            products:
              - name: PN16 Flanged
                slug: pn16-flanged
                price: 120.5
                featured: true
`

func TestApplyBuildsTree(t *testing.T) {
	c, err := Decode(strings.NewReader(catalogYAML))
	require.NoError(t, err)

	cats := &stubCategories{}
	prods := &stubProducts{}
	stats, err := NewSeeder(cats, prods, logger.NewNop()).Apply(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, &Stats{CategoriesCreated: 3, ProductsCreated: 2}, stats)
	require.Len(t, cats.rows, 3)
	assert.Equal(t, "valves", cats.rows[0].Slug)
	assert.False(t, cats.rows[1].IsActive)
	assert.Equal(t, model.LevelSuperSubCategory, cats.rows[2].Level)

	require.Len(t, prods.created, 2)
	assert.Equal(t, cats.rows[0].ID, prods.created[0].CategoryID)
	assert.Empty(t, prods.created[0].SubCategoryID)

	flanged := prods.created[1]
	assert.Equal(t, cats.rows[0].ID, flanged.CategoryID)
	assert.Equal(t, cats.rows[1].ID, flanged.SubCategoryID)
	assert.Equal(t, cats.rows[2].ID, flanged.SuperSubCategoryID)
	assert.True(t, flanged.IsFeatured)
	require.NotNil(t, flanged.Price)
	assert.InDelta(t, 120.5, *flanged.Price, 0.001)
}

func TestApplyIsRepeatable(t *testing.T) {
	c, err := Decode(strings.NewReader(catalogYAML))
	require.NoError(t, err)

	cats := &stubCategories{}
	prods := &stubProducts{taken: map[string]bool{}}
	seeder := NewSeeder(cats, prods, logger.NewNop())
	_, err = seeder.Apply(context.Background(), c)
	require.NoError(t, err)

	for _, p := range prods.created {
		prods.taken[p.Slug] = true
	}
	stats, err := seeder.Apply(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, &Stats{CategoriesReused: 3, ProductsSkipped: 2}, stats)
	assert.Len(t, cats.rows, 3)
}

func TestApplyRejectsFourthLevel(t *testing.T) {
	c := &Catalog{Categories: []Node{{Name: "A", Children: []Node{{Name: "B", Children: []Node{{Name: "C", Children: []Node{{Name: "D"}}}}}}}}}
	_, err := NewSeeder(&stubCategories{}, &stubProducts{}, logger.NewNop()).Apply(context.Background(), c)
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("categories:\n  - name: A\n    colour: red\n"))
	assert.Error(t, err)
}
