// Package seed loads a YAML catalog tree into the database through the
// category and product usecases, so the same validation applies as for the
// admin API. Re-running a seed reuses existing categories and skips products
// whose slug is already taken.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fekuna/catalog-storefront/internal/category"
	catdto "github.com/fekuna/catalog-storefront/internal/category/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/internal/product"
	prodto "github.com/fekuna/catalog-storefront/internal/product/dto"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Catalog struct {
	Categories []Node `yaml:"categories"`
}

// Node is one category at any level. Children below the third level are
// rejected.
type Node struct {
	Name        string    `yaml:"name"`
	Slug        string    `yaml:"slug"`
	Description string    `yaml:"description"`
	ImageURL    string    `yaml:"image_url"`
	SortOrder   int       `yaml:"sort_order"`
	Inactive    bool      `yaml:"inactive"`
	Children    []Node    `yaml:"children"`
	Products    []Product `yaml:"products"`
}

type Product struct {
	Name             string   `yaml:"name"`
	Slug             string   `yaml:"slug"`
	ShortDescription string   `yaml:"short_description"`
	Description      string   `yaml:"description"`
	ImageURL         string   `yaml:"image_url"`
	PDFURL           string   `yaml:"pdf_url"`
	Price            *float64 `yaml:"price"`
	Featured         bool     `yaml:"featured"`
	SortOrder        int      `yaml:"sort_order"`
}

type Stats struct {
	CategoriesCreated int
	CategoriesReused  int
	ProductsCreated   int
	ProductsSkipped   int
}

var ErrTooDeep = errors.New("catalog nests deeper than three category levels")

func Decode(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &c, nil
}

type Seeder struct {
	categories category.UseCase
	products   product.UseCase
	logger     logger.ZapLogger
}

func NewSeeder(categories category.UseCase, products product.UseCase, log logger.ZapLogger) *Seeder {
	return &Seeder{categories: categories, products: products, logger: log}
}

func (s *Seeder) Apply(ctx context.Context, c *Catalog) (*Stats, error) {
	stats := &Stats{}
	for _, n := range c.Categories {
		if err := s.apply(ctx, n, 0, nil, stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// apply creates n at the given depth and recurses. chain holds the ids of
// the ancestors, outermost first.
func (s *Seeder) apply(ctx context.Context, n Node, depth int, chain []string, stats *Stats) error {
	if depth >= len(model.Levels) {
		return fmt.Errorf("%w: %q", ErrTooDeep, n.Name)
	}
	level := model.Levels[depth]

	cat, err := s.ensureCategory(ctx, level, n, chain, stats)
	if err != nil {
		return fmt.Errorf("%s %q: %w", level, n.Name, err)
	}
	chain = append(chain[:len(chain):len(chain)], cat.ID)

	for _, p := range n.Products {
		if err := s.createProduct(ctx, p, chain, stats); err != nil {
			return fmt.Errorf("product %q: %w", p.Name, err)
		}
	}
	for _, child := range n.Children {
		if err := s.apply(ctx, child, depth+1, chain, stats); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) ensureCategory(ctx context.Context, level model.Level, n Node, chain []string, stats *Stats) (*model.Category, error) {
	var parentID *string
	if len(chain) > 0 {
		parentID = &chain[len(chain)-1]
	}
	wantSlug := n.Slug
	if wantSlug == "" {
		wantSlug = slug.Make(n.Name)
	}

	existing, err := s.categories.GetCategoryBySlug(ctx, level, parentID, wantSlug)
	switch {
	case err == nil:
		stats.CategoriesReused++
		return existing, nil
	case !errors.Is(err, category.ErrNotFound):
		return nil, err
	}

	active := !n.Inactive
	input := &catdto.CreateCategoryInput{
		Level:       level,
		Name:        n.Name,
		Slug:        wantSlug,
		Description: n.Description,
		ImageURL:    n.ImageURL,
		SortOrder:   n.SortOrder,
		IsActive:    &active,
	}
	if parentID != nil {
		input.ParentID = *parentID
	}
	created, err := s.categories.CreateCategory(ctx, input)
	if err != nil {
		return nil, err
	}
	stats.CategoriesCreated++
	s.logger.Debug("Seeded category", zap.String("level", string(level)), zap.String("slug", created.Slug))
	return created, nil
}

func (s *Seeder) createProduct(ctx context.Context, p Product, chain []string, stats *Stats) error {
	input := &prodto.CreateProductInput{
		CategoryID:       chain[0],
		Name:             p.Name,
		Slug:             p.Slug,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		ImageURL:         p.ImageURL,
		PDFURL:           p.PDFURL,
		Price:            p.Price,
		IsFeatured:       p.Featured,
		SortOrder:        p.SortOrder,
	}
	if len(chain) > 1 {
		input.SubCategoryID = chain[1]
	}
	if len(chain) > 2 {
		input.SuperSubCategoryID = chain[2]
	}

	created, err := s.products.CreateProduct(ctx, input)
	if errors.Is(err, product.ErrSlugTaken) {
		stats.ProductsSkipped++
		return nil
	}
	if err != nil {
		return err
	}
	stats.ProductsCreated++
	s.logger.Debug("Seeded product", zap.String("slug", created.Slug))
	return nil
}
