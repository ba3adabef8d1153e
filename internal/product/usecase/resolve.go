package usecase

import (
	"context"
	"strings"

	catdto "github.com/fekuna/catalog-storefront/internal/category/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/internal/product"
	"github.com/fekuna/catalog-storefront/internal/product/dto"
)

const maxSegments = 4

// Resolve maps /products/<a>/<b>/<c>/<d> onto the taxonomy. Each segment is
// first tried as a category of the next level under the previous match; the
// final segment may instead be a product slug that sits under the chain.
func (uc *productUseCase) Resolve(ctx context.Context, input *dto.ResolveInput) (*dto.Resolution, error) {
	segments := make([]string, 0, len(input.Segments))
	for _, s := range input.Segments {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, strings.ToLower(s))
		}
	}
	if len(segments) == 0 || len(segments) > maxSegments {
		return nil, product.ErrNotFound
	}

	var chain []model.Category
	var parentID *string
	for i, seg := range segments {
		if i < len(model.Levels) {
			level := model.Levels[i]
			cat, err := uc.categories.FindBySlug(ctx, level, parentID, seg)
			if err != nil {
				return nil, err
			}
			if cat != nil && cat.IsActive {
				chain = append(chain, *cat)
				parentID = &cat.ID
				continue
			}
		}

		if i != len(segments)-1 {
			return nil, product.ErrNotFound
		}
		p, err := uc.repo.FindBySlug(ctx, seg)
		if err != nil {
			return nil, err
		}
		if p == nil || !p.IsActive || !belongsTo(p, chain) {
			return nil, product.ErrNotFound
		}
		res := newResolution(dto.ResolvedProduct, chain)
		res.Product = p
		res.Breadcrumbs = append(res.Breadcrumbs, dto.Breadcrumb{
			Name: p.Name,
			Path: productPath(chain, p.Slug),
		})
		return res, nil
	}

	return uc.categoryView(ctx, chain, input.Page, input.PageSize)
}

func (uc *productUseCase) categoryView(ctx context.Context, chain []model.Category, page, pageSize int) (*dto.Resolution, error) {
	deepest := chain[len(chain)-1]
	res := newResolution(resolvedType(deepest.Level), chain)

	if child, ok := deepest.Level.Child(); ok {
		active := true
		children, _, err := uc.categories.FindAll(ctx, &catdto.CategoryFilters{
			Level:    child,
			ParentID: &deepest.ID,
			IsActive: &active,
		})
		if err != nil {
			return nil, err
		}
		res.Children = children
	}

	active := true
	filters := &dto.ProductFilters{IsActive: &active, Page: page, PageSize: pageSize}
	switch deepest.Level {
	case model.LevelCategory:
		filters.CategoryID = deepest.ID
	case model.LevelSubCategory:
		filters.SubCategoryID = deepest.ID
	case model.LevelSuperSubCategory:
		filters.SuperSubCategoryID = deepest.ID
	}
	products, total, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	res.Products = products
	res.Total = total
	return res, nil
}

func newResolution(kind string, chain []model.Category) *dto.Resolution {
	res := &dto.Resolution{Type: kind, Breadcrumbs: []dto.Breadcrumb{}}
	for i := range chain {
		cat := chain[i]
		switch cat.Level {
		case model.LevelCategory:
			res.Category = &cat
		case model.LevelSubCategory:
			res.SubCategory = &cat
		case model.LevelSuperSubCategory:
			res.SuperSubCategory = &cat
		}
		res.Breadcrumbs = append(res.Breadcrumbs, dto.Breadcrumb{
			Name: cat.Name,
			Path: productPath(chain[:i], cat.Slug),
		})
	}
	return res
}

// belongsTo reports whether every resolved level matches the product's
// references. An empty chain matches any product.
func belongsTo(p *model.Product, chain []model.Category) bool {
	for _, cat := range chain {
		switch cat.Level {
		case model.LevelCategory:
			if p.CategoryID != cat.ID {
				return false
			}
		case model.LevelSubCategory:
			if p.SubCategoryID == nil || *p.SubCategoryID != cat.ID {
				return false
			}
		case model.LevelSuperSubCategory:
			if p.SuperSubCategoryID == nil || *p.SuperSubCategoryID != cat.ID {
				return false
			}
		}
	}
	return true
}

func productPath(chain []model.Category, last string) string {
	var b strings.Builder
	b.WriteString("/products")
	for _, c := range chain {
		b.WriteString("/")
		b.WriteString(c.Slug)
	}
	b.WriteString("/")
	b.WriteString(last)
	return b.String()
}

func resolvedType(level model.Level) string {
	switch level {
	case model.LevelSubCategory:
		return dto.ResolvedSubCategory
	case model.LevelSuperSubCategory:
		return dto.ResolvedSuperSubCategory
	default:
		return dto.ResolvedCategory
	}
}
