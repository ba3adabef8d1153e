package category

import (
	"context"
	"errors"

	"github.com/fekuna/catalog-storefront/internal/category/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
)

var (
	ErrNotFound      = errors.New("category not found")
	ErrSlugTaken     = errors.New("slug already exists")
	ErrInvalidSlug   = errors.New("slug must contain letters or digits")
	ErrInvalidParent = errors.New("parent category does not exist")
	ErrInvalidLevel  = errors.New("unknown category level")
)

type UseCase interface {
	CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error)
	GetCategory(ctx context.Context, level model.Level, id string) (*model.Category, error)
	GetCategoryBySlug(ctx context.Context, level model.Level, parentID *string, slug string) (*model.Category, error)
	ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, level model.Level, id string) error
}

// ProductSync keeps product list caches and search documents in step with
// category writes. The product usecase satisfies it.
type ProductSync interface {
	// AffectedProducts lists the IDs of products filed under the category.
	AffectedProducts(ctx context.Context, level model.Level, id string) ([]string, error)
	// CategoryChanged drops cached product lists and refreshes the search
	// documents of productIDs, removing those that no longer exist.
	CategoryChanged(ctx context.Context, productIDs []string)
}
