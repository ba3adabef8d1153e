package category

import (
	"context"

	"github.com/fekuna/catalog-storefront/internal/category/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
)

type Repository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, level model.Level, id string) (*model.Category, error)
	// FindBySlug looks a slug up within parentID; parentID is ignored for top-level categories.
	FindBySlug(ctx context.Context, level model.Level, parentID *string, slug string) (*model.Category, error)
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, level model.Level, id string) (bool, error)
}
