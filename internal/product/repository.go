package product

import (
	"context"

	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindBySlug(ctx context.Context, slug string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) (bool, error)
}
