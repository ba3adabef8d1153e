package product

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/internal/product/dto"
	"github.com/fekuna/catalog-storefront/pkg/search"
)

var (
	ErrNotFound        = errors.New("product not found")
	ErrSlugTaken       = errors.New("slug already exists")
	ErrInvalidSlug     = errors.New("slug must contain letters or digits")
	ErrInvalidCategory = errors.New("category references are invalid")
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	SearchProducts(ctx context.Context, query string, page, pageSize int) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// Resolve walks category → sub-category → super-sub-category → product slugs.
	Resolve(ctx context.Context, input *dto.ResolveInput) (*dto.Resolution, error)

	AffectedProducts(ctx context.Context, level model.Level, categoryID string) ([]string, error)
	CategoryChanged(ctx context.Context, productIDs []string)
}

// Cache is satisfied by *cache.RedisClient.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

// SearchIndex is satisfied by *search.Client.
type SearchIndex interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc any) error
	Delete(ctx context.Context, index, id string) error
	Search(ctx context.Context, index string, query map[string]any) (*search.SearchResponse, error)
}
