package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/catalog-storefront/internal/category"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/internal/product"
	"github.com/fekuna/catalog-storefront/internal/product/dto"
	"github.com/fekuna/catalog-storefront/pkg/database/postgres"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const (
	indexName     = "products"
	listCacheTTL  = 5 * time.Minute
	listCacheKeys = "products:list:*"
	syncTimeout   = 10 * time.Second
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"name": { "type": "text" },
			"slug": { "type": "keyword" },
			"short_description": { "type": "text" },
			"description": { "type": "text" },
			"category_id": { "type": "keyword" },
			"is_active": { "type": "boolean" },
			"created_at": { "type": "date" }
		}
	}
}`

type productUseCase struct {
	repo       product.Repository
	categories category.Repository
	cache      product.Cache
	es         product.SearchIndex
	logger     logger.ZapLogger
}

// NewProductUseCase wires the product usecase. cache and es may be nil, in
// which case listing goes straight to the database and search falls back to ILIKE.
func NewProductUseCase(repo product.Repository, categories category.Repository, cache product.Cache, es product.SearchIndex, log logger.ZapLogger) product.UseCase {
	uc := &productUseCase{
		repo:       repo,
		categories: categories,
		cache:      cache,
		es:         es,
		logger:     log,
	}
	if es != nil {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		if err := es.CreateIndex(ctx, indexName, indexMapping); err != nil {
			log.Warn("failed to ensure products index", zap.Error(err))
		}
	}
	return uc
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	refs := categoryRefs{
		category: input.CategoryID,
		sub:      optional(input.SubCategoryID),
		superSub: optional(input.SuperSubCategoryID),
	}
	if err := uc.checkCategoryRefs(ctx, refs); err != nil {
		return nil, err
	}

	s, err := makeSlug(input.Slug, input.Name)
	if err != nil {
		return nil, err
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	now := time.Now().UTC()
	p := &model.Product{
		BaseModel:          model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		CategoryID:         input.CategoryID,
		SubCategoryID:      refs.sub,
		SuperSubCategoryID: refs.superSub,
		Name:               strings.TrimSpace(input.Name),
		Slug:               s,
		Description:        optional(input.Description),
		ShortDescription:   optional(input.ShortDescription),
		ImageURL:           optional(input.ImageURL),
		PDFURL:             optional(input.PDFURL),
		Price:              input.Price,
		IsFeatured:         input.IsFeatured,
		IsActive:           isActive,
		SortOrder:          input.SortOrder,
		MetaTitle:          optional(input.MetaTitle),
		MetaDescription:    optional(input.MetaDescription),
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, translate(err)
	}

	uc.invalidateListCache(ctx)
	go uc.syncToElastic(p)

	uc.logger.Info("product created", zap.String("id", p.ID), zap.String("slug", p.Slug))
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, product.ErrNotFound
	}
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, product.ErrNotFound
	}
	return p, nil
}

type cachedList struct {
	Products []model.Product
	Count    int
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey := ""
	if uc.cache != nil {
		if key, err := generateCacheKey(filters); err == nil {
			cacheKey = key
			if val, ok, err := uc.cache.Get(ctx, key); err == nil && ok {
				var result cachedList
				if err := json.Unmarshal(val, &result); err == nil {
					return result.Products, result.Count, nil
				}
			} else if err != nil {
				uc.logger.Warn("product cache read failed", zap.Error(err))
			}
		}
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" {
		if data, err := json.Marshal(cachedList{Products: products, Count: count}); err == nil {
			if err := uc.cache.Set(ctx, cacheKey, data, listCacheTTL); err != nil {
				uc.logger.Warn("product cache write failed", zap.Error(err))
			}
		}
	}
	return products, count, nil
}

func (uc *productUseCase) SearchProducts(ctx context.Context, query string, page, pageSize int) ([]model.Product, int, error) {
	query = strings.TrimSpace(query)
	if page < 1 {
		page = 1
	}
	active := true

	if uc.es != nil && query != "" {
		q := map[string]any{
			"query": map[string]any{
				"bool": map[string]any{
					"must": []map[string]any{
						{
							"multi_match": map[string]any{
								"query":     query,
								"fields":    []string{"name^3", "short_description^2", "description", "slug"},
								"fuzziness": "AUTO",
							},
						},
					},
					"filter": []map[string]any{
						{"term": map[string]any{"is_active": true}},
					},
				},
			},
			"from": (page - 1) * pageSize,
			"size": pageSize,
		}

		res, err := uc.es.Search(ctx, indexName, q)
		if err == nil {
			products := make([]model.Product, 0, len(res.Hits.Hits))
			for _, hit := range res.Hits.Hits {
				var p model.Product
				if err := json.Unmarshal(hit.Source, &p); err == nil {
					products = append(products, p)
				}
			}
			return products, res.Hits.Total.Value, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	return uc.repo.FindAll(ctx, &dto.ProductFilters{
		SearchQuery: query,
		IsActive:    &active,
		Page:        page,
		PageSize:    pageSize,
	})
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil || input.SubCategoryID != nil || input.SuperSubCategoryID != nil {
		refs := categoryRefs{category: p.CategoryID, sub: p.SubCategoryID, superSub: p.SuperSubCategoryID}
		if input.CategoryID != nil {
			refs.category = *input.CategoryID
		}
		if input.SubCategoryID != nil {
			refs.sub = optional(*input.SubCategoryID)
		}
		if input.SuperSubCategoryID != nil {
			refs.superSub = optional(*input.SuperSubCategoryID)
		}
		if err := uc.checkCategoryRefs(ctx, refs); err != nil {
			return nil, err
		}
		p.CategoryID = refs.category
		p.SubCategoryID = refs.sub
		p.SuperSubCategoryID = refs.superSub
	}

	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Slug != nil {
		s, err := makeSlug(*input.Slug, p.Name)
		if err != nil {
			return nil, err
		}
		p.Slug = s
	}
	if input.Description != nil {
		p.Description = optional(*input.Description)
	}
	if input.ShortDescription != nil {
		p.ShortDescription = optional(*input.ShortDescription)
	}
	if input.ImageURL != nil {
		p.ImageURL = optional(*input.ImageURL)
	}
	if input.PDFURL != nil {
		p.PDFURL = optional(*input.PDFURL)
	}
	if input.Price != nil {
		p.Price = input.Price
	}
	if input.IsFeatured != nil {
		p.IsFeatured = *input.IsFeatured
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		p.SortOrder = *input.SortOrder
	}
	if input.MetaTitle != nil {
		p.MetaTitle = optional(*input.MetaTitle)
	}
	if input.MetaDescription != nil {
		p.MetaDescription = optional(*input.MetaDescription)
	}
	p.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, translate(err)
	}

	uc.invalidateListCache(ctx)
	go uc.syncToElastic(p)

	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return product.ErrNotFound
	}
	deleted, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return product.ErrNotFound
	}

	uc.invalidateListCache(ctx)
	if uc.es != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
			defer cancel()
			if err := uc.es.Delete(ctx, indexName, id); err != nil {
				uc.logger.Error("failed to delete product from ES", zap.Error(err))
			}
		}()
	}

	uc.logger.Info("product deleted", zap.String("id", id))
	return nil
}

func (uc *productUseCase) AffectedProducts(ctx context.Context, level model.Level, categoryID string) ([]string, error) {
	filters := &dto.ProductFilters{}
	switch level {
	case model.LevelCategory:
		filters.CategoryID = categoryID
	case model.LevelSubCategory:
		filters.SubCategoryID = categoryID
	case model.LevelSuperSubCategory:
		filters.SuperSubCategoryID = categoryID
	default:
		return nil, category.ErrInvalidLevel
	}
	products, _, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// CategoryChanged runs after a category write. Deleting a category removes
// its products while deleting a sub or super-sub category clears their
// reference, so each listed product is either dropped from or rewritten in
// the index.
func (uc *productUseCase) CategoryChanged(ctx context.Context, productIDs []string) {
	uc.invalidateListCache(ctx)
	if uc.es == nil || len(productIDs) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		for _, id := range productIDs {
			p, err := uc.repo.FindByID(ctx, id)
			switch {
			case err != nil:
				uc.logger.Error("failed to reload product for ES", zap.String("id", id), zap.Error(err))
			case p == nil:
				if err := uc.es.Delete(ctx, indexName, id); err != nil {
					uc.logger.Error("failed to delete product from ES", zap.String("id", id), zap.Error(err))
				}
			default:
				if err := uc.es.Index(ctx, indexName, p.ID, p); err != nil {
					uc.logger.Error("failed to index product", zap.String("id", p.ID), zap.Error(err))
				}
			}
		}
	}()
}

type categoryRefs struct {
	category string
	sub      *string
	superSub *string
}

// checkCategoryRefs verifies each reference exists and sits under the one above it.
func (uc *productUseCase) checkCategoryRefs(ctx context.Context, refs categoryRefs) error {
	if refs.superSub != nil && refs.sub == nil {
		return product.ErrInvalidCategory
	}

	cat, err := uc.findCategory(ctx, model.LevelCategory, refs.category)
	if err != nil || cat == nil {
		return orInvalid(err)
	}
	if refs.sub == nil {
		return nil
	}

	sub, err := uc.findCategory(ctx, model.LevelSubCategory, *refs.sub)
	if err != nil || sub == nil {
		return orInvalid(err)
	}
	if sub.ParentID == nil || *sub.ParentID != cat.ID {
		return product.ErrInvalidCategory
	}
	if refs.superSub == nil {
		return nil
	}

	superSub, err := uc.findCategory(ctx, model.LevelSuperSubCategory, *refs.superSub)
	if err != nil || superSub == nil {
		return orInvalid(err)
	}
	if superSub.ParentID == nil || *superSub.ParentID != sub.ID {
		return product.ErrInvalidCategory
	}
	return nil
}

func (uc *productUseCase) findCategory(ctx context.Context, level model.Level, id string) (*model.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return uc.categories.FindByID(ctx, level, id)
}

func orInvalid(err error) error {
	if err != nil {
		return err
	}
	return product.ErrInvalidCategory
}

func (uc *productUseCase) syncToElastic(p *model.Product) {
	if uc.es == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()
	if err := uc.es.Index(ctx, indexName, p.ID, p); err != nil {
		uc.logger.Error("failed to index product", zap.String("id", p.ID), zap.Error(err))
	}
}

func generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%x", md5.Sum(data)), nil
}

func (uc *productUseCase) invalidateListCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeletePattern(ctx, listCacheKeys); err != nil {
		uc.logger.Warn("failed to invalidate product cache", zap.Error(err))
	}
}

func makeSlug(explicit, name string) (string, error) {
	src := strings.TrimSpace(explicit)
	if src == "" {
		src = name
	}
	s := slug.Make(src)
	if s == "" {
		return "", product.ErrInvalidSlug
	}
	return s, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func translate(err error) error {
	switch {
	case postgres.IsUniqueViolation(err):
		return product.ErrSlugTaken
	case postgres.IsForeignKeyViolation(err):
		return product.ErrInvalidCategory
	}
	return err
}
