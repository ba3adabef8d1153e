package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/catalog-storefront/internal/category"
	"github.com/fekuna/catalog-storefront/internal/category/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/pkg/database/postgres"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

type categoryUseCase struct {
	repo     category.Repository
	products category.ProductSync
	logger   logger.ZapLogger
}

// NewCategoryUseCase wires the category usecase. products may be nil when no
// product cache or search index needs refreshing after category writes.
func NewCategoryUseCase(repo category.Repository, products category.ProductSync, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:     repo,
		products: products,
		logger:   log,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	if !input.Level.Valid() {
		return nil, category.ErrInvalidLevel
	}

	var parentID *string
	if parentLevel, ok := input.Level.Parent(); ok {
		if input.ParentID == "" {
			return nil, category.ErrInvalidParent
		}
		if err := uc.ensureParent(ctx, parentLevel, input.ParentID); err != nil {
			return nil, err
		}
		parentID = &input.ParentID
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
	cat := &model.Category{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Level:           input.Level,
		ParentID:        parentID,
		Name:            strings.TrimSpace(input.Name),
		Slug:            s,
		Description:     optional(input.Description),
		ImageURL:        optional(input.ImageURL),
		SortOrder:       input.SortOrder,
		IsActive:        isActive,
		MetaTitle:       optional(input.MetaTitle),
		MetaDescription: optional(input.MetaDescription),
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, translate(err)
	}
	uc.logger.Info("category created",
		zap.String("level", string(cat.Level)),
		zap.String("id", cat.ID),
		zap.String("slug", cat.Slug),
	)
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, level model.Level, id string) (*model.Category, error) {
	if !level.Valid() {
		return nil, category.ErrInvalidLevel
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, category.ErrNotFound
	}
	cat, err := uc.repo.FindByID(ctx, level, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, category.ErrNotFound
	}
	return cat, nil
}

func (uc *categoryUseCase) GetCategoryBySlug(ctx context.Context, level model.Level, parentID *string, s string) (*model.Category, error) {
	if !level.Valid() {
		return nil, category.ErrInvalidLevel
	}
	cat, err := uc.repo.FindBySlug(ctx, level, parentID, s)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, category.ErrNotFound
	}
	return cat, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	if !filters.Level.Valid() {
		return nil, 0, category.ErrInvalidLevel
	}
	return uc.repo.FindAll(ctx, filters)
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	cat, err := uc.GetCategory(ctx, input.Level, input.ID)
	if err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		parentLevel, ok := input.Level.Parent()
		if !ok {
			return nil, category.ErrInvalidParent
		}
		if err := uc.ensureParent(ctx, parentLevel, *input.ParentID); err != nil {
			return nil, err
		}
		cat.ParentID = input.ParentID
	}
	if input.Name != nil {
		cat.Name = strings.TrimSpace(*input.Name)
	}
	if input.Slug != nil {
		s, err := makeSlug(*input.Slug, cat.Name)
		if err != nil {
			return nil, err
		}
		cat.Slug = s
	}
	if input.Description != nil {
		cat.Description = optional(*input.Description)
	}
	if input.ImageURL != nil {
		cat.ImageURL = optional(*input.ImageURL)
	}
	if input.SortOrder != nil {
		cat.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		cat.IsActive = *input.IsActive
	}
	if input.MetaTitle != nil {
		cat.MetaTitle = optional(*input.MetaTitle)
	}
	if input.MetaDescription != nil {
		cat.MetaDescription = optional(*input.MetaDescription)
	}
	cat.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, translate(err)
	}
	if uc.products != nil {
		uc.products.CategoryChanged(ctx, nil)
	}
	return cat, nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, level model.Level, id string) error {
	if !level.Valid() {
		return category.ErrInvalidLevel
	}
	if _, err := uuid.Parse(id); err != nil {
		return category.ErrNotFound
	}

	var affected []string
	if uc.products != nil {
		ids, err := uc.products.AffectedProducts(ctx, level, id)
		if err != nil {
			return err
		}
		affected = ids
	}

	deleted, err := uc.repo.Delete(ctx, level, id)
	if err != nil {
		return err
	}
	if !deleted {
		return category.ErrNotFound
	}
	if uc.products != nil {
		uc.products.CategoryChanged(ctx, affected)
	}
	uc.logger.Info("category deleted",
		zap.String("level", string(level)),
		zap.String("id", id),
		zap.Int("products", len(affected)),
	)
	return nil
}

func (uc *categoryUseCase) ensureParent(ctx context.Context, level model.Level, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return category.ErrInvalidParent
	}
	parent, err := uc.repo.FindByID(ctx, level, id)
	if err != nil {
		return err
	}
	if parent == nil {
		return category.ErrInvalidParent
	}
	return nil
}

// makeSlug normalises an explicit slug, or derives one from name.
func makeSlug(explicit, name string) (string, error) {
	src := strings.TrimSpace(explicit)
	if src == "" {
		src = name
	}
	s := slug.Make(src)
	if s == "" {
		return "", category.ErrInvalidSlug
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
		return category.ErrSlugTaken
	case postgres.IsForeignKeyViolation(err):
		return category.ErrInvalidParent
	}
	return err
}
