package dto

import "github.com/fekuna/catalog-storefront/internal/model"

type CreateCategoryInput struct {
	Level           model.Level
	ParentID        string
	Name            string
	Slug            string
	Description     string
	ImageURL        string
	SortOrder       int
	IsActive        *bool
	MetaTitle       string
	MetaDescription string
}

// UpdateCategoryInput applies only the non-nil fields.
type UpdateCategoryInput struct {
	Level           model.Level
	ID              string
	ParentID        *string
	Name            *string
	Slug            *string
	Description     *string
	ImageURL        *string
	SortOrder       *int
	IsActive        *bool
	MetaTitle       *string
	MetaDescription *string
}
