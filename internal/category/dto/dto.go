package dto

import "github.com/fekuna/catalog-storefront/internal/model"

type CategoryFilters struct {
	Level    model.Level
	ParentID *string // nil means any parent
	IsActive *bool
	Search   string
	Page     int
	PageSize int // 0 returns everything
}
