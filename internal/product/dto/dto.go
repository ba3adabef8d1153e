package dto

import "github.com/fekuna/catalog-storefront/internal/model"

type ProductFilters struct {
	CategoryID         string
	SubCategoryID      string
	SuperSubCategoryID string
	IsActive           *bool
	IsFeatured         *bool
	SearchQuery        string // name, slug, short description
	SortBy             string // name, created_at, sort_order
	SortOrder          string // asc, desc
	Page               int
	PageSize           int
}

type ResolveInput struct {
	Segments []string
	Page     int
	PageSize int
}

type Breadcrumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

const (
	ResolvedCategory         = "category"
	ResolvedSubCategory      = "sub_category"
	ResolvedSuperSubCategory = "super_sub_category"
	ResolvedProduct          = "product"
)

// Resolution is the payload of the universal slug route. Category views carry
// their active children and products; product views carry the product.
type Resolution struct {
	Type             string           `json:"type"`
	Category         *model.Category  `json:"category,omitempty"`
	SubCategory      *model.Category  `json:"subCategory,omitempty"`
	SuperSubCategory *model.Category  `json:"superSubCategory,omitempty"`
	Product          *model.Product   `json:"product,omitempty"`
	Children         []model.Category `json:"children,omitempty"`
	Products         []model.Product  `json:"products,omitempty"`
	Total            int              `json:"total,omitempty"`
	Breadcrumbs      []Breadcrumb     `json:"breadcrumbs"`
}
