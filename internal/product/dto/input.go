package dto

type CreateProductInput struct {
	CategoryID         string
	SubCategoryID      string
	SuperSubCategoryID string
	Name               string
	Slug               string
	Description        string
	ShortDescription   string
	ImageURL           string
	PDFURL             string
	Price              *float64
	IsFeatured         bool
	IsActive           *bool
	SortOrder          int
	MetaTitle          string
	MetaDescription    string
}

// UpdateProductInput applies only the non-nil fields. An empty string for
// SubCategoryID or SuperSubCategoryID clears the reference.
type UpdateProductInput struct {
	ID                 string
	CategoryID         *string
	SubCategoryID      *string
	SuperSubCategoryID *string
	Name               *string
	Slug               *string
	Description        *string
	ShortDescription   *string
	ImageURL           *string
	PDFURL             *string
	Price              *float64
	IsFeatured         *bool
	IsActive           *bool
	SortOrder          *int
	MetaTitle          *string
	MetaDescription    *string
}
