package model

type Product struct {
	BaseModel
	CategoryID         string   `db:"category_id" json:"category_id"`
	SubCategoryID      *string  `db:"sub_category_id" json:"sub_category_id"`
	SuperSubCategoryID *string  `db:"super_sub_category_id" json:"super_sub_category_id"`
	Name               string   `db:"name" json:"name"`
	Slug               string   `db:"slug" json:"slug"`
	Description        *string  `db:"description" json:"description"`
	ShortDescription   *string  `db:"short_description" json:"short_description"`
	ImageURL           *string  `db:"image_url" json:"image_url"`
	PDFURL             *string  `db:"pdf_url" json:"pdf_url"`
	Price              *float64 `db:"price" json:"price"`
	IsFeatured         bool     `db:"is_featured" json:"is_featured"`
	IsActive           bool     `db:"is_active" json:"is_active"`
	SortOrder          int      `db:"sort_order" json:"sort_order"`
	MetaTitle          *string  `db:"meta_title" json:"meta_title"`
	MetaDescription    *string  `db:"meta_description" json:"meta_description"`
}
