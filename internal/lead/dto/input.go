package dto

type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Subject string
	Message string
}

// CatalogueInput names the product by id, by free text, or both. When
// ProductID is set the stored name and PDF come from the product row.
type CatalogueInput struct {
	Name        string
	Email       string
	Phone       string
	Company     string
	ProductID   string
	ProductName string
	Message     string
}
