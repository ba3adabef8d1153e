package model

import "time"

const (
	EnquiryStatusNew     = "new"
	EnquiryStatusRead    = "read"
	EnquiryStatusReplied = "replied"
)

type ContactEnquiry struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone"`
	Company   *string   `db:"company" json:"company"`
	Subject   *string   `db:"subject" json:"subject"`
	Message   string    `db:"message" json:"message"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type NewsletterSubscription struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CatalogueRequest struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	Company     *string   `db:"company" json:"company"`
	ProductID   *string   `db:"product_id" json:"product_id"`
	ProductName string    `db:"product_name" json:"product_name"`
	PDFURL      *string   `db:"pdf_url" json:"pdf_url"`
	Message     *string   `db:"message" json:"message"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
