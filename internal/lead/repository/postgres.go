package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/catalog-storefront/internal/lead"
	"github.com/fekuna/catalog-storefront/internal/lead/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/jmoiron/sqlx"
)

const (
	enquiryColumns      = "id, name, email, phone, company, subject, message, status, created_at"
	subscriptionColumns = "id, email, is_active, created_at"
	requestColumns      = "id, name, email, phone, company, product_id, product_name, pdf_url, message, created_at"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateEnquiry(ctx context.Context, e *model.ContactEnquiry) error {
	query := `
        INSERT INTO contact_enquiries (id, name, email, phone, company, subject, message, status, created_at)
        VALUES (:id, :name, :email, :phone, :company, :subject, :message, :status, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, e)
	return err
}

func (r *PGRepository) ListEnquiries(ctx context.Context, f *dto.ListFilters) ([]model.ContactEnquiry, int, error) {
	out := []model.ContactEnquiry{}
	total, err := list(ctx, r.DB, &out, "contact_enquiries", enquiryColumns, f)
	return out, total, err
}

func (r *PGRepository) UpdateEnquiryStatus(ctx context.Context, id, status string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "UPDATE contact_enquiries SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGRepository) FindSubscription(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
	var s model.NewsletterSubscription
	query := "SELECT " + subscriptionColumns + " FROM newsletter_subscriptions WHERE email = $1"
	if err := r.DB.GetContext(ctx, &s, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGRepository) CreateSubscription(ctx context.Context, s *model.NewsletterSubscription) error {
	query := `
        INSERT INTO newsletter_subscriptions (id, email, is_active, created_at)
        VALUES (:id, :email, :is_active, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, s)
	return err
}

func (r *PGRepository) SetSubscriptionActive(ctx context.Context, id string, active bool) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE newsletter_subscriptions SET is_active = $1 WHERE id = $2", active, id)
	return err
}

func (r *PGRepository) ListSubscriptions(ctx context.Context, f *dto.ListFilters) ([]model.NewsletterSubscription, int, error) {
	out := []model.NewsletterSubscription{}
	total, err := list(ctx, r.DB, &out, "newsletter_subscriptions", subscriptionColumns, f)
	return out, total, err
}

func (r *PGRepository) CreateCatalogueRequest(ctx context.Context, req *model.CatalogueRequest) error {
	query := `
        INSERT INTO catalogue_requests (id, name, email, phone, company, product_id, product_name, pdf_url, message, created_at)
        VALUES (:id, :name, :email, :phone, :company, :product_id, :product_name, :pdf_url, :message, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, req)
	return err
}

func (r *PGRepository) ListCatalogueRequests(ctx context.Context, f *dto.ListFilters) ([]model.CatalogueRequest, int, error) {
	out := []model.CatalogueRequest{}
	total, err := list(ctx, r.DB, &out, "catalogue_requests", requestColumns, f)
	return out, total, err
}

func (r *PGRepository) Delete(ctx context.Context, kind lead.Kind, id string) (bool, error) {
	table, ok := kind.Table()
	if !ok {
		return false, lead.ErrInvalidKind
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// list runs the shared count + page query used by every lead table, newest first.
func list(ctx context.Context, db *sqlx.DB, dest any, table, columns string, f *dto.ListFilters) (int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" && table == "contact_enquiries" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.Search != "" {
		if table == "newsletter_subscriptions" {
			conditions = append(conditions, "email ILIKE :search")
		} else {
			conditions = append(conditions, "(name ILIKE :search OR email ILIKE :search)")
		}
		args["search"] = "%" + f.Search + "%"
	}
	if f.From != nil {
		conditions = append(conditions, "created_at >= :from")
		args["from"] = *f.From
	}
	if f.To != nil {
		conditions = append(conditions, "created_at <= :to")
		args["to"] = *f.To
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM "+table+whereClause, args)
	if err != nil {
		return 0, err
	}
	if err := db.GetContext(ctx, &count, db.Rebind(countQuery), countArgs...); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY created_at DESC", columns, table, whereClause)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	listQuery, listArgs, err := sqlx.Named(query, args)
	if err != nil {
		return 0, err
	}
	if err := db.SelectContext(ctx, dest, db.Rebind(listQuery), listArgs...); err != nil {
		return 0, err
	}
	return count, nil
}
