package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fekuna/catalog-storefront/internal/admin"
	"github.com/fekuna/catalog-storefront/internal/admin/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/jmoiron/sqlx"
)

var countQueries = map[string]string{
	dto.MetricCategories:          "SELECT count(*) FROM categories",
	dto.MetricSubCategories:       "SELECT count(*) FROM sub_categories",
	dto.MetricSuperSubCategories:  "SELECT count(*) FROM super_sub_categories",
	dto.MetricProducts:            "SELECT count(*) FROM products",
	dto.MetricActiveProducts:      "SELECT count(*) FROM products WHERE is_active",
	dto.MetricFeaturedProducts:    "SELECT count(*) FROM products WHERE is_featured AND is_active",
	dto.MetricContactEnquiries:    "SELECT count(*) FROM contact_enquiries",
	dto.MetricNewEnquiries:        "SELECT count(*) FROM contact_enquiries WHERE status = 'new'",
	dto.MetricNewsletterActive:    "SELECT count(*) FROM newsletter_subscriptions WHERE is_active",
	dto.MetricCatalogueRequests:   "SELECT count(*) FROM catalogue_requests",
	dto.MetricRecentCatalogueReqs: "SELECT count(*) FROM catalogue_requests WHERE created_at >= now() - interval '30 days'",
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	var a model.AdminUser
	query := `
        SELECT id, username, password_hash, name, last_login_at, created_at
        FROM admin_users
        WHERE username = $1
    `
	if err := r.DB.GetContext(ctx, &a, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGRepository) Create(ctx context.Context, a *model.AdminUser) error {
	query := `
        INSERT INTO admin_users (id, username, password_hash, name, created_at)
        VALUES (:id, :username, :password_hash, :name, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, a)
	return err
}

func (r *PGRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE admin_users SET password_hash = $1 WHERE id = $2", passwordHash, id)
	return err
}

func (r *PGRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE admin_users SET last_login_at = $1 WHERE id = $2", at, id)
	return err
}

func (r *PGRepository) Count(ctx context.Context, metric string) (int, error) {
	query, ok := countQueries[metric]
	if !ok {
		return 0, admin.ErrUnknownMetric
	}
	var n int
	if err := r.DB.GetContext(ctx, &n, query); err != nil {
		return 0, err
	}
	return n, nil
}
