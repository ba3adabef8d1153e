package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/internal/product/dto"
	"github.com/jmoiron/sqlx"
)

const columns = `id, category_id, sub_category_id, super_sub_category_id, name, slug, description,
        short_description, image_url, pdf_url, price, is_featured, is_active, sort_order,
        meta_title, meta_description, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, category_id, sub_category_id, super_sub_category_id, name, slug, description,
            short_description, image_url, pdf_url, price, is_featured, is_active, sort_order,
            meta_title, meta_description, created_at, updated_at
        )
        VALUES (
            :id, :category_id, :sub_category_id, :super_sub_category_id, :name, :slug, :description,
            :short_description, :image_url, :pdf_url, :price, :is_featured, :is_active, :sort_order,
            :meta_title, :meta_description, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	return r.findOne(ctx, "id", id)
}

func (r *PGRepository) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return r.findOne(ctx, "slug", slug)
}

func (r *PGRepository) findOne(ctx context.Context, column, value string) (*model.Product, error) {
	var product model.Product
	query := fmt.Sprintf("SELECT %s FROM products WHERE %s = $1 LIMIT 1", columns, column)
	err := r.DB.GetContext(ctx, &product, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.CategoryID != "" {
		conditions = append(conditions, "category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.SubCategoryID != "" {
		conditions = append(conditions, "sub_category_id = :sub_category_id")
		args["sub_category_id"] = f.SubCategoryID
	}
	if f.SuperSubCategoryID != "" {
		conditions = append(conditions, "super_sub_category_id = :super_sub_category_id")
		args["super_sub_category_id"] = f.SuperSubCategoryID
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.IsFeatured != nil {
		conditions = append(conditions, "is_featured = :is_featured")
		args["is_featured"] = *f.IsFeatured
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR slug ILIKE :search OR short_description ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM products"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	orderBy := "sort_order ASC, name ASC"
	if f.SortBy != "" {
		// Whitelist to keep ORDER BY out of user control.
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "created_at":
			orderBy = "created_at"
		case "sort_order":
			orderBy = "sort_order"
		default:
			orderBy = "sort_order"
		}
		if strings.ToLower(f.SortOrder) == "desc" {
			orderBy += " DESC"
		} else {
			orderBy += " ASC"
		}
	}

	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s", columns, whereClause, orderBy)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	listQuery, listArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}
	products := []model.Product{}
	if err := r.DB.SelectContext(ctx, &products, r.DB.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET category_id = :category_id,
            sub_category_id = :sub_category_id,
            super_sub_category_id = :super_sub_category_id,
            name = :name,
            slug = :slug,
            description = :description,
            short_description = :short_description,
            image_url = :image_url,
            pdf_url = :pdf_url,
            price = :price,
            is_featured = :is_featured,
            is_active = :is_active,
            sort_order = :sort_order,
            meta_title = :meta_title,
            meta_description = :meta_description,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
