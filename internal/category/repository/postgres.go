package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/catalog-storefront/internal/category/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/jmoiron/sqlx"
)

const columns = `id, name, slug, description, image_url, sort_order, is_active, meta_title, meta_description, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func selectFrom(level model.Level) string {
	parent := "NULL AS parent_id"
	if col := level.ParentColumn(); col != "" {
		parent = col + " AS parent_id"
	}
	return fmt.Sprintf("SELECT %s, %s FROM %s", parent, columns, level.Table())
}

func (r *PGRepository) Create(ctx context.Context, c *model.Category) error {
	cols := "id, name, slug, description, image_url, sort_order, is_active, meta_title, meta_description, created_at, updated_at"
	vals := ":id, :name, :slug, :description, :image_url, :sort_order, :is_active, :meta_title, :meta_description, :created_at, :updated_at"
	if col := c.Level.ParentColumn(); col != "" {
		cols = col + ", " + cols
		vals = ":parent_id, " + vals
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", c.Level.Table(), cols, vals)
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, level model.Level, id string) (*model.Category, error) {
	var c model.Category
	query := selectFrom(level) + " WHERE id = $1 LIMIT 1"
	if err := r.DB.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Level = level
	return &c, nil
}

func (r *PGRepository) FindBySlug(ctx context.Context, level model.Level, parentID *string, slug string) (*model.Category, error) {
	var c model.Category
	query := selectFrom(level) + " WHERE slug = $1"
	args := []any{slug}
	if col := level.ParentColumn(); col != "" && parentID != nil {
		query += " AND " + col + " = $2"
		args = append(args, *parentID)
	}
	query += " LIMIT 1"

	if err := r.DB.GetContext(ctx, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Level = level
	return &c, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if col := f.Level.ParentColumn(); col != "" && f.ParentID != nil {
		conditions = append(conditions, col+" = :parent_id")
		args["parent_id"] = *f.ParentID
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.Search != "" {
		conditions = append(conditions, "(name ILIKE :search OR slug ILIKE :search)")
		args["search"] = "%" + f.Search + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM "+f.Level.Table()+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := selectFrom(f.Level) + whereClause + " ORDER BY sort_order ASC, name ASC"
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
	categories := []model.Category{}
	if err := r.DB.SelectContext(ctx, &categories, r.DB.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, err
	}
	for i := range categories {
		categories[i].Level = f.Level
	}
	return categories, count, nil
}

func (r *PGRepository) Update(ctx context.Context, c *model.Category) error {
	set := `name = :name,
            slug = :slug,
            description = :description,
            image_url = :image_url,
            sort_order = :sort_order,
            is_active = :is_active,
            meta_title = :meta_title,
            meta_description = :meta_description,
            updated_at = :updated_at`
	if col := c.Level.ParentColumn(); col != "" {
		set = col + " = :parent_id, " + set
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", c.Level.Table(), set)
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, level model.Level, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM "+level.Table()+" WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
