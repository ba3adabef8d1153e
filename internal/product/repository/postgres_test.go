package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/internal/product/dto"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return NewPGRepository(sqlx.NewDb(raw, "pgx")), mock
}

func TestFindAllWhitelistsSort(t *testing.T) {
	repo, mock := newMock(t)
	active := true

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT count(*) FROM products WHERE category_id = $1 AND is_active = $2 AND (name ILIKE $3 OR slug ILIKE $4 OR short_description ILIKE $5)")).
		WithArgs("cat-1", true, "%ball%", "%ball%", "%ball%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY sort_order DESC LIMIT 20 OFFSET 0")).
		WithArgs("cat-1", true, "%ball%", "%ball%", "%ball%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	products, total, err := repo.FindAll(context.Background(), &dto.ProductFilters{
		CategoryID:  "cat-1",
		IsActive:    &active,
		SearchQuery: "ball",
		SortBy:      "price; DROP TABLE products",
		SortOrder:   "DESC",
		Page:        1,
		PageSize:    20,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBySlugMissing(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE slug = $1 LIMIT 1")).
		WithArgs("gate-valve").
		WillReturnError(sql.ErrNoRows)

	p, err := repo.FindBySlug(context.Background(), "gate-valve")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestUpdateUsesNamedParams(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &model.Product{
		BaseModel:  model.BaseModel{ID: "p-1"},
		CategoryID: "cat-1",
		Name:       "Gate Valve",
		Slug:       "gate-valve",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
