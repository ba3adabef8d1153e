package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSQLStatements(t *testing.T) {
	in := `
-- categories
CREATE TABLE a (id INT);

CREATE INDEX idx_a ON a (id);
   ;
`
	got := splitSQLStatements(in)
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE INDEX idx_a ON a (id)"}, got)
}

func TestMigratorUpSkipsApplied(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "pgx")

	files := fstest.MapFS{
		"0001_init.up.sql":   {Data: []byte("CREATE TABLE a (id INT);")},
		"0001_init.down.sql": {Data: []byte("DROP TABLE a;")},
		"0002_more.up.sql":   {Data: []byte("CREATE TABLE b (id INT);")},
	}

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("0001_init"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE b (id INT)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version) VALUES ($1)")).
		WithArgs("0002_more").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := NewMigrator(db, files, nil).Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23505"}
	assert.True(t, IsUniqueViolation(err))
	assert.True(t, IsUniqueViolation(errors.Join(errors.New("insert"), err)))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}
