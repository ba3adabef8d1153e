package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Migrator applies *.up.sql files from FS in lexical order, skipping versions
// already recorded in schema_migrations.
type Migrator struct {
	DB     *sqlx.DB
	FS     fs.FS
	Logger logger.ZapLogger
}

func NewMigrator(db *sqlx.DB, files fs.FS, log logger.ZapLogger) *Migrator {
	return &Migrator{DB: db, FS: files, Logger: log}
}

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func (m *Migrator) Up(ctx context.Context) (int, error) {
	if m == nil || m.DB == nil {
		return 0, errors.New("migrator requires a database handle")
	}
	if m.FS == nil {
		return 0, errors.New("migrator requires a filesystem")
	}
	log := m.Logger
	if log == nil {
		log = logger.NewNop()
	}

	if _, err := m.DB.ExecContext(ctx, createMigrationsTable); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	var done []string
	if err := m.DB.SelectContext(ctx, &done, `SELECT version FROM schema_migrations`); err != nil {
		return 0, fmt.Errorf("read schema_migrations: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, v := range done {
		applied[v] = true
	}

	entries, err := fs.ReadDir(m.FS, ".")
	if err != nil {
		return 0, fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	count := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		version := strings.TrimSuffix(name, ".up.sql")
		if applied[version] {
			continue
		}

		contents, err := fs.ReadFile(m.FS, name)
		if err != nil {
			return count, fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := m.apply(ctx, version, splitSQLStatements(string(contents))); err != nil {
			return count, fmt.Errorf("apply %s: %w", name, err)
		}
		count++
		log.Info("migration applied", zap.String("version", version))
	}

	if count == 0 {
		log.Info("no migrations to run")
	}
	return count, nil
}

func (m *Migrator) apply(ctx context.Context, version string, statements []string) error {
	tx, err := m.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// splitSQLStatements breaks a migration file on semicolons and drops blanks
// and comment-only chunks. Migrations must not contain semicolons inside
// string literals or function bodies.
func splitSQLStatements(sqlText string) []string {
	raw := strings.Split(sqlText, ";")
	out := make([]string, 0, len(raw))
	for _, stmt := range raw {
		trimmed := strings.TrimSpace(stripComments(stmt))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func stripComments(stmt string) string {
	lines := strings.Split(stmt, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
