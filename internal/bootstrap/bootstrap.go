// Package bootstrap builds the pieces cmd/server and cmd/catalogctl share.
package bootstrap

import (
	"context"
	"time"

	"github.com/fekuna/catalog-storefront/config"
	"github.com/fekuna/catalog-storefront/migrations"
	"github.com/fekuna/catalog-storefront/pkg/database/postgres"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func NewLogger(cfg *config.Config) logger.ZapLogger {
	return logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
}

func OpenPostgres(cfg *config.Config) (*sqlx.DB, error) {
	return postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
}

// Migrate applies every embedded migration that has not run yet.
func Migrate(ctx context.Context, db *sqlx.DB, log logger.ZapLogger) error {
	applied, err := postgres.NewMigrator(db, migrations.FS, log).Up(ctx)
	if err != nil {
		return err
	}
	log.Info("Migrations applied", zap.Int("count", applied))
	return nil
}
