// catalogctl runs maintenance tasks against the catalog database: schema
// migrations, admin accounts, catalog seeding and lead exports.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fekuna/catalog-storefront/config"
	"github.com/fekuna/catalog-storefront/internal/bootstrap"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "catalogctl",
	Short:         "Maintenance commands for the catalog storefront",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(migrateCmd, createAdminCmd, resetPasswordCmd, seedCmd, exportCmd, watchLeadsCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env loads configuration and opens the database. Callers close the handle
// and sync the logger.
type env struct {
	cfg    *config.Config
	logger logger.ZapLogger
	db     *sqlx.DB
}

func loadConfig() (*config.Config, logger.ZapLogger) {
	_ = godotenv.Load(envFile)
	cfg := config.LoadEnv()
	return cfg, bootstrap.NewLogger(cfg)
}

func openEnv() (*env, error) {
	cfg, log := loadConfig()
	db, err := bootstrap.OpenPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &env{cfg: cfg, logger: log, db: db}, nil
}

func (e *env) Close() {
	e.db.Close()
	_ = e.logger.Sync()
}
