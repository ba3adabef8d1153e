package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fekuna/catalog-storefront/internal/admin"
	admRepoPkg "github.com/fekuna/catalog-storefront/internal/admin/repository"
	admUCPkg "github.com/fekuna/catalog-storefront/internal/admin/usecase"
	"github.com/fekuna/catalog-storefront/internal/auth"
	"github.com/fekuna/catalog-storefront/internal/bootstrap"
	catRepoPkg "github.com/fekuna/catalog-storefront/internal/category/repository"
	catUCPkg "github.com/fekuna/catalog-storefront/internal/category/usecase"
	leadListenerPkg "github.com/fekuna/catalog-storefront/internal/lead/listener"
	leadRepoPkg "github.com/fekuna/catalog-storefront/internal/lead/repository"
	leadUCPkg "github.com/fekuna/catalog-storefront/internal/lead/usecase"
	prodRepoPkg "github.com/fekuna/catalog-storefront/internal/product/repository"
	prodUCPkg "github.com/fekuna/catalog-storefront/internal/product/usecase"
	"github.com/fekuna/catalog-storefront/internal/seed"
	"github.com/fekuna/catalog-storefront/pkg/broker"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		return bootstrap.Migrate(cmd.Context(), e.db, e.logger)
	},
}

var adminFlags struct {
	username string
	name     string
	password string
}

func newAdminUseCase(e *env) admin.UseCase {
	tokens := auth.NewTokenManager(e.cfg.JWT.SecretKey, e.cfg.JWT.TTL)
	limiter := auth.NewMemoryLimiter(e.cfg.Login.MaxAttempts, e.cfg.Login.Window, e.cfg.Login.MaxTracked)
	return admUCPkg.NewAdminUseCase(admRepoPkg.NewPGRepository(e.db), tokens, limiter, e.logger)
}

// password prefers the flag and falls back to ADMIN_PASSWORD so it can stay
// out of shell history.
func password() (string, error) {
	if adminFlags.password != "" {
		return adminFlags.password, nil
	}
	if p := os.Getenv("ADMIN_PASSWORD"); p != "" {
		return p, nil
	}
	return "", errors.New("--password or ADMIN_PASSWORD is required")
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pw, err := password()
		if err != nil {
			return err
		}
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		user, err := newAdminUseCase(e).CreateAdmin(cmd.Context(), adminFlags.username, adminFlags.name, pw)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Username, user.ID)
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password for an admin account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pw, err := password()
		if err != nil {
			return err
		}
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := newAdminUseCase(e).ResetPassword(cmd.Context(), adminFlags.username, pw); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", adminFlags.username)
		return nil
	},
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load categories and products from a YAML file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := os.Open(seedFile)
		if err != nil {
			return err
		}
		defer f.Close()
		catalog, err := seed.Decode(f)
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		catRepo := catRepoPkg.NewPGRepository(e.db)
		prodUC := prodUCPkg.NewProductUseCase(prodRepoPkg.NewPGRepository(e.db), catRepo, nil, nil, e.logger)
		seeder := seed.NewSeeder(catUCPkg.NewCategoryUseCase(catRepo, prodUC, e.logger), prodUC, e.logger)
		stats, err := seeder.Apply(cmd.Context(), catalog)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "categories: %d created, %d reused; products: %d created, %d skipped\n",
			stats.CategoriesCreated, stats.CategoriesReused, stats.ProductsCreated, stats.ProductsSkipped)
		return nil
	},
}

var exportFlags struct {
	from string
	to   string
	out  string
}

var exportCmd = &cobra.Command{
	Use:   "export-catalogue-requests",
	Short: "Write catalogue requests to a PDF report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, err := parseDay(exportFlags.from, false)
		if err != nil {
			return err
		}
		to, err := parseDay(exportFlags.to, true)
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		f, err := os.Create(exportFlags.out)
		if err != nil {
			return err
		}
		defer f.Close()

		uc := leadUCPkg.NewLeadUseCase(leadRepoPkg.NewPGRepository(e.db), prodRepoPkg.NewPGRepository(e.db), nil, e.logger)
		if err := uc.ExportCatalogueRequests(cmd.Context(), from, to, f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", exportFlags.out)
		return nil
	},
}

// parseDay reads a YYYY-MM-DD flag; endOfDay moves the result to the last
// instant of that day.
func parseDay(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

var watchLeadsCmd = &cobra.Command{
	Use:   "watch-leads",
	Short: "Log lead events from Kafka until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log := loadConfig()
		defer log.Sync()
		if len(cfg.Kafka.Brokers) == 0 {
			return errors.New("KAFKA_BROKERS is not set")
		}

		consumer := broker.NewConsumer(&broker.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.LeadTopic,
			GroupID: cfg.Kafka.GroupID + "-cli",
		})
		defer consumer.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		leadListenerPkg.NewLeadListener(consumer, leadListenerPkg.LogNotifier{Logger: log}, log).Start(ctx)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{createAdminCmd, resetPasswordCmd} {
		c.Flags().StringVar(&adminFlags.username, "username", "", "admin username")
		c.Flags().StringVar(&adminFlags.password, "password", "", "admin password (or ADMIN_PASSWORD)")
		_ = c.MarkFlagRequired("username")
	}
	createAdminCmd.Flags().StringVar(&adminFlags.name, "name", "", "display name")
	_ = createAdminCmd.MarkFlagRequired("name")

	seedCmd.Flags().StringVar(&seedFile, "file", "catalog.yaml", "YAML catalog to load")

	exportCmd.Flags().StringVar(&exportFlags.from, "from", "", "first day to include (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportFlags.to, "to", "", "last day to include (YYYY-MM-DD)")
	exportCmd.Flags().StringVarP(&exportFlags.out, "out", "o", "catalogue-requests.pdf", "output file")
}
