package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/catalog-storefront/config"
	"github.com/fekuna/catalog-storefront/internal/auth"
	"github.com/fekuna/catalog-storefront/internal/bootstrap"
	"github.com/fekuna/catalog-storefront/internal/lead"
	"github.com/fekuna/catalog-storefront/internal/product"
	"github.com/fekuna/catalog-storefront/internal/server"
	"github.com/fekuna/catalog-storefront/internal/sitemap"
	"github.com/fekuna/catalog-storefront/pkg/broker"
	"github.com/fekuna/catalog-storefront/pkg/cache"
	"github.com/fekuna/catalog-storefront/pkg/search"
	"github.com/fekuna/catalog-storefront/pkg/storage"

	admH "github.com/fekuna/catalog-storefront/internal/admin/handler"
	admRepoPkg "github.com/fekuna/catalog-storefront/internal/admin/repository"
	admUCPkg "github.com/fekuna/catalog-storefront/internal/admin/usecase"

	catH "github.com/fekuna/catalog-storefront/internal/category/handler"
	catRepoPkg "github.com/fekuna/catalog-storefront/internal/category/repository"
	catUCPkg "github.com/fekuna/catalog-storefront/internal/category/usecase"

	prodH "github.com/fekuna/catalog-storefront/internal/product/handler"
	prodRepoPkg "github.com/fekuna/catalog-storefront/internal/product/repository"
	prodUCPkg "github.com/fekuna/catalog-storefront/internal/product/usecase"

	leadH "github.com/fekuna/catalog-storefront/internal/lead/handler"
	leadListenerPkg "github.com/fekuna/catalog-storefront/internal/lead/listener"
	leadRepoPkg "github.com/fekuna/catalog-storefront/internal/lead/repository"
	leadUCPkg "github.com/fekuna/catalog-storefront/internal/lead/usecase"

	uplH "github.com/fekuna/catalog-storefront/internal/upload/handler"
	uplUCPkg "github.com/fekuna/catalog-storefront/internal/upload/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	appLogger := bootstrap.NewLogger(cfg)
	defer appLogger.Sync()

	if err := cfg.Validate(); err != nil {
		appLogger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect to Database
	db, err := bootstrap.OpenPostgres(cfg)
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if cfg.Server.RunMigrations {
		if err := bootstrap.Migrate(ctx, db, appLogger); err != nil {
			appLogger.Fatal("Could not apply migrations", zap.Error(err))
		}
	}

	// 4. Initialize Repositories
	catRepo := catRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	leadRepo := leadRepoPkg.NewPGRepository(db)
	admRepo := admRepoPkg.NewPGRepository(db)

	// 5. Optional Redis: product list cache and shared login limiter
	var productCache product.Cache
	var limiter auth.LoginLimiter
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		productCache = redisClient
		limiter = auth.NewRedisLimiter(redisClient.Client, cfg.Login.MaxAttempts, cfg.Login.Window)
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		memLimiter := auth.NewMemoryLimiter(cfg.Login.MaxAttempts, cfg.Login.Window, cfg.Login.MaxTracked)
		go memLimiter.Run(ctx, time.Minute)
		limiter = memLimiter
		appLogger.Info("Redis not configured, using in-process login limiter")
	}

	// 6. Optional Kafka: lead events and the notification listener
	var publisher lead.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.LeadTopic,
		})
		defer producer.Close()
		publisher = producer

		consumer := broker.NewConsumer(&broker.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.LeadTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer consumer.Close()
		leadListener := leadListenerPkg.NewLeadListener(consumer, leadListenerPkg.LogNotifier{Logger: appLogger}, appLogger)
		go leadListener.Start(ctx)
		appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.LeadTopic))
	}

	// 7. Optional Elasticsearch
	var searchIndex product.SearchIndex
	if len(cfg.Elastic.Addresses) > 0 {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, search falls back to the database", zap.Error(err))
		} else {
			searchIndex = esClient
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 8. Object storage
	var uploadHandler *uplH.UploadHandler
	maxUpload := int64(cfg.Storage.MaxUploadMB) << 20
	store, err := storage.NewS3Store(ctx, &storage.Config{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		Bucket:        cfg.Storage.Bucket,
		Region:        cfg.Storage.Region,
		UseSSL:        cfg.Storage.UseSSL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		appLogger.Warn("Object storage unavailable, uploads disabled", zap.Error(err))
	} else {
		uploadHandler = uplH.NewUploadHandler(uplUCPkg.NewUploadUseCase(store, maxUpload, appLogger), maxUpload, appLogger)
		appLogger.Info("Connected to object storage", zap.String("bucket", cfg.Storage.Bucket))
	}

	// 9. Initialize UseCases
	tokens := auth.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.TTL)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, catRepo, productCache, searchIndex, appLogger)
	catUC := catUCPkg.NewCategoryUseCase(catRepo, prodUC, appLogger)
	leadUC := leadUCPkg.NewLeadUseCase(leadRepo, prodRepo, publisher, appLogger)
	admUC := admUCPkg.NewAdminUseCase(admRepo, tokens, limiter, appLogger)

	// 10. Initialize Handlers
	router, err := server.NewRouter(server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		Release:        !cfg.IsDevelopment(),
		Tokens:         tokens,
		Ready: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
	}, server.Handlers{
		Admin:    admH.NewAdminHandler(admUC, tokens, !cfg.IsDevelopment(), appLogger),
		Category: catH.NewCategoryHandler(catUC, appLogger),
		Product:  prodH.NewProductHandler(prodUC, appLogger),
		Lead:     leadH.NewLeadHandler(leadUC, appLogger),
		Upload:   uploadHandler,
		Sitemap:  sitemap.NewHandler(sitemap.NewBuilder(cfg.Site.BaseURL, catRepo, prodRepo), appLogger),
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Could not build router", zap.Error(err))
	}

	// 11. Start HTTP Server
	httpServer := &http.Server{
		Addr:              listenAddr(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// 12. Optional gRPC health endpoint
	var grpcServer *grpc.Server
	if cfg.Server.GRPCHealthPort != "" {
		lis, err := net.Listen("tcp", listenAddr(cfg.Server.GRPCHealthPort))
		if err != nil {
			appLogger.Fatal("failed to listen", zap.Error(err))
		}
		grpcServer = grpc.NewServer()
		healthServer := health.NewServer()
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		healthpb.RegisterHealthServer(grpcServer, healthServer)
		reflection.Register(grpcServer)

		go func() {
			appLogger.Info("Starting gRPC health server", zap.String("addr", lis.Addr().String()))
			if err := grpcServer.Serve(lis); err != nil {
				appLogger.Error("gRPC health server stopped", zap.Error(err))
			}
		}()
	}

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func listenAddr(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
