package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ankushm/storefront-backend/api/routes"
	"github.com/ankushm/storefront-backend/internal/auth"
	"github.com/ankushm/storefront-backend/internal/cart"
	"github.com/ankushm/storefront-backend/internal/catalog"
	"github.com/ankushm/storefront-backend/internal/orders"
	"github.com/ankushm/storefront-backend/internal/users"
	"github.com/ankushm/storefront-backend/pkg/auth/session"
	"github.com/ankushm/storefront-backend/pkg/config"
	"github.com/ankushm/storefront-backend/pkg/db"
	"github.com/ankushm/storefront-backend/pkg/logger"
	"github.com/ankushm/storefront-backend/pkg/metrics"
	"github.com/ankushm/storefront-backend/pkg/migrate"
	"github.com/ankushm/storefront-backend/pkg/redis"
	"github.com/ankushm/storefront-backend/pkg/storage/gcs"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	denylist, err := session.NewDenylist(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create token denylist", err)
		os.Exit(1)
	}

	var uploader gcs.Uploader
	var resolver interface{ ObjectURL(string) string }
	if cfg.Images.BucketName != "" {
		gcsClient, err := gcs.NewClient(context.Background(), cfg.Images, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap image storage", err)
			os.Exit(1)
		}
		uploader = gcsClient
		resolver = gcsClient
	} else {
		logg.Warn(context.Background(), "image storage bucket not configured, uploads disabled")
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo, resolver)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(dbClient, orders.NewRepository(dbClient.DB()), cartRepo, resolver)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		Denylist:       denylist,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	handler := routes.NewRouter(routes.Deps{
		Config:       cfg,
		Logger:       logg,
		DBPinger:     dbClient,
		RedisPinger:  redisClient,
		RateLimiter:  redisClient,
		Idempotency:  redisClient,
		Revocations:  denylist,
		HTTPMetrics:  httpMetrics,
		PromGatherer: registry,

		AuthService:    authService,
		CatalogService: catalogService,
		CartService:    cartService,
		OrdersService:  ordersService,
		ImageUploader:  uploader,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
	logg.Info(ctx, "api server stopped")
}
