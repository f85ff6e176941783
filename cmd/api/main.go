package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpAdapter "github.com/lorrc/sales-analytics-backend/internal/adapters/primary/http"
	mw "github.com/lorrc/sales-analytics-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/sales-analytics-backend/internal/adapters/primary/websocket"
	"github.com/lorrc/sales-analytics-backend/internal/adapters/secondary/cache"
	"github.com/lorrc/sales-analytics-backend/internal/adapters/secondary/filewatch"
	"github.com/lorrc/sales-analytics-backend/internal/adapters/secondary/jsonfile"
	"github.com/lorrc/sales-analytics-backend/internal/adapters/secondary/postgres"
	"github.com/lorrc/sales-analytics-backend/internal/catalog"
	"github.com/lorrc/sales-analytics-backend/internal/config"
	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
	"github.com/lorrc/sales-analytics-backend/internal/core/ports"
	"github.com/lorrc/sales-analytics-backend/internal/core/services"
	"github.com/lorrc/sales-analytics-backend/internal/infrastructure/logging"
	"github.com/lorrc/sales-analytics-backend/internal/infrastructure/metrics"
)

const cacheJanitorInterval = time.Minute

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	if cfg.IsProduction() && slices.Contains(cfg.CORS.AllowedOrigins, "*") {
		logger.Warn("CORS allows every origin in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// 3. Dataset catalog
	cat, err := catalog.Load(cfg.Data.Catalog)
	if err != nil {
		return err
	}

	// 4. Record source (Secondary Adapter)
	repo, checks, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	// 5. View cache
	viewCache, cacheCheck, closeCache := openCache(ctx, cfg, logger)
	defer closeCache()
	if cacheCheck != nil {
		checks = append(checks, *cacheCheck)
	}

	// 6. Real-time hub
	hub := websocket.NewHub(cat, logger)
	go hub.Run(ctx)

	// 7. Services (Core)
	referenceService := services.NewReferenceDataService(cat, repo)
	dashboardService := services.NewDashboardService(cat, repo, viewCache, hub, services.DashboardConfig{
		Strict:   cfg.Data.Strict,
		CacheTTL: cfg.Cache.TTL,
	}, logger)
	checks = append([]httpAdapter.NamedCheck{{Name: "data_source", Checker: referenceService}}, checks...)

	// 8. Live reload of dataset files
	if cfg.Data.Watch && cfg.Data.Source == config.SourceFile {
		watcher, err := filewatch.New(cfg.Data.Dir, cat, func(ctx context.Context, ds domain.Dataset) {
			if err := dashboardService.Refresh(ctx, ds.Name); err != nil {
				logger.Warn("dataset refresh failed", "dataset", ds.Name, "error", err)
			}
		}, logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = watcher.Close() }()
	}

	// 9. Rate limiter
	var rateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		defer rateLimiter.Stop()
	}

	// 10. Handlers (Primary Adapters)
	errorHandler := httpAdapter.NewErrorHandler(logger)
	routerCfg := httpAdapter.RouterConfig{
		CORSAllowedOrigins:   cfg.CORS.AllowedOrigins,
		CORSMaxAge:           cfg.CORS.MaxAge,
		RateLimiter:          rateLimiter,
		MetricsPath:          cfg.Metrics.Path,
		MetricsSlowThreshold: cfg.Metrics.SlowThreshold,
	}
	if cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		routerCfg.MetricsHandler = promhttp.Handler()
	}

	router := httpAdapter.NewRouter(httpAdapter.Handlers{
		ReferenceData: httpAdapter.NewReferenceDataHandler(referenceService, errorHandler, logger),
		Dashboard:     httpAdapter.NewDashboardHandler(dashboardService, errorHandler, logger),
		Health:        httpAdapter.NewHealthHandler(cfg.App.Version, checks...),
		WebSocket:     httpAdapter.NewWebSocketHandler(hub, cfg, logger),
	}, routerCfg, logger)

	// 11. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// openRepository builds the configured record source. Postgres is migrated
// on startup.
func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.DealRepository, []httpAdapter.NamedCheck, func(), error) {
	if cfg.Data.Source != config.SourcePostgres {
		logger.Info("serving datasets from files", "dir", cfg.Data.Dir)
		return jsonfile.NewRepository(cfg.Data.Dir), nil, func() {}, nil
	}

	if err := postgres.Migrate(cfg.Database.MigrationsURL, cfg.Database.URL); err != nil {
		return nil, nil, nil, err
	}

	pool, err := postgres.Connect(ctx, cfg.Database.URL, postgres.PoolOptions{
		MaxConns:        cfg.Database.MaxOpenConns,
		MinConns:        cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("database connection established")

	checks := []httpAdapter.NamedCheck{{Name: "database", Checker: pool}}
	return postgres.NewDealRepository(pool), checks, pool.Close, nil
}

// openCache builds the configured view cache. A nil cache disables
// memoization.
func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ViewCache, *httpAdapter.NamedCheck, func()) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rc := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.Info("using redis view cache", "addr", cfg.Redis.Addr)
		return rc, &httpAdapter.NamedCheck{Name: "cache", Checker: rc}, func() { _ = rc.Close() }

	case config.CacheMemory:
		mc := cache.NewMemoryCache()
		go mc.RunJanitor(ctx, cacheJanitorInterval)
		return mc, nil, func() {}

	default:
		logger.Info("view cache disabled")
		return nil, nil, func() {}
	}
}
