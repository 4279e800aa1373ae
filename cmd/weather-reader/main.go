package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-reader/internal/api/http"
	"github.com/i474232898/weather-reader/internal/config"
	"github.com/i474232898/weather-reader/internal/download"
	"github.com/i474232898/weather-reader/internal/fetch"
	"github.com/i474232898/weather-reader/internal/geo"
	"github.com/i474232898/weather-reader/internal/pipeline"
	"github.com/i474232898/weather-reader/internal/reading"
	"github.com/i474232898/weather-reader/internal/scheduler"
	"github.com/i474232898/weather-reader/internal/sink"
	"github.com/i474232898/weather-reader/internal/store"
)

func main() {
	strategyFlag := flag.String("strategy", "", "download strategy: sequential, pool or gate (overrides DOWNLOAD_STRATEGY)")
	concurrencyFlag := flag.Int("concurrency", 0, "max concurrent downloads for pool and gate strategies (overrides MAX_CONCURRENCY)")
	serveFlag := flag.Bool("serve", false, "run periodically and expose the HTTP API instead of a single pass")
	flag.Parse()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *strategyFlag != "" {
		cfg.Strategy = *strategyFlag
	}
	if *concurrencyFlag > 0 {
		cfg.MaxConcurrency = *concurrencyFlag
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Coordinate resolution with the on-disk cache in front.
	cache, err := geo.OpenCache(cfg.CachePath)
	if err != nil {
		logger.Fatal("failed to open coordinate cache", zap.Error(err))
	}
	defer cache.Close()

	resolver := geo.NewCachedResolver(
		cache,
		geo.NewResolver(httpClient, cfg.GeoURL, cfg.APIKey, cfg.GeoRate, logger),
		logger,
	)

	// Weather client and the configured download strategy.
	fetcher := fetch.NewClient(httpClient, cfg.WeatherURL, cfg.APIKey, logger)
	strategy, err := download.ForName(cfg.Strategy, fetcher, cfg.MaxConcurrency, logger)
	if err != nil {
		logger.Fatal("invalid download strategy", zap.Error(err))
	}

	// Sinks. Postgres is optional.
	parquet := sink.NewParquetWriter(cfg.DataDir, logger)

	var postgres *sink.PostgresWriter
	if cfg.DatabaseDSN != "" {
		dbCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		db, err := sink.Connect(dbCtx, cfg.DatabaseDSN)
		cancel()
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		postgres = sink.NewPostgresWriter(db, logger)
	}

	pipe := pipeline.New(
		cfg.Cities,
		resolver,
		strategy,
		reading.NewValidator(logger),
		parquet,
		postgres,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !*serveFlag {
		if _, err := pipe.Run(ctx); err != nil {
			logger.Fatal("run failed", zap.Error(err))
		}
		return
	}

	serve(ctx, cfg, pipe, logger)
}

// serve runs the pipeline on a schedule and exposes run summaries over HTTP
// until the process receives SIGINT or SIGTERM.
func serve(ctx context.Context, cfg *config.AppConfig, pipe *pipeline.Pipeline, logger *zap.Logger) {
	runs := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	sched := scheduler.New(pipe, runs, cfg.FetchInterval, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-reader",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, runs)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
}
