package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/globaldeals/catalog-service/config"
	"github.com/globaldeals/catalog-service/internal/apiclient"
	"github.com/globaldeals/catalog-service/internal/database"
	"github.com/globaldeals/catalog-service/internal/feeds"
	"github.com/globaldeals/catalog-service/internal/handlers"
	"github.com/globaldeals/catalog-service/internal/middleware"
	"github.com/globaldeals/catalog-service/internal/storage"
	"github.com/globaldeals/catalog-service/internal/telemetry"
	"github.com/globaldeals/catalog-service/internal/workers"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting catalog service")

	ctx := context.Background()
	shutdownTelemetry := telemetry.MustInit(ctx, telemetry.GetConfigFromEnv())
	defer shutdownTelemetry(context.Background())

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	store := database.NewStore(database.Pool())
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ensure schema")
	}

	if err := failInterruptedRuns(ctx, logger); err != nil {
		logger.Warn().Err(err).Msg("Failed to handle interrupted feed runs")
	}

	importer := feeds.NewImporter(store)
	if cfg.Storage.Type == "local" && cfg.Storage.BasePath != "" {
		archive, err := storage.NewLocalStorage(cfg.Storage.BasePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to open feed archive storage")
		}
		importer = importer.WithArchive(archive)
	}

	upstream := apiclient.NewClient(apiclient.Config{
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		MaxRetries:        cfg.Upstream.MaxRetries,
		InitialBackoff:    time.Duration(cfg.Upstream.InitialBackoffMs) * time.Millisecond,
		MaxBackoff:        time.Duration(cfg.Upstream.MaxBackoffMs) * time.Millisecond,
	}, cfg.Upstream.APIKey)

	refresher := workers.NewRefresher(importer, upstream, cfg.Refresh.Feeds, cfg.Refresh.Interval)
	refreshCtx, stopRefresh := context.WithCancel(ctx)
	refresher.Start(refreshCtx)

	h := handlers.New(handlers.Deps{
		Store:    store,
		Settings: store,
		Runs:     store,
		Importer: importer,
		Fetcher:  upstream,
		Ping:     database.Status,
	})

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := router.Group("/")
	public.Use(middleware.RateLimitMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.Burst,
	}))
	{
		public.GET("/products", h.ListProducts)
		public.GET("/products/search/suggestions", h.Suggestions)
		public.GET("/products/:id", h.GetProduct)
		public.GET("/categories", h.Categories)
		public.GET("/site-settings", h.SiteSettings)
		public.GET("/redirect/:productId/:platform", h.Redirect)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware(cfg.Admin.Username, cfg.Admin.Password))
	{
		admin.GET("/stats", h.Stats)
		admin.GET("/settings", h.GetAdminSettings)
		admin.PUT("/settings", h.PutAdminSettings)
		admin.PUT("/site-settings", h.PutSiteSettings)
		admin.DELETE("/products/:id", h.DeleteProduct)
		admin.POST("/feeds/import", h.ImportFeed)
		admin.GET("/feeds/runs", h.ListFeedRuns)
		admin.GET("/feeds/runs/:id", h.GetFeedRun)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	stopRefresh()
	refresher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

// failInterruptedRuns marks feed runs left running by a previous process
// as failed so the import history never shows a phantom in-progress run.
func failInterruptedRuns(ctx context.Context, logger *zerolog.Logger) error {
	pool := database.Pool()

	tag, err := pool.Exec(ctx, `
		UPDATE feed_runs
		SET status = $1,
		    finished_at = NOW(),
		    errors = $2
		WHERE status = $3
	`, database.FeedRunFailed, []string{"service restarted during import"}, database.FeedRunRunning)
	if err != nil {
		return fmt.Errorf("failed to mark interrupted feed runs: %w", err)
	}

	if tag.RowsAffected() > 0 {
		logger.Info().Int64("count", tag.RowsAffected()).Msg("Marked interrupted feed runs failed")
	}
	return nil
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "catalog-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		telemetry.RecordHTTPRequest(route, c.Request.Method, strconv.Itoa(c.Writer.Status()), latency)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
