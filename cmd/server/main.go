package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/db/migrations"
	"github.com/Skotchmaster/storefront/internal/es"
	"github.com/Skotchmaster/storefront/internal/handlers"
	"github.com/Skotchmaster/storefront/internal/jobs"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/metrics"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/middleware/ratelimit"
	"github.com/Skotchmaster/storefront/internal/middleware/session"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/seed"
	"github.com/Skotchmaster/storefront/internal/service/auth"
	"github.com/Skotchmaster/storefront/internal/service/catalog"
	"github.com/Skotchmaster/storefront/internal/service/purchase"
	"github.com/Skotchmaster/storefront/internal/service/search"
	"github.com/Skotchmaster/storefront/internal/tokens"
	httpserver "github.com/Skotchmaster/storefront/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}).
		With("service", cfg.ServiceName, "env", cfg.AppEnv)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	gdb, err := db.Open(ctx, db.Options{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer closeDB(logger, gdb)

	if err := migrate(ctx, cfg, gdb); err != nil {
		return err
	}
	logger.Info("database_ready", "driver", cfg.DBDriver)

	var events mykafka.Publisher = mykafka.Discard{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		events = prod
		logger.Info("kafka_producer_ready", "brokers", cfg.KafkaBrokers)
	}
	defer func() {
		if err := events.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}()

	esClient, err := es.NewClient(ctx, es.Options{URL: cfg.ESURL, Username: cfg.ESUser, Password: cfg.ESPassword}, logger)
	if err != nil {
		return err
	}

	store := repo.New(gdb)
	m := metrics.New()
	tm := tokens.NewManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	searchSvc := &search.Service{ES: esClient, Index: cfg.ESIndex, Repo: store}
	if err := searchSvc.EnsureIndex(ctx); err != nil {
		return err
	}
	catalogSvc := &catalog.Service{Repo: store, Search: searchSvc, Events: events}

	if cfg.CatalogSeedFile != "" {
		products, err := seed.LoadFile(cfg.CatalogSeedFile)
		if err != nil {
			return err
		}
		if _, err := seed.Apply(ctx, store, products); err != nil {
			return err
		}
	}
	if searchSvc.Enabled() {
		n, err := catalogSvc.Reindex(ctx)
		if err != nil {
			logger.Warn("catalog_reindex_failed", "error", err)
		} else {
			logger.Info("catalog_reindexed", "products", n)
		}
	}

	limiter := ratelimit.New(cfg.LoginRatePerSec, cfg.LoginRateBurst)

	e := httpserver.New(&httpserver.Deps{
		Logger: logger,
		DB:     gdb,
		Tokens: tm,
		Auth: &auth.Service{
			Repo:          store,
			Tokens:        tm,
			Events:        events,
			Metrics:       m,
			SingleSession: cfg.SingleSession,
		},
		Purchases:    &purchase.Service{Repo: store, Events: events, Metrics: m},
		Catalog:      catalogSvc,
		Metrics:      m,
		LoginLimiter: limiter,
		Cookies: handlers.CookieOptions{
			Secure:     cfg.Production(),
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		},
		Session: session.Config{
			CookieName:        authmw.CookieAccess,
			ProtectedPrefixes: cfg.ProtectedPrefixes,
			AuthOnlyPaths:     cfg.AuthOnlyPaths,
			LoginPath:         cfg.LoginPath,
			LandingPath:       cfg.LandingPath,
		},
		CSRF:        cfg.CSRFEnabled,
		CORSOrigins: cfg.CORSOrigins,
		WebDir:      cfg.WebDir,
	})

	scheduler, err := jobs.Start(logger, cfg.SessionPruneSchedule, &jobs.SessionPruner{Repo: store, Metrics: m}, limiter)
	if err != nil {
		return err
	}
	defer func() { <-scheduler.Stop().Done() }()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	}
	logger.Info("shutdown_complete")
	return nil
}

// migrate runs the SQL migrations on postgres; sqlite only gets AutoMigrate.
func migrate(ctx context.Context, cfg *config.Config, gdb *gorm.DB) error {
	if cfg.DBDriver == "sqlite" {
		return gdb.WithContext(ctx).AutoMigrate(models.All()...)
	}
	if !cfg.MigrateOnStart {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return migrations.Apply(ctx, sqlDB)
}

func closeDB(l *slog.Logger, gdb *gorm.DB) {
	sqlDB, err := gdb.DB()
	if err != nil {
		l.Error("db_handle_failed", "error", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		l.Error("db_close_failed", "error", err)
	}
}
