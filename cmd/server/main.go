// Command server runs the daily-tiers HTTP API and its background
// pre-generation scheduler.
//
//	@title						Daily Tiers API
//	@version					1.0
//	@description				Serves one catalog item per calendar day with generated summaries at three depths, gated by a review workflow.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	AdminToken
//	@in							header
//	@name						X-Admin-Token
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/daily-tiers/internal/cache"
	"github.com/tbourn/daily-tiers/internal/catalog"
	"github.com/tbourn/daily-tiers/internal/config"
	"github.com/tbourn/daily-tiers/internal/generator"
	httpapi "github.com/tbourn/daily-tiers/internal/http"
	"github.com/tbourn/daily-tiers/internal/http/handlers"
	"github.com/tbourn/daily-tiers/internal/observability"
	"github.com/tbourn/daily-tiers/internal/repo"
	"github.com/tbourn/daily-tiers/internal/scheduler"
	"github.com/tbourn/daily-tiers/internal/search"
	"github.com/tbourn/daily-tiers/internal/services"
	"github.com/tbourn/daily-tiers/internal/sysutil"
	"github.com/tbourn/daily-tiers/internal/validation"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, nil)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if cat.Len() == 0 {
		log.Warn().Str("path", cfg.CatalogPath).Msg("catalog is empty; date lookups will fail until items are added")
	}

	entries, err := cache.Load(ctx, store)
	if err != nil {
		return err
	}

	gen := generator.New(cfg.Generation)
	if !gen.Available() {
		log.Warn().Msg("no generation API key configured; uncached summaries will fail")
	}
	val := validation.New(validation.Thresholds{
		MinShort:        cfg.Validation.MinShort,
		MinMedium:       cfg.Validation.MinMedium,
		MinLong:         cfg.Validation.MinLong,
		MaxNewlineRatio: cfg.Validation.MaxNewlineRatio,
	})

	sel := services.NewSelectionService(cat, store, cfg.Location(), cfg.CooldownWindow)
	approval := services.NewApprovalService(cat, entries, gen, val)
	approval.Policy = services.ReviewPolicy(cfg.Review.Policy)
	approval.Retry = services.RetryPolicy{
		MaxAttempts: cfg.Review.MaxAttempts,
		Delay:       cfg.Review.RetryDelay,
		Exponential: cfg.Review.Exponential,
	}

	sched := scheduler.New(cfg.Scheduler, sel, approval, entries)
	sched.Start(ctx)

	finder := search.New(cat.Items(), search.WithStopwords([]string{"the", "of", "a", "an", "and"}))

	h := handlers.New(sel, finder, approval, sched,
		handlers.Check{Name: "catalog", Fn: func(context.Context) error {
			if cat.Len() == 0 {
				return services.ErrEmptyCatalog
			}
			return nil
		}},
		handlers.Check{Name: "generator", Fn: func(context.Context) error {
			if !gen.Available() {
				return generator.ErrMissingAPIKey
			}
			return nil
		}},
		handlers.Check{Name: "store", Fn: store.Ping},
	).WithSummaryWait(cfg.SummaryWait)

	r := gin.New()
	httpapi.RegisterRoutes(r, h, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", appVersion).
			Str("storage", cfg.StorageDriver).
			Str("review_policy", cfg.Review.Policy).
			Int("catalog_size", cat.Len()).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			stop()
			sched.Wait()
			return fmt.Errorf("listen: %w", err)
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	// Generations run detached from callers; let them commit before the
	// deferred store close.
	sched.Wait()
	dctx, dcancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer dcancel()
	if err := approval.Drain(dctx); err != nil {
		log.Warn().Err(err).Msg("abandoning in-flight generations")
	}
	log.Info().Msg("server stopped")
	return nil
}

// openStore opens the configured backend. The SQLite schema is migrated on
// every start.
func openStore(cfg config.Config) (repo.Store, error) {
	switch cfg.StorageDriver {
	case config.StorageJSON:
		return repo.NewJSONStore(cfg.DataDir)
	default:
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := repo.AutoMigrate(db); err != nil {
			return nil, err
		}
		return repo.NewSQLStore(db), nil
	}
}
