// cmd/web/main.go
//
// FAC audit search – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (host-wide file → .env fallback).
//
//  2. Load configuration (conf/global.yaml + FAC_ overrides).
//
//  3. Start daily rotating logger (tees to console when running in a TTY).
//
//  4. Resolve vault: references in the configuration, when present.
//
//  5. Open the listing store and log the listing count.
//
//  6. Build the search validator from the embedded agency catalog.
//
//  7. Mount routes on chi:
//
//     • /metrics                 – Prometheus
//     • /healthz                 – store ping
//     • /search, /api/...        – search handler
//
//  8. Serve until SIGINT or SIGTERM, then drain with a deadline.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/distiller/internal/agency"
	"github.com/yanizio/distiller/internal/config"
	"github.com/yanizio/distiller/internal/database"
	"github.com/yanizio/distiller/internal/listing"
	"github.com/yanizio/distiller/internal/logger"
	"github.com/yanizio/distiller/internal/middleware"
	"github.com/yanizio/distiller/internal/search"
	"github.com/yanizio/distiller/internal/server"
	"github.com/yanizio/distiller/internal/vault"
)

const (
	serverEnvPath   = "/usr/local/etc/fac-search/global.env"
	shutdownTimeout = 20 * time.Second
)

// loadEnv prefers the host-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("fac-search: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logOut, err := logger.New(cfg.Paths.Root, runningInTTY(), cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 1.  Secrets ─────────────────────────────────────────────────────
	//
	if cfg.NeedsSecrets() {
		vc, err := vault.New(ctx, logOut.Named("vault"))
		if err != nil {
			return err
		}
		if err := cfg.ResolveSecrets(ctx, vc); err != nil {
			return err
		}
		logOut.Infow("secrets resolved from vault")
	}

	//
	// ── 2.  Listing store ───────────────────────────────────────────────
	//
	logOut.Infow("connecting to listing store", "driver", cfg.Database.Driver)
	db, err := database.OpenWithOptions(ctx, cfg.Database.Driver, cfg.Database.DSNWithPassword(), database.Options{
		MaxOpen: cfg.Database.MaxOpen,
		MaxIdle: cfg.Database.MaxIdle,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	repo := listing.NewRepository(db)

	// Log listing count as an early sanity check.
	if n, err := repo.Count(ctx); err != nil {
		logOut.Warnw("listing count failed", "err", err)
	} else {
		logOut.Infow("listing store online", "listings", n)
	}

	//
	// ── 3.  Search validator ────────────────────────────────────────────
	//
	var subs search.SubAgencySource = repo
	if ttl := cfg.Search.SubAgencyCacheTTL; ttl > 0 {
		subs = search.NewCachedSource(repo, cfg.Search.SubAgencyCacheSize, ttl)
	}
	validator, err := search.NewValidator(agency.Default(), subs, search.Options{
		FACStartYear: cfg.Search.FACStartYear,
	})
	if err != nil {
		return err
	}

	//
	// ── 4.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.AccessLog(logOut),
		chimw.Recoverer,
		middleware.Security(cfg.Security.CSP),
	)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthz(db))
	r.Mount("/", search.NewHandler(validator, repo, time.Now).Routes())

	var root http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		root = middleware.ForceHTTPS(root)
	}

	srv := server.New(cfg.HTTP.ListenAddr, root, server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	//
	// ── 5.  Serve until signalled ───────────────────────────────────────
	//
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logOut.Infow("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// healthz answers 200 while the store answers pings.
func healthz(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.FromContext(r.Context()).Errorw("health check failed", "err", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}
}
