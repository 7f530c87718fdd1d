package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/clubhub/internal/auth"
	"github.com/geocoder89/clubhub/internal/cache"
	"github.com/geocoder89/clubhub/internal/cms"
	"github.com/geocoder89/clubhub/internal/config"
	"github.com/geocoder89/clubhub/internal/db"
	"github.com/geocoder89/clubhub/internal/domain/form"
	httpx "github.com/geocoder89/clubhub/internal/http"
	"github.com/geocoder89/clubhub/internal/http/handlers"
	"github.com/geocoder89/clubhub/internal/observability"
	"github.com/geocoder89/clubhub/internal/redisclient"
	"github.com/geocoder89/clubhub/internal/registrar"
	"github.com/geocoder89/clubhub/internal/repo/memory"
	"github.com/geocoder89/clubhub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// store is what the API needs from a registration backend.
type store interface {
	registrar.Store
	handlers.RegistrationReviewer
	Ping(ctx context.Context) error
}

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env, cfg.LogFile)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTELServiceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	forms, err := form.Builtin()
	if err != nil {
		return fmt.Errorf("load forms: %w", err)
	}

	var (
		regs  store
		users handlers.UserReader
	)

	switch cfg.StoreDriver {
	case "memory":
		mem := memory.NewUsersRepo()
		if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
			if err := mem.Seed(cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName, cfg.AdminRole); err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
		}
		regs, users = memory.NewRegistrationsRepo(), mem
		log.Warn("using in-memory registration store; data is lost on restart")

	case "postgres":
		pctx, cancel := config.WithTimeout(ctx, 10*time.Second)
		pool, err := db.NewPool(pctx, cfg.DBURL)
		cancel()
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		mctx, cancel := config.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := db.Migrate(mctx, pool); err != nil {
			return err
		}
		if err := db.EnsureAdminUser(mctx, pool, db.AdminSeed{
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
			Name:     cfg.AdminName,
			Role:     cfg.AdminRole,
		}); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}

		regs, users = postgres.NewRegistrationsRepo(pool, prom), postgres.NewUsersRepo(pool, prom)

	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	catalog, closeCache := newCatalog(cfg, log, prom)
	defer closeCache()

	svc := registrar.New(regs, forms,
		registrar.WithLogger(log),
		registrar.WithProm(prom),
		registrar.WithTracer(observability.Tracer()),
	)

	router := httpx.NewRouter(httpx.Deps{
		Env:                cfg.Env,
		ServiceName:        cfg.OTELServiceName,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		Log:                log,
		Prom:               prom,
		Metrics:            promhttp.Handler(),
		Ping:               regs.Ping,
		Registrar:          svc,
		Forms:              forms,
		Reviews:            regs,
		Users:              users,
		JWT:                auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL()),
		Catalog:            catalog,
		RegisterRateLimit:  cfg.RegisterRateLimit,
		RegisterRateWindow: cfg.RegisterRateWindow,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-stop:
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

// newCatalog builds the CMS read path: HTTP source (or empty), cached in
// Redis when configured, otherwise in process.
func newCatalog(cfg config.Config, log *slog.Logger, prom *observability.Prom) (*cms.Catalog, func()) {
	if cfg.CMSProjectURL == "" {
		log.Info("no CMS configured; events and blogs are empty")
		return cms.NewCatalog(cms.EmptySource{}, log), func() {}
	}

	src := cms.NewHTTPSource(cms.HTTPConfig{
		ProjectURL: cfg.CMSProjectURL,
		Dataset:    cfg.CMSDataset,
		APIVersion: cfg.CMSAPIVersion,
		Token:      cfg.CMSToken,
	}, nil)

	if cfg.RedisAddr == "" {
		c := cache.New(cfg.CMSCacheTTL)
		return cms.NewCatalog(cms.NewCached(src, c, cfg.CMSCacheTTL, log, prom), log), func() {}
	}

	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   "clubhub:",
	})

	pctx, cancel := config.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx); err != nil {
		log.Warn("redis unreachable; cache reads will fall through to the CMS", "addr", cfg.RedisAddr, "err", err)
	}

	return cms.NewCatalog(cms.NewCached(src, rdb, cfg.CMSCacheTTL, log, prom), log), func() { _ = rdb.Close() }
}
