package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/cli/v3"

	"github.com/musihub/backend/internal/config"
	"github.com/musihub/backend/internal/db"
	"github.com/musihub/backend/internal/handlers"
	"github.com/musihub/backend/internal/httpserver"
	"github.com/musihub/backend/internal/logging"
	"github.com/musihub/backend/internal/middleware"
)

const sessionPurgeInterval = time.Hour

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	if cfg.JWTSecret == config.DevJWTSecret {
		logger.Warn("using the development JWT secret; set MUSIHUB_JWT_SECRET in production")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, err := buildDependencies(ctx, pool, cfg)
	if err != nil {
		return err
	}

	router := mux.NewRouter()
	handlers.RegisterRoutes(router, deps.http)

	handler := middleware.RequestLogger(logger)(middleware.CORS(cfg.AllowedOrigins)(router))

	srv := httpserver.New(cfg.AppPort, handler, logger)
	srv.RegisterOnShutdown(deps.hub.CloseAll)

	go purgeSessions(ctx, deps.sessions, sessionPurgeInterval)

	logger.Info("starting http server", "port", cfg.AppPort, "pictureStorage", cfg.ObjectStore.Enabled())
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("serve http: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// sessionPurger deletes refresh sessions that expired before a cutoff.
type sessionPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

func purgeSessions(ctx context.Context, store sessionPurger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := store.PurgeExpired(ctx, time.Now().UTC())
			if err != nil {
				logging.FromContext(ctx).Warn("purge expired sessions", "error", err)
				continue
			}
			if purged > 0 {
				logging.FromContext(ctx).Info("purged expired sessions", "count", purged)
			}
		}
	}
}
