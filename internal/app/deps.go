package app

import (
	"context"
	"fmt"

	"github.com/musihub/backend/internal/auth"
	"github.com/musihub/backend/internal/config"
	"github.com/musihub/backend/internal/connections"
	"github.com/musihub/backend/internal/db"
	"github.com/musihub/backend/internal/handlers"
	"github.com/musihub/backend/internal/middleware"
	"github.com/musihub/backend/internal/notify"
	"github.com/musihub/backend/internal/repositories"
	"github.com/musihub/backend/internal/storage"
)

type dependencies struct {
	http     handlers.Dependencies
	hub      *notify.Hub
	sessions *repositories.PostgresSessionStore
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (dependencies, error) {
	sessionStore := repositories.NewPostgresSessionStore(pool)
	manager := auth.NewManager([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessionStore)
	hub := notify.NewHub(cfg.AllowedOrigins)

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return dependencies{}, err
	}

	limit := cfg.AuthRateLimit
	limiter := middleware.NewKeyedLimiter(limit.Requests, limit.Window, limit.Burst, 2*limit.Window)

	deps := handlers.Dependencies{
		Users:         repositories.NewPostgresUserRepository(pool),
		Profiles:      repositories.NewPostgresProfileRepository(pool),
		Sessions:      manager,
		Tokens:        manager,
		Connections:   connections.NewService(repositories.NewPostgresConnectionRepository(pool), hub),
		Notifications: hub,
		DB:            pool,
		AuthLimiter:   limiter,
		Proxies:       proxies,
	}

	if cfg.ObjectStore.Enabled() {
		pictures, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return dependencies{}, fmt.Errorf("configure picture storage: %w", err)
		}
		deps.Pictures = pictures
	}

	return dependencies{http: deps, hub: hub, sessions: sessionStore}, nil
}
