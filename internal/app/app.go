// Package app assembles the client core from configuration: session
// storage, HTTP client, service backend, auth and navigation.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wisekey/langcenter/internal/auth"
	"github.com/wisekey/langcenter/internal/client"
	"github.com/wisekey/langcenter/internal/config"
	"github.com/wisekey/langcenter/internal/database"
	"github.com/wisekey/langcenter/internal/guard"
	"github.com/wisekey/langcenter/internal/service"
	"github.com/wisekey/langcenter/internal/service/fixture"
	"github.com/wisekey/langcenter/internal/service/remote"
	"github.com/wisekey/langcenter/internal/session"
	"github.com/wisekey/langcenter/internal/token"
)

type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Store    *session.Store
	Services *service.Services
	Auth     *auth.Service
	Nav      *guard.Navigator

	closers []func()
}

// New wires the application and restores any persisted session.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	storage, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Store = session.NewStore(storage, log)
	if err := a.Store.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.Nav = guard.NewNavigator(a.Store, log)

	if cfg.UseMock {
		backend, err := fixture.New(
			token.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry),
			log,
			fixture.WithTokenSource(a.Store.Token),
			fixture.WithUnauthorizedHook(a.unauthorized),
			fixture.WithBcryptCost(cfg.BcryptCost),
		)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("start fixtures: %w", err)
		}
		a.Services = backend.Services()
	} else {
		c := client.New(cfg.APIBaseURL, cfg.HTTPTimeout, a.Store, log,
			client.WithUnauthorizedHook(a.Nav.ForceLogin))
		a.Services = remote.New(c)
	}

	a.Auth = auth.NewService(a.Services.Auth, a.Services.Users, a.Store, log)

	log.Debug().
		Bool("mock", cfg.UseMock).
		Str("session_backend", cfg.SessionBackend).
		Bool("logged_in", a.Store.Get() != nil).
		Msg("Client ready")
	return a, nil
}

func (a *App) openStorage(ctx context.Context) (session.Storage, error) {
	switch a.Config.SessionBackend {
	case config.SessionBackendMemory:
		return session.NewMemoryStorage(), nil
	case config.SessionBackendFile, "":
		return session.NewFileStorage(a.Config.SessionFile), nil
	case config.SessionBackendRedis:
		rdb, err := database.NewRedisClient(ctx, a.Config, a.Log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { rdb.Close() })
		return session.NewRedisStorage(rdb), nil
	case config.SessionBackendPostgres:
		pool, err := database.NewPostgresPool(ctx, a.Config, a.Log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		return session.NewPostgresStorage(pool), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", a.Config.SessionBackend)
	}
}

// unauthorized ends the session whose token the fixture backend rejected.
// A newer session stored in the meantime is left alone.
func (a *App) unauthorized(ctx context.Context, token string) {
	if token == "" {
		a.Nav.ForceLogin(ctx)
		return
	}
	cleared, err := a.Store.ClearIfToken(context.WithoutCancel(ctx), token)
	if err != nil {
		a.Log.Error().Err(err).Msg("Failed to clear revoked session")
	}
	if cleared {
		a.Nav.ForceLogin(ctx)
	}
}

// Close releases storage connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
