package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/booksum/internal/infra/cachestore"
	"github.com/yanqian/booksum/internal/infra/config"
)

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	cache  cachestore.Store
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, cache cachestore.Store) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, cache: cache}
}

// Run starts the HTTP server and blocks until shutdown. In-flight
// summarizations get the shutdown grace period to finish.
func (a *App) Run(ctx context.Context) error {
	if n, err := a.cache.Len(ctx); err == nil {
		a.logger.Info("summary cache ready", "backend", a.cfg.Cache.Backend, "entries", n)
	} else {
		a.logger.Warn("summary cache size unavailable", "backend", a.cfg.Cache.Backend, "error", err)
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address, "model", a.cfg.LLM.Model, "provider", a.cfg.LLM.Provider)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
