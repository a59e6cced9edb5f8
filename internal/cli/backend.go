package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"listshare/internal/backend/postgres"
	"listshare/internal/backend/postgrest"
	"listshare/internal/config"
	"listshare/internal/engine"
	"listshare/internal/service"
	"listshare/internal/token"
)

// NewEngine is the EngineFactory for the configured backend.
func NewEngine(ctx context.Context, cfg *config.Config, tokens *token.Manager, logger *log.Logger) (*engine.Engine, error) {
	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("backend ready", "backend", cfg.Backend)
	return engine.New(store, tokens, engine.WithLogger(logger)), nil
}

func newStore(ctx context.Context, cfg *config.Config) (service.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		s, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("%w (set %s)", err, config.EnvDatabaseURL)
		}
		return s, nil
	case config.BackendREST, "":
		c, err := postgrest.New(ctx, cfg.RESTURL, cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("%w (set %s and %s)", err, config.EnvRESTURL, config.EnvAPIKey)
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", service.ErrNotConfigured, cfg.Backend)
}
