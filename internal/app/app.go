package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vk/graft/internal/classpath"
	"github.com/vk/graft/internal/ctxlog"
	"github.com/vk/graft/internal/depmgr"
	"github.com/vk/graft/internal/engine"
	"github.com/vk/graft/internal/reflector"
	"github.com/vk/graft/internal/registry"
	"github.com/vk/graft/internal/repository"
	"github.com/vk/graft/internal/scanner"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	deps     *depmgr.Manager
	engine   *engine.Engine

	httpServer *http.Server

	mu   sync.Mutex
	last map[string]error // document path -> outcome of its latest load
}

// NewApp builds the application for cfg. When no modules are given the core
// modules are registered. A registry that fails validation is a programmer
// error and panics.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))
	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	host, err := classpath.NewLoader(nil, reg.HostLibraries()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build host classpath: %w", err)
	}
	repo := repository.Chain{reg.Catalog()}
	if cfg.RepositoryPath != "" {
		repo = append(repo, repository.NewDir(cfg.RepositoryPath))
	}
	scope, err := classpath.ParseScope(cfg.ScanScope)
	if err != nil {
		return nil, err
	}

	deps := depmgr.New(repo, host, depmgr.WithWorkers(cfg.Workers))
	refl := reflector.New(scanner.New(deps, scope))
	logger.Debug("Engine assembled.", "host_libraries", len(reg.HostLibraries()), "artifacts", len(reg.Catalog().Coordinates()), "scope", scope.String())

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		deps:     deps,
		engine:   engine.New(deps, refl, reg),
		last:     make(map[string]error),
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Engine returns the application's engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}
