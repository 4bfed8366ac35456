package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/circuitry"
	"github.com/aretw0/circuitry/internal/adapters/file"
	"github.com/aretw0/circuitry/internal/config"
	"github.com/aretw0/circuitry/pkg/adapters/memory"
	"github.com/aretw0/circuitry/pkg/adapters/redis"
	"github.com/aretw0/circuitry/pkg/codec"
	"github.com/aretw0/circuitry/pkg/observability"
	"github.com/aretw0/circuitry/pkg/persistence/middleware"
	"github.com/aretw0/circuitry/pkg/ports"
	"github.com/aretw0/circuitry/pkg/registry"
)

// App bundles an Engine with the infrastructure built from a Config.
type App struct {
	Config  *config.Config
	Engine  *circuitry.Engine
	Logger  *slog.Logger
	Metrics *observability.Metrics

	gatherer *prometheus.Registry
	closers  []func() error
}

// NewApp wires stores, metrics and the custom component library for cfg and
// loads the library into the registry.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger, gatherer: prometheus.NewRegistry()}
	app.gatherer.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := observability.NewMetrics(app.gatherer, observability.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	app.Metrics = metrics

	reg := registry.NewRegistry()
	workspaces, lib, locker, err := app.openStores(cfg.Store)
	if err != nil {
		return nil, err
	}

	wrap := func(s ports.DocumentStore) ports.DocumentStore {
		return middleware.Chain(s,
			middleware.NewValidationMiddleware(reg),
			middleware.NewLoggingMiddleware(logger),
			middleware.NewMetricsMiddleware(metrics),
		)
	}

	opts := []circuitry.Option{
		circuitry.WithLogger(logger),
		circuitry.WithRegistry(reg),
		circuitry.WithStore(wrap(workspaces)),
		circuitry.WithLibraryStore(wrap(lib)),
		circuitry.WithCircuitHooks(metrics.CircuitHooks()),
		circuitry.WithHistoryObserver(metrics.HistoryObserver()),
		circuitry.WithHistoryCapacity(cfg.History.Capacity),
		circuitry.WithSettleLimit(cfg.Engine.SettleLimit),
	}
	if locker != nil {
		opts = append(opts, circuitry.WithLocker(locker))
	}
	if cfg.Library.Path != "" {
		opts = append(opts, circuitry.WithLibraryDir(cfg.Library.Path))
	}

	eng, err := circuitry.New(opts...)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("error initializing circuitry: %w", err)
	}
	app.Engine = eng

	if err := eng.SyncLibrary(ctx); err != nil {
		// Broken library entries stay unregistered; the rest is usable.
		logger.Warn("Custom component library incomplete", "err", err)
	}
	logger.Debug("App ready", "driver", cfg.Store.Driver, "custom", len(eng.Library().Names()))
	return app, nil
}

func (a *App) openStores(cfg config.StoreConfig) (workspaces, lib ports.DocumentStore, locker ports.DistributedLocker, err error) {
	switch cfg.Driver {
	case "memory":
		return memory.NewStore(), memory.NewStore(), nil, nil

	case "file":
		format, err := codec.ParseFormat(cfg.Format)
		if err != nil {
			return nil, nil, nil, err
		}
		return file.New(filepath.Join(cfg.Path, "workspaces"), file.WithFormat(format)),
			file.New(filepath.Join(cfg.Path, "library"), file.WithFormat(format)),
			nil, nil

	case "redis":
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		return redis.NewFromClient(client, redis.WithPrefix(cfg.Redis.Prefix+"workspace:"), redis.WithTTL(cfg.Redis.TTL)),
			redis.NewFromClient(client, redis.WithPrefix(cfg.Redis.Prefix+"library:")),
			redis.NewLocker(client, cfg.Redis.Prefix+"lock:"),
			nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// MetricsHandler serves the app's collectors in the Prometheus text format.
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})
}

// Gatherer exposes the metrics registry.
func (a *App) Gatherer() prometheus.Gatherer {
	return a.gatherer
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
