// Package app assembles the timesheet API from configuration: store driver,
// optional Redis cache, identity directory, services and HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/api"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/api/handler"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/service"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/infrastructure/db/mongo"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/infrastructure/db/redis"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/infrastructure/db/sqlite"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/infrastructure/graph"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/pkg/config"
	"github.com/HunaidHanfee-MSFT/timesheet-app/pkg/logger"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "dev"

// Application owns every long-lived dependency of the API process.
type Application struct {
	cfg    *config.Config
	logger zerolog.Logger

	stores *Stores
	cache  *redis.Cache
	server *http.Server
}

// Stores is the persistence backend selected by STORE_DRIVER.
type Stores struct {
	Timesheets ports.TimesheetRepository
	Projects   ports.ProjectRepository
	Name       string
	Ping       handler.Check
	Close      func(ctx context.Context) error
}

// New creates an Application with all dependencies initialized.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: logger.Init(logger.Options{
			Level:   cfg.LogLevel,
			Pretty:  cfg.LogPretty,
			Service: "timesheet-api",
			Version: BuildVersion,
		}),
	}

	stores, err := OpenStores(ctx, cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.stores = stores

	app.connectRedis(ctx)
	if err := app.initHTTP(ctx); err != nil {
		_ = app.close(context.Background())
		return nil, err
	}
	return app, nil
}

// OpenStores connects to the configured store and prepares its schema:
// migrations for sqlite, indexes for mongo.
func OpenStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		store, err := sqlite.NewStore(sqliteDSN(cfg.SQLite.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		if err := store.ApplyMigrations(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		log.Info().Str("path", cfg.SQLite.Path).Msg("sqlite migrations applied")
		return &Stores{
			Timesheets: store.Timesheets(),
			Projects:   store.Projects(),
			Name:       "sqlite",
			Ping:       store.Ping,
			Close:      func(context.Context) error { return store.Close() },
		}, nil

	case config.StoreMongo:
		db, err := mongo.Open(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, fmt.Errorf("failed to open mongodb store: %w", err)
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb indexes ensured")
		return &Stores{
			Timesheets: db.Timesheets(),
			Projects:   db.Projects(),
			Name:       "mongodb",
			Ping:       db.Ping,
			Close:      db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

// sqliteDSN enables WAL and a busy timeout for file databases.
func sqliteDSN(path string) string {
	if path == ":memory:" {
		return path
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}

// connectRedis is best effort: without Redis the directory is not cached and
// duplicate requests are not replayed.
func (app *Application) connectRedis(ctx context.Context) {
	cache, err := redis.Open(ctx, redis.Config{
		Addr:     app.cfg.Redis.Addr,
		Password: app.cfg.Redis.Password,
		DB:       app.cfg.Redis.DB,
	})
	if err != nil {
		app.logger.Warn().Err(err).Str("addr", app.cfg.Redis.Addr).Msg("redis unavailable, running without cache")
		return
	}
	app.cache = cache
}

func (app *Application) directory(ctx context.Context) ports.IdentityDirectory {
	var dir ports.IdentityDirectory = graph.Disabled{}
	if app.cfg.GraphEnabled() {
		dir = graph.NewClient(ctx, graph.Config{
			TenantID:          app.cfg.Graph.TenantID,
			ClientID:          app.cfg.Graph.ClientID,
			ClientSecret:      app.cfg.Graph.ClientSecret,
			BaseURL:           app.cfg.Graph.BaseURL,
			RequestsPerSecond: app.cfg.Graph.RateLimit,
		}, logger.Component("graph"))
	} else {
		app.logger.Warn().Msg("graph credentials not configured, directory lookups will fail")
	}

	if app.cache != nil {
		dir = app.cache.Directory(dir, app.cfg.Redis.DirectoryTTL, logger.Component("directory-cache"))
	}
	return dir
}

func (app *Application) initHTTP(ctx context.Context) error {
	freeze, err := domain.NewFreezePolicy(app.cfg.Timesheet.FreezeDayOfMonth)
	if err != nil {
		return fmt.Errorf("invalid freeze policy: %w", err)
	}
	directory := app.directory(ctx)

	deps := api.Dependencies{
		Timesheets: service.NewTimesheetService(
			app.stores.Timesheets,
			app.stores.Projects,
			directory,
			freeze,
			app.cfg.Timesheet.WeeklyEffortsLimit,
			logger.Component("timesheet-service"),
		),
		Projects:  service.NewProjectService(app.stores.Projects, app.stores.Timesheets, logger.Component("project-service")),
		Users:     service.NewUserService(directory, logger.Component("user-service")),
		Checks:    map[string]handler.Check{app.stores.Name: app.stores.Ping},
		JWTSecret: app.cfg.JWTSecret,
		Logger:    logger.Component("http"),
	}
	if app.cache != nil {
		deps.Idempotency = app.cache.Idempotency(app.cfg.Redis.IdempotencyTTL)
		deps.Checks["redis"] = app.cache.Ping
	}

	app.server = &http.Server{
		Addr:              ":" + app.cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info().
		Str("port", app.cfg.Port).
		Str("store", app.stores.Name).
		Bool("cache", app.cache != nil).
		Msg("timesheet api starting")

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.close(context.Background())
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}
	return nil
}

// Shutdown drains in-flight requests within the configured grace period and
// closes the store and cache connections.
func (app *Application) Shutdown() error {
	app.logger.Info().Msg("shutting down timesheet api")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGrace)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error().Err(err).Msg("graceful server shutdown failed")
		if err := app.server.Close(); err != nil {
			app.logger.Error().Err(err).Msg("error closing server")
		}
	}

	if err := app.close(ctx); err != nil {
		return err
	}
	app.logger.Info().Msg("timesheet api stopped")
	return nil
}

func (app *Application) close(ctx context.Context) error {
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error().Err(err).Msg("error closing redis")
		}
	}
	if err := app.stores.Close(ctx); err != nil {
		app.logger.Error().Err(err).Msg("error closing store")
		return err
	}
	return nil
}
