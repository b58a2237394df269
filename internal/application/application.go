package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/configme/internal/api"
	"github.com/eugenenazirov/configme/internal/config"
	"github.com/eugenenazirov/configme/internal/loader"
	"github.com/eugenenazirov/configme/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	store   *storage.Store
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// NewStore builds a Store for the configured environment and format and
// loads the configured settings directory into it.
func NewStore(cfg config.Config, logger *zap.Logger) (*storage.Store, error) {
	l, err := loader.ForFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("select loader: %w", err)
	}

	store := storage.New(cfg.Environment,
		storage.WithLoader(l),
		storage.WithLogger(logger),
	)
	if err := store.LoadDir(cfg.Dir); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return store, nil
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store, err := NewStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	routerOpts := []api.RouterOption{api.WithLogging(!cfg.DisableRequestLogging)}
	if cfg.DisableRateLimit {
		routerOpts = append(routerOpts, api.WithRateLimit(0, 0))
	} else {
		routerOpts = append(routerOpts, api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	handler := api.NewHandler(store, api.WithLogger(logger))
	apiRouter := api.NewRouter(handler, logger, routerOpts...)

	return &App{
		store:   store,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, apiRouter),
	}, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.String("environment", a.store.Environment()),
			zap.Strings("keys", a.store.Keys()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Store returns the settings Store served by the application.
func (a *App) Store() *storage.Store {
	return a.store
}
