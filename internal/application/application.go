package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/packer/internal/api"
	"github.com/eugenenazirov/packer/internal/config"
	"github.com/eugenenazirov/packer/internal/metrics"
	"github.com/eugenenazirov/packer/internal/optimizer"
	"github.com/eugenenazirov/packer/internal/packer"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	logger *zap.Logger
	server *http.Server
}

// NewService builds the batch solver described by cfg.
func NewService(cfg config.Config, logger *zap.Logger, recorder *metrics.Recorder) (*packer.Service, error) {
	opt, err := optimizer.New(cfg.Solver)
	if err != nil {
		return nil, fmt.Errorf("failed to build optimizer: %w", err)
	}
	return packer.New(opt, logger,
		packer.WithWorkers(cfg.Workers),
		packer.WithMaxCandidates(cfg.MaxCandidates),
		packer.WithMetrics(recorder),
	), nil
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	recorder := metrics.New()
	service, err := NewService(cfg, logger, recorder)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(service,
		api.WithSolverInfo(api.SolverInfo{
			Strategy:      cfg.Solver,
			Workers:       cfg.Workers,
			MaxCandidates: service.MaxCandidates(),
			Strategies:    optimizer.Strategies(),
		}),
		api.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithMetrics(recorder),
	)

	return &App{
		logger: logger,
		server: NewServer(cfg, BuildRootHandler(apiRouter, recorder.Handler())),
	}, nil
}

// BuildRootHandler mounts the API under /api/ and the Prometheus scrape
// endpoint under /metrics.
func BuildRootHandler(apiHandler, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("GET /metrics", metricsHandler)
	return mux
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
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
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
