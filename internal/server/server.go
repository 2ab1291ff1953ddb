// Package server assembles the proxy: backend client, caches, secrets,
// handler, middleware chain, and the HTTP listeners.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/patronproxy/internal/backend"
	"github.com/vyrodovalexey/patronproxy/internal/cache"
	"github.com/vyrodovalexey/patronproxy/internal/config"
	"github.com/vyrodovalexey/patronproxy/internal/handler"
	"github.com/vyrodovalexey/patronproxy/internal/health"
	"github.com/vyrodovalexey/patronproxy/internal/middleware"
	"github.com/vyrodovalexey/patronproxy/internal/patron"
	"github.com/vyrodovalexey/patronproxy/internal/secrets"
	"github.com/vyrodovalexey/patronproxy/internal/token"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// Server is the assembled proxy process.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	version string

	engine      *gin.Engine
	httpServer  *http.Server
	metrics     *http.Server
	secrets     secrets.Provider
	patronStore cache.Cache

	mu      sync.Mutex
	running bool
}

// New builds the proxy from configuration. The returned server owns the
// secrets provider and patron cache and closes them on Stop.
func New(cfg *config.Config, logger *zap.Logger, version string) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	backendOpts := []backend.Option{
		backend.WithLogger(logger.Named("backend")),
		backend.WithTimeout(cfg.RequestTimeout.Duration()),
	}
	if cfg.BreakerEnabled {
		backendOpts = append(backendOpts,
			backend.WithBreaker(cfg.BreakerMaxFailures, cfg.BreakerTimeout.Duration()))
	}
	client := backend.New(cfg.BackendURL, backendOpts...)

	secretsProvider, err := secrets.NewFromConfig(cfg, logger.Named("secrets"))
	if err != nil {
		return nil, fmt.Errorf("creating secrets provider: %w", err)
	}

	tokens := token.NewCache(client, secretsProvider,
		token.WithTTL(cfg.TokenCacheTTL.Duration()),
		token.WithLogger(logger.Named("token")),
	)

	patronStore, err := newPatronStore(cfg, logger)
	if err != nil {
		_ = secretsProvider.Close()
		return nil, fmt.Errorf("creating patron cache: %w", err)
	}

	patrons := patron.NewResolver(client, patronStore,
		patron.WithTTL(cfg.PatronCacheTTL.Duration()),
		patron.WithLogger(logger.Named("patron")),
	)

	h := handler.New(tokens, patrons, client,
		handler.WithLogger(logger.Named("handler")),
	)

	checker := health.NewChecker(version)
	checker.RegisterCheck("backend", backendCheck(cfg.BackendURL))

	engine := gin.New()
	engine.Use(
		middleware.Recovery(logger.Named("http")),
		middleware.RequestID(),
		middleware.LoggingWithConfig(middleware.LoggingConfig{
			Logger:    logger.Named("http"),
			SkipPaths: []string{"/health/live", "/health/ready"},
		}),
		middleware.Metrics(),
	)
	if cfg.TracingEnabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.ServiceName,
			SkipPaths:   []string{"/health/live", "/health/ready"},
		}))
	}

	h.Register(engine)
	checker.Register(engine)

	return &Server{
		cfg:         cfg,
		logger:      logger,
		version:     version,
		engine:      engine,
		secrets:     secretsProvider,
		patronStore: patronStore,
	}, nil
}

// newPatronStore builds the cache backing the patron resolver.
func newPatronStore(cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	switch cfg.PatronCacheType {
	case "redis":
		return cache.NewRedis(context.Background(), cache.RedisConfig{
			Address:   cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: "patronproxy:patron:",
		}, logger.Named("cache"))
	default:
		return cache.NewMemory(cfg.PatronCacheSize, logger.Named("cache")), nil
	}
}

// backendCheck probes backend reachability for the readiness endpoint. Any
// HTTP answer counts as reachable; readiness is about the network path, not
// backend health semantics.
func backendCheck(baseURL string) health.CheckFunc {
	probe := &http.Client{Timeout: health.DefaultCheckTimeout}

	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return err
		}
		resp, err := probe.Do(req)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		return nil
	}
}

// Engine returns the request router, exposed for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start runs the HTTP listeners and blocks until the main listener stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Address, s.cfg.HTTPPort)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout.Duration(),
		WriteTimeout: s.cfg.WriteTimeout.Duration(),
		IdleTimeout:  s.cfg.IdleTimeout.Duration(),
	}

	if s.cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		s.metrics = &http.Server{
			Addr:        fmt.Sprintf("%s:%d", s.cfg.Address, s.cfg.MetricsPort),
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
		}
	}

	s.running = true
	s.mu.Unlock()

	if s.metrics != nil {
		go func() {
			s.logger.Info("starting metrics server", zap.String("address", s.metrics.Addr))
			if err := s.metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	s.logger.Info("starting HTTP server",
		zap.String("address", addr),
		zap.String("version", s.version),
		zap.String("backend", s.cfg.BackendURL),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop shuts the listeners down gracefully and releases owned resources.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	running := s.running
	s.running = false
	s.mu.Unlock()

	defer func() {
		if err := s.patronStore.Close(); err != nil {
			s.logger.Warn("closing patron cache", zap.Error(err))
		}
		if err := s.secrets.Close(); err != nil {
			s.logger.Warn("closing secrets provider", zap.Error(err))
		}
	}()

	if !running {
		return nil
	}

	s.logger.Info("stopping HTTP server")

	if s.metrics != nil {
		if err := s.metrics.Shutdown(ctx); err != nil {
			s.logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
