// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - Which backends (SQL store, cache, event sink) back the services
// - How the server and its background jobs start and stop
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config
//	  → sqlstore.Store ─────────────┬→ AuthService, UserService, DocumentService
//	  → platform adapters           │
//	      → Resilient → Aggregator  │
//	          → analytics.Service ──┴→ handlers → chi router
//	              ↑ Cache (memory | Redis), Tracker (Kafka | no-op)
//
// This is the "composition root" pattern: every dependency is built in
// New and nowhere else.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/student-dashboard/internal/analytics"
	"github.com/sakif/student-dashboard/internal/auth"
	"github.com/sakif/student-dashboard/internal/config"
	"github.com/sakif/student-dashboard/internal/events"
	"github.com/sakif/student-dashboard/internal/handler"
	"github.com/sakif/student-dashboard/internal/metrics"
	"github.com/sakif/student-dashboard/internal/platform"
	"github.com/sakif/student-dashboard/internal/platform/atcoder"
	"github.com/sakif/student-dashboard/internal/platform/codeforces"
	"github.com/sakif/student-dashboard/internal/platform/leetcode"
	"github.com/sakif/student-dashboard/internal/repository/sqlstore"
	"github.com/sakif/student-dashboard/internal/service"
	"github.com/sakif/student-dashboard/internal/validation"
)

// Server represents the HTTP server and everything it owns.
//
// RESOURCE MANAGEMENT:
// The Server owns the database pool, the Redis client and the event
// collector. Close releases them in reverse order of creation.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	store     *sqlstore.Store
	redis     *redis.Client     // nil with the memory cache
	collector *events.Collector // nil without Kafka brokers
	warmer    *analytics.Warmer
}

// New builds every dependency from cfg and registers the routes. Background
// jobs are not started until Start, so tests can serve requests from Handler
// without touching the network.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	if cfg.Metrics.Enabled {
		s.metrics = metrics.New()
	}

	// === STORAGE ===
	store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s.store = store

	// === ANALYTICS ===
	cache, sweeper := s.newCache()
	tracker := s.newTracker()

	aggregator := analytics.NewAggregator(s.newAdapters(), cfg.Platform.AdapterTimeout, s.metrics, logger)
	analyticsSvc := analytics.NewService(aggregator, cache, analytics.ServiceConfig{
		TTL:        cfg.Cache.TTL,
		PartialTTL: cfg.Cache.PartialTTL,
	}, tracker, s.metrics, logger)

	s.warmer = analytics.NewWarmer(analyticsSvc, service.NewLinkedHandles(store.Links()), sweeper, analytics.WarmerConfig{
		Interval:      cfg.Warmup.Interval,
		Concurrency:   cfg.Warmup.Concurrency,
		SweepInterval: cfg.Warmup.SweepInterval,
	}, logger)

	// === AUTH ===
	tokens, err := s.newTokenService()
	if err != nil {
		s.Close()
		return nil, err
	}
	passwords := auth.NewPasswordService(auth.DefaultCost)
	validate := validation.New()

	// === SERVICES AND HANDLERS ===
	authSvc := service.NewAuthService(store.Users(), store.Links(), tokens, passwords, validate, logger)
	userSvc := service.NewUserService(store.Users(), store.Links(), passwords, analyticsSvc, validate, logger)
	docSvc := service.NewDocumentService(store.Documents(), store.Certifications(), store.Users(), validate, logger)

	var github *auth.GitHubProvider
	if cfg.GitHub.Enabled() {
		github = auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
	}

	h := handlers{
		platform: handler.NewPlatformHandler(analyticsSvc, logger),
		auth: handler.NewAuthHandler(authSvc, github, handler.CookieConfig{
			TTL:    tokens.TTL(),
			Secure: cfg.Auth.SecureCookie,
		}, cfg.Auth.LoginRedirect, logger),
		users:     handler.NewUserHandler(userSvc, logger),
		documents: handler.NewDocumentHandler(docSvc, logger),
		health:    handler.NewHealthHandler(s.readinessChecks(cache)),
	}
	s.setupRoutes(h, auth.RequireAuth(tokens), github != nil)

	return s, nil
}

// newAdapters builds the three platform adapters, each behind its own
// circuit breaker and retry policy.
func (s *Server) newAdapters() []platform.Adapter {
	pc := s.config.Platform
	client := platform.NewHTTPClient(&http.Client{}, pc.UserAgent)
	opts := platform.ResilienceOptions{
		MaxAttempts:      pc.Retry.MaxAttempts,
		InitialDelay:     pc.Retry.InitialDelay,
		MaxDelay:         pc.Retry.MaxDelay,
		FailureThreshold: pc.Breaker.FailureThreshold,
		ResetTimeout:     pc.Breaker.ResetTimeout,
	}

	raw := []platform.Adapter{
		leetcode.New(client, pc.LeetCodeURL),
		codeforces.New(client, pc.CodeforcesURL),
		atcoder.New(client, pc.AtCoderURL, pc.AtCoderProblemsURL),
	}
	adapters := make([]platform.Adapter, 0, len(raw))
	for _, a := range raw {
		adapters = append(adapters, platform.NewResilient(a, opts, s.metrics, s.logger))
	}
	return adapters
}

// newCache returns the configured cache. The memory cache is also returned
// as the sweeper; Redis expires keys on its own.
func (s *Server) newCache() (analytics.Cache, *analytics.MemoryCache) {
	if s.config.Cache.Backend == "redis" {
		rc := s.config.Redis
		s.redis = redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
			PoolSize: rc.PoolSize,
		})
		s.logger.Info("analytics cache: redis", slog.String("addr", rc.Addr))
		return analytics.NewRedisCache(s.redis, s.logger), nil
	}
	mc := analytics.NewMemoryCache(s.config.Cache.MaxEntries)
	s.logger.Info("analytics cache: memory", slog.Int("maxEntries", s.config.Cache.MaxEntries))
	return mc, mc
}

// newTracker returns the Kafka-backed collector, or nil (the service then
// falls back to a no-op) when no brokers are configured.
func (s *Server) newTracker() events.Tracker {
	kc := s.config.Kafka
	if !kc.Enabled() {
		return nil
	}
	s.collector = events.NewCollector(
		events.NewKafkaPublisher(kc.Brokers, kc.Topic, s.logger),
		events.CollectorConfig{
			BufferSize:    kc.BufferSize,
			BatchSize:     kc.BatchSize,
			FlushInterval: kc.FlushInterval,
		},
		s.metrics, s.logger,
	)
	s.logger.Info("analytics events: kafka",
		slog.Any("brokers", kc.Brokers),
		slog.String("topic", kc.Topic),
	)
	return s.collector
}

// newTokenService uses the configured secret. Without one, a random secret
// is generated so the server still starts; sessions then end on restart.
func (s *Server) newTokenService() (*auth.TokenService, error) {
	secret := s.config.Auth.JWTSecret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generating JWT secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		s.logger.Warn("JWT_SECRET not set, using a random secret (sessions will not survive a restart)")
	}
	tokens, err := auth.NewTokenService(secret, s.config.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	return tokens, nil
}

func (s *Server) readinessChecks(cache analytics.Cache) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"database": s.store}
	if rc, ok := cache.(*analytics.RedisCache); ok {
		checks["redis"] = rc
	}
	return checks
}

// Handler returns the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the background jobs and serves HTTP until SIGINT or SIGTERM.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (ShutdownTimeout)
// 3. Stop the warmer, flush pending events, close Redis and the database
func (s *Server) Start() error {
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if s.collector != nil {
		s.collector.Start(ctx)
	}
	if err := s.warmer.Start(ctx); err != nil {
		return fmt.Errorf("starting cache warmer: %w", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.Database.Driver),
			slog.Bool("metrics", s.metrics != nil),
			slog.Bool("github", s.config.GitHub.Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}

// Close stops background work and releases every connection. It is safe to
// call on a partially built Server.
func (s *Server) Close() {
	if s.warmer != nil {
		s.warmer.Stop()
	}
	if s.collector != nil {
		if err := s.collector.Close(); err != nil {
			s.logger.Error("closing event collector", slog.String("error", err.Error()))
		}
		s.collector = nil
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("closing redis", slog.String("error", err.Error()))
		}
		s.redis = nil
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing database", slog.String("error", err.Error()))
		}
		s.store = nil
	}
}
