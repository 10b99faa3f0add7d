// Package server implements the HTTP server that exposes the SmartSeva
// question-answering API: citizen queries, document management, session
// management, and operational endpoints.
// The server is started by the `smartseva serve` CLI command.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AritraCh2005/SmartSeva-4/internal/logging"
)

// defaultMaxUploadBytes caps document uploads at 20 MiB.
const defaultMaxUploadBytes = 20 << 20

// New constructs a Server from the provided components and config.
func New(ask asker, dropper sessionDropper, ing ingester, docs documentLister, cfg *Config) (*Server, error) {
	if ask == nil {
		return nil, fmt.Errorf("server: asker must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Generation can take a while on local models.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}

	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}

	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	metricsHandler := promhttp.Handler()
	if cfg.Registry != nil {
		reg = cfg.Registry
		metricsHandler = promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})
	}

	s := &Server{
		asker:    ask,
		dropper:  dropper,
		ingester: ing,
		docs:     docs,
		cfg:      cfg,
		log:      log,
		pingers:  cfg.Pingers,
		metrics:  newServerMetrics(reg),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		log.Warn("API authentication disabled: SMARTSEVA_API_KEY is not set")
	}

	// protected wraps a handler in auth and rate limiting; operational
	// endpoints (health, ready, metrics) stay open.
	protected := func(name string, h http.HandlerFunc) http.Handler {
		return s.instrument(name, authMiddleware(cfg.APIKey, rl.middleware(h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/ask", protected("ask", s.handleAsk))
	mux.Handle("POST /api/documents", protected("documents_ingest", s.handleIngest))
	mux.Handle("GET /api/documents", protected("documents_list", s.handleListDocuments))
	mux.Handle("DELETE /api/documents/{id}", protected("documents_remove", s.handleRemoveDocument))
	mux.Handle("DELETE /api/sessions/{id}", protected("sessions_drop", s.handleDropSession))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", metricsHandler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the server's root handler. Used by tests via httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Close releases background resources (the rate limiter's eviction goroutine).
func (s *Server) Close() {
	if s.stopRL != nil {
		s.stopRL()
	}
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.Close()

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("smartseva server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}
