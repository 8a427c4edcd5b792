// Package server exposes the review service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/yaklabco/docqa/internal/logging"
	"github.com/yaklabco/docqa/internal/service"
	"github.com/yaklabco/docqa/pkg/config"
)

// Reviewer runs a full review. *service.Reviewer implements it.
type Reviewer interface {
	Review(ctx context.Context, doc string) (*service.Response, error)
}

// HealthChecker reports primary backend health. *llm.Router implements it.
type HealthChecker interface {
	PrimaryHealthy(ctx context.Context) bool
}

// Server is the HTTP front end.
type Server struct {
	cfg      *config.Config
	reviewer Reviewer
	health   HealthChecker
	metrics  *Metrics
	logger   *log.Logger
	engine   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the base logger. Defaults to logging.Default().
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics shares a metrics set, typically the one passed to the reviewer as its observer.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New builds the server and its routes.
func New(cfg *config.Config, reviewer Reviewer, health HealthChecker, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		reviewer: reviewer,
		health:   health,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}

	s.engine = s.routes()
	return s
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(
		gin.Recovery(),
		requestID(s.logger),
		accessLog(s.metrics),
		corsMiddleware(s.cfg.Server.CORSAllowOrigins),
	)

	engine.GET("/", s.redirect)
	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	engine.POST("/review", s.handleReview)
	engine.POST("/v1/validate", s.handleValidate)

	engine.NoRoute(s.redirect)
	engine.NoMethod(s.redirect)

	return engine
}

func (s *Server) redirect(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, s.cfg.Server.RedirectURL)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, listener)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", logging.FieldAddr, listener.Addr().String())
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
