// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline and run history over a JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/usecase-engine/internal/logger"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

const (
	defaultRunTimeout = 15 * time.Minute
	shutdownTimeout   = 10 * time.Second
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, subject types.Subject) (*types.RunResult, error)
}

// History reads stored runs.
type History interface {
	GetRun(ctx context.Context, id string) (*types.RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]types.RunRecord, error)
}

// Config holds the server's collaborators. History and Gatherer are
// optional.
type Config struct {
	Runner     Runner
	History    History
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
	RunTimeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	runner     Runner
	history    History
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
	runTimeout time.Duration
	engine     *gin.Engine
}

// New builds the server and its routes.
func New(cfg Config) *Server {
	s := &Server{
		runner:     cfg.Runner,
		history:    cfg.History,
		gatherer:   cfg.Gatherer,
		logger:     logger.OrNop(cfg.Logger).Named("server"),
		runTimeout: cfg.RunTimeout,
	}
	if s.runTimeout <= 0 {
		s.runTimeout = defaultRunTimeout
	}
	s.engine = s.setupRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	proposals := v1.Group("/proposals")
	{
		proposals.POST("", s.createProposal)
		proposals.GET("", s.listProposals)
		proposals.GET("/:id", s.getProposal)
		proposals.GET("/:id/markdown", s.downloadMarkdown)
	}
	return router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
