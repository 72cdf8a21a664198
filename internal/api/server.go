package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/valuebet/internal/config"
	"github.com/yourusername/valuebet/internal/metrics"
)

// RouterDeps are the components mounted on the router
type RouterDeps struct {
	Service AnalysisService
	Health  *Health
	Hub     *Hub
	Metrics config.MetricsConfig
	Logger  *logrus.Logger
}

// NewRouter builds the gin engine with every route registered
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), metricsMiddleware(), loggingMiddleware(deps.Logger))

	if deps.Health != nil {
		r.GET("/health", deps.Health.handleHealth)
		r.GET("/ready", deps.Health.handleReady)
		r.GET("/live", deps.Health.handleLive)
	}
	if deps.Metrics.Enabled {
		path := deps.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(metrics.Handler()))
	}

	handler := NewAnalysisHandler(deps.Service, deps.Logger)
	group := r.Group("/api/analysis")
	group.GET("/value-bets", handler.ValueBets)
	group.GET("/predict/:fixture_id", handler.Predict)
	group.GET("/betting/:fixture_id", handler.Betting)
	group.GET("/team/:id/form", handler.TeamForm)

	if deps.Hub != nil {
		r.GET("/ws/value-bets", deps.Hub.Serve)
	}
	return r
}

// Server runs the HTTP API
type Server struct {
	server          *http.Server
	hub             *Hub
	logger          *logrus.Logger
	shutdownTimeout time.Duration
}

// NewServer wraps a router in an http.Server configured from cfg
func NewServer(cfg config.ServerConfig, router http.Handler, hub *Hub, logger *logrus.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		hub:             hub,
		logger:          logger,
		shutdownTimeout: time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second,
	}
}

// Start serves in the background and shuts down when ctx is cancelled.
// Listener failures are sent on the returned channel.
func (s *Server) Start(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.WithField("addr", s.server.Addr).Info("HTTP API starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			s.logger.WithError(err).Error("HTTP API shutdown failed")
		}
	}()

	return errCh
}

// Shutdown gracefully stops the server and disconnects websocket clients
func (s *Server) Shutdown() error {
	s.logger.Info("HTTP API shutting down")
	if s.hub != nil {
		s.hub.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
