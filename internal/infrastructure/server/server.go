package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/dicthub/internal/api/http"
	"github.com/GriffinCanCode/dicthub/internal/api/middleware"
	"github.com/GriffinCanCode/dicthub/internal/api/ws"
	"github.com/GriffinCanCode/dicthub/internal/app"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/tracing"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router *gin.Engine
	app    *app.App
	tracer *tracing.Tracer
}

// NewServer builds the router for a.
func NewServer(a *app.App) *Server {
	cfg := a.Config

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	tracer := tracing.New("dicthub", a.Logger.Component("trace"))

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(a.Metrics))
	router.Use(middleware.CORS(middleware.CORSFromOrigins(cfg.Server.AllowedOrigins)))
	if cfg.RateLimit.Enabled {
		a.Logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(apihttp.Deps{
		Preference: a.Preference,
		Manager:    a.Manager,
		Updates:    a.Updates,
		Versions:   a.Versions,
		Detector:   a.Detector,
		Metrics:    a.Metrics,
		Logger:     a.Logger.Component("api"),
		Version:    cfg.Host.Version,
	})
	handlers.Register(router)

	wsHandler := ws.NewHandler(cfg.Server.AllowedOrigins, a.NewSession, a.Logger.Component("stream"), a.Metrics).
		WithTracer(tracer)
	router.GET("/ws", wsHandler.HandleConnection)

	a.Logger.Info("Server initialized successfully")
	return &Server{router: router, app: a, tracer: tracer}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops the span collector.
func (s *Server) Close() {
	s.tracer.Close()
}

// Run serves HTTP and runs the background update checks until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.app.Config
	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.app.Background.Run(ctx, time.Hour)

	errCh := make(chan error, 1)
	go func() {
		s.app.Logger.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.app.Logger.Info("Shutting down server...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.app.Logger.Error("Graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
