package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/procfixture/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/inspect"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/process"
)

// Deps are the components the API exposes.
type Deps struct {
	Reaper    *process.Reaper
	Inspector *inspect.Inspector
	Metrics   *monitoring.Metrics
	// Gatherer backs /metrics; nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
	Logger   *logging.Logger
}

// Server wraps the HTTP server and dependencies
type Server struct {
	router *gin.Engine
	config config.APIConfig
	logger *logging.Logger
}

// New creates a new server instance
func New(cfg config.APIConfig, deps Deps) *Server {
	logger := logging.OrNop(deps.Logger).Named("server")

	if logging.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracing.New("procfixture", deps.Logger)))
	router.Use(monitoring.Middleware(deps.Metrics))

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		cors.AllowOrigins = cfg.CORSOrigins
	}
	router.Use(middleware.CORS(cors))

	if cfg.RateLimit > 0 {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit),
			zap.Int("burst", cfg.RateBurst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit,
			Burst:             cfg.RateBurst,
		}))
	}

	handlers := apihttp.NewHandlers(deps.Reaper, deps.Inspector, deps.Metrics, deps.Logger)

	// Register routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/stats", handlers.Stats)

	// Process table
	router.GET("/processes", handlers.ListProcesses)
	router.GET("/processes/:pid", handlers.GetProcess)
	router.GET("/processes/:pid/fds", handlers.ProcessFDs)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	return &Server{
		router: router,
		config: cfg,
		logger: logger,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully within
// the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.Default().API.ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
