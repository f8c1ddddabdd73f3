package server

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/SecorD0/selenium/internal/config"
	"github.com/SecorD0/selenium/internal/logging"
	"github.com/SecorD0/selenium/internal/monitoring"
	"github.com/SecorD0/selenium/internal/utils"
)

// Server wraps the HTTP command surface and its dependencies.
type Server struct {
	router   *gin.Engine
	cfg      *config.Config
	log      *logging.Logger
	metrics  *monitoring.Metrics
	sessions *SessionStore
	http     *http.Server

	payloadLimit *utils.SizeValidator
}

// New assembles the driver server.
func New(cfg *config.Config, log *logging.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.NewDefault()
	}

	metrics := monitoring.NewMetrics()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(metrics.Middleware())
	if cfg.Server.RateLimited {
		router.Use(rateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	}

	s := &Server{
		router:   router,
		cfg:      cfg,
		log:      log.Named("server"),
		metrics:  metrics,
		sessions: NewSessionStore(log),

		payloadLimit: utils.DefaultPayloadValidator(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.router.POST("/session", s.handleCreateSession)
	s.router.DELETE("/session/:id", s.handleDeleteSession)
	s.router.POST("/session/:id/execute", s.handleExecuteScript)
	s.router.POST("/session/:id/execute_async", s.handleExecuteAsyncScript)
	s.router.POST("/session/:id/element", s.handleFindElement)
	s.router.GET("/session/:id/element/:elementId/text", s.handleGetElementText)
}

// Router exposes the handler tree, used by tests.
func (s *Server) Router() http.Handler { return s.router }

// Run starts serving and blocks until the listener fails or Shutdown runs.
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
	s.http = &http.Server{Addr: addr, Handler: s.router}
	s.log.Info("driver listening on " + addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// rateLimit applies a process-wide token bucket to the command surface.
func rateLimit(rps, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
