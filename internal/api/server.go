package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/AI2HU/bulletcalc/internal/ballistics"
	"github.com/AI2HU/bulletcalc/internal/config"
	"github.com/AI2HU/bulletcalc/internal/db"
	"github.com/AI2HU/bulletcalc/internal/logger"
	"github.com/AI2HU/bulletcalc/internal/services"
)

// Server represents the API server
type Server struct {
	cfg          *config.Config
	db           db.Database
	auth         *services.AuthService
	calculations *services.CalculationService
	profiles     *services.ProfileService
	sessions     *sessions.CookieStore
	limiter      RateLimiter
	log          *zap.Logger
	version      string
	router       *gin.Engine
}

// Option customizes a Server
type Option func(*Server)

// WithLogger sets the structured logger used for request logs
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithRateLimiter replaces the configured token bucket. Nil disables limiting.
func WithRateLimiter(l RateLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithAuthService replaces the default auth service
func WithAuthService(auth *services.AuthService) Option {
	return func(s *Server) { s.auth = auth }
}

// WithVersion sets the version reported by the health check
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a new API server instance
func NewServer(cfg *config.Config, database db.Database, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:          cfg,
		db:           database,
		calculations: services.NewCalculationService(database, ballistics.New()),
		profiles:     services.NewProfileService(database),
		sessions:     newSessionStore(cfg),
		limiter:      NewTokenBucketLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		log:          logger.Zap(),
		version:      "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.auth == nil {
		s.auth = services.NewAuthService(database, services.DefaultPasswordValidators(cfg.PasswordMinLength), cfg.Session.MaxAge)
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	chain, err := s.middlewareChain()
	if err != nil {
		return nil, err
	}

	s.router = gin.New()
	s.router.Use(requestIDMiddleware(), s.recoveryMiddleware(), s.loggingMiddleware(), s.rateLimitMiddleware())
	s.router.Use(chain...)
	s.router.HandleMethodNotAllowed = true
	s.router.NoRoute(func(c *gin.Context) {
		s.errorResponse(c, http.StatusNotFound, "Not found.")
	})
	s.router.NoMethod(func(c *gin.Context) {
		s.errorResponse(c, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", c.Request.Method))
	})

	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")

	v1.GET("/health", s.healthCheck)
	v1.GET("/settings", s.getSettings)

	v1.POST("/calculate", s.calculate)

	calculations := v1.Group("/calculations")
	{
		calculations.GET("", s.listCalculations)
		calculations.GET("/:id", s.getCalculation)
		calculations.DELETE("/:id", s.deleteCalculation)
	}

	profiles := v1.Group("/profiles")
	{
		profiles.GET("", s.listProfiles)
		profiles.GET("/:id", s.getProfile)
		profiles.POST("", s.createProfile)
		profiles.PUT("/:id", s.updateProfile)
		profiles.DELETE("/:id", s.deleteProfile)
		profiles.POST("/:id/calculate", s.calculateProfile)
	}

	auth := v1.Group("/auth")
	{
		auth.POST("/register", s.register)
		auth.POST("/login", s.login)
		auth.POST("/logout", s.logout)
		auth.GET("/me", s.me)
		auth.GET("/csrf", s.csrf)
	}

	s.mountDir(s.cfg.Static.URL, s.cfg.Static.Root)
	s.mountDir(s.cfg.Media.URL, s.cfg.Media.Root)
}

// mountDir serves root under prefix when the directory exists
func (s *Server) mountDir(prefix, root string) {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" || root == "" {
		return
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return
	}
	s.router.Static(prefix, root)
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled and then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", srv.Addr))
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

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return <-errCh
}
