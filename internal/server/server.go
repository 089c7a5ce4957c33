package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"project-portal/internal/domain"
	"project-portal/internal/usecases"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = time.Minute
	shutdownTimeout   = 5 * time.Second
)

// Config holds HTTP-facing settings
type Config struct {
	CORSOrigins  []string
	UpstreamHost string
	CacheTTL     time.Duration
	Version      string
}

// Dependencies are the collaborators the handlers call into
type Dependencies struct {
	Store      domain.ProjectStore
	Scanner    domain.ProjectScanner
	Prober     domain.ReachabilityProber
	Aggregator domain.StatusAggregator
	Importer   *usecases.ImportUseCase
	Rescanner  *usecases.RescanUseCase
}

// Server serves the portal JSON API and proxies /project/:id traffic
type Server struct {
	engine     *gin.Engine
	store      domain.ProjectStore
	scanner    domain.ProjectScanner
	prober     domain.ReachabilityProber
	aggregator domain.StatusAggregator
	importer   *usecases.ImportUseCase
	rescanner  *usecases.RescanUseCase
	config     Config
	logger     *zap.Logger
	startedAt  time.Time
}

// New builds the gin engine and registers every route
func New(deps Dependencies, config Config, logger *zap.Logger) *Server {
	if config.UpstreamHost == "" {
		config.UpstreamHost = "localhost"
	}
	if config.Version == "" {
		config.Version = "dev"
	}

	s := &Server{
		store:      deps.Store,
		scanner:    deps.Scanner,
		prober:     deps.Prober,
		aggregator: deps.Aggregator,
		importer:   deps.Importer,
		rescanner:  deps.Rescanner,
		config:     config,
		logger:     logger,
		startedAt:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// Handler exposes the engine, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))

	r.GET("/health", s.health)

	api := r.Group("/api")
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	api.Use(cors.New(corsConfig(s.config.CORSOrigins)))
	{
		api.GET("/portal", s.portal)

		api.GET("/projects", s.listProjects)
		api.GET("/projects/overview", s.overview)
		api.POST("/projects", s.createProject)
		api.GET("/projects/:id", s.getProject)
		api.PUT("/projects/:id", s.updateProject)
		api.DELETE("/projects/:id", s.deleteProject)
		api.POST("/projects/:id/toggle", s.toggleProject)
		api.GET("/projects/:id/status", s.projectStatus)

		api.POST("/scan", s.scan)
		api.POST("/import", s.importProjects)
		api.GET("/export", s.exportProjects)
		api.POST("/rescan", s.rescan)
	}

	r.Any("/project/:id/*path", s.proxyProject)

	s.engine = r
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}

	allowAll := len(origins) == 0
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
		}
	}
	if allowAll {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	return config
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	s.logger.Info("Server exiting")
	return nil
}
