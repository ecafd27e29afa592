package api

import (
	"context"
	"net/http"
	"time"

	"subsetlens/app"
	"subsetlens/domain/dataset"
	"subsetlens/internal"
	"subsetlens/ports"

	"github.com/gin-gonic/gin"
)

// Server exposes an Explorer over HTTP
type Server struct {
	router   *gin.Engine
	explorer ports.Explorer
	logger   *internal.Logger

	sessions *app.SessionManager
	dataset  *dataset.Dataset
}

// NewServer creates a server in the given gin mode ("debug", "release" or "test")
func NewServer(explorer ports.Explorer, mode string, logger *internal.Logger) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:   gin.New(),
		explorer: explorer,
		logger:   logger.With("api"),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/aggregate", s.handleAggregate)
		api.POST("/ratings", s.handleRatings)
		api.POST("/suggest", s.handleSuggestNext)
		api.POST("/combinations", s.handleCombinations)
		api.POST("/subsets", s.handleSubsets)
		api.GET("/metrics", s.handleMetrics)
	}
}

// Handler returns the router, for tests and custom listeners
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening on http://%s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}
