// Package api provides the web front-end for rollgen: JSON endpoints for the
// piano-roll composer plus the waiting, results and error views.
package api

import (
	"context"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/james-see/rollgen/internal/config"
	"github.com/james-see/rollgen/internal/logger"
	"github.com/james-see/rollgen/pkg/client"
	"github.com/james-see/rollgen/pkg/job"
	"github.com/james-see/rollgen/pkg/melody"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title rollgen API
// @version 1.0
// @description Piano-roll melody composer backed by a remote generation service
// @host localhost:8080
// @BasePath /api/v1

// Backend is the generation service as seen by the web front-end
type Backend interface {
	Submit(ctx context.Context, req client.Request) (*client.Submission, error)
	Status(ctx context.Context, songID string) (string, error)
	Download(ctx context.Context, songID string, w io.Writer) (int64, error)
	DownloadURL(songID string) string
}

// Server holds the handlers' dependencies
type Server struct {
	backend Backend
	policy  job.Policy
	writer  *melody.Writer
}

// Option configures a Server
type Option func(*Server)

// WithPollPolicy sets the schedule used by the waiting view
func WithPollPolicy(p job.Policy) Option {
	return func(s *Server) { s.policy = p }
}

// NewServer creates a server talking to backend
func NewServer(backend Backend, opts ...Option) *Server {
	s := &Server{
		backend: backend,
		policy:  job.DefaultPolicy,
		writer:  melody.NewWriter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with all routes installed
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(sentryMiddleware())
	r.Use(requestTracking())
	r.Use(corsMiddleware())

	r.SetHTMLTemplate(loadTemplates())

	r.GET("/", s.index)
	r.GET("/health", healthCheck)

	// Views addressed by the navigation query strings
	r.GET("/waiting", s.waiting)
	r.GET("/results", s.results)
	r.GET("/error", s.errorView)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/pitches", listPitches)
		v1.POST("/encode", s.encode)
		v1.POST("/generate", s.generate)
		v1.GET("/status/:songId", s.status)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// StartServer runs the web front-end until the listener fails
func StartServer(cfg *config.Config) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	backend, err := cfg.Backend()
	if err != nil {
		return fmt.Errorf("configure backend: %w", err)
	}

	s := NewServer(backend, WithPollPolicy(cfg.PollPolicy()))

	logger.Info("Starting web front-end", logger.Fields{
		"port":    cfg.Port,
		"backend": cfg.BackendURL,
		"framing": cfg.Framing,
	})
	return s.Router().Run(":" + cfg.Port)
}
