package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinytelemetry/pulse/internal/expose"
	"github.com/tinytelemetry/pulse/internal/model"
)

// MetricSource is the narrow store contract required by the endpoint.
type MetricSource interface {
	Snapshot() []model.Sample
	Len() int
}

// Server publishes the metric store over HTTP. Serving a scrape performs
// no fetch or extraction; it only renders what is currently stored.
type Server struct {
	addr      string
	source    MetricSource
	targets   int
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	serveErr  chan error
	startTime time.Time
}

// NewServer creates the publication endpoint. targets is reported by the
// health handler.
func NewServer(addr string, source MetricSource, targets int) *Server {
	if addr == "" {
		addr = model.DefaultAddress
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:     addr,
		source:   source,
		targets:  targets,
		ctx:      ctx,
		cancel:   cancel,
		serveErr: make(chan error, 1),
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s.registerRoutes(r)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.serveErr <- err
		}
	}()
	return nil
}

// ServeErr reports an unexpected Serve failure after Start. A graceful
// Stop never produces one.
func (s *Server) ServeErr() <-chan error {
	return s.serveErr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/metrics", s.handleMetrics)
	r.GET("/api/health", s.handleHealth)
}

// handleMetrics always answers 200 with whatever is currently stored,
// even when the store is empty.
func (s *Server) handleMetrics(c *gin.Context) {
	body := expose.Render(s.source.Snapshot())
	c.Data(http.StatusOK, expose.ContentType, []byte(body))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.startTime).String(),
		"targets": s.targets,
		"series":  s.source.Len(),
	})
}
