// Package server exposes the calculator as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/logger"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/kalkulator"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

// MaxBodySize bounds request bodies.
const MaxBodySize = 64 << 10

const shutdownTimeout = 5 * time.Second

// Server serves the calculator API.
type Server struct {
	calc   *kalkulator.Calculator
	engine *gin.Engine
}

// SetMode selects gin's debug mode when debug is set and release mode
// otherwise. Call it before New.
func SetMode(debug bool) {
	gin.SetMode(modeFor(debug))
}

func modeFor(debug bool) string {
	if debug {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

// New builds the router around calc.
func New(calc *kalkulator.Calculator) *Server {
	s := &Server{calc: calc, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestContext())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)

	api := s.engine.Group("/api/v1")
	api.GET("/model", s.model)
	api.POST("/extract", s.extract)
	api.POST("/validate", s.validate)
	api.POST("/predict", s.predict)
	api.POST("/compare", s.compare)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
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

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestContext tags each request with an ID, bounds its body and logs
// one line when it completes.
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)

		ctx := logger.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodySize)

		start := time.Now()
		c.Next()

		logger.InfoContext(ctx, "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
