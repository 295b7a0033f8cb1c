// Package http provides the HTTP API for answerd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/answerd/internal/pipeline"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// QueryService answers questions against the indexed collection.
type QueryService interface {
	Ask(ctx context.Context, question string) (*pipeline.Result, error)
	Ingest(ctx context.Context, docs []pipeline.Document) (*pipeline.IngestStats, error)
}

// Server provides HTTP endpoints for answerd.
type Server struct {
	echo     *echo.Echo
	service  QueryService
	logger   *zap.Logger
	config   *Config
	gatherer prometheus.Gatherer
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(service QueryService, logger *zap.Logger, cfg *Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("query service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8088,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		service:  service,
		logger:   logger,
		config:   cfg,
		gatherer: prometheus.DefaultGatherer,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check and metrics
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	// API v1 routes
	v1 := s.echo.Group("/v1")
	v1.POST("/query", s.handleQuery)
	v1.POST("/ingest", s.handleIngest)
}

// QueryRequest is the request body for POST /v1/query.
type QueryRequest struct {
	Question string `json:"question"`
}

// IngestRequest is the request body for POST /v1/ingest.
type IngestRequest struct {
	Documents []IngestDocument `json:"documents"`
}

// IngestDocument is a single document to index.
type IngestDocument struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// HealthResponse is the response body for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleQuery runs a question through the retrieval pipeline.
//
// A query the router blocks is still a successful HTTP exchange: the
// response carries blocked=true and the rejection reason with status 200.
// Backend failures map to 502, a question with no retrievable context to 404.
func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid query request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question field is required")
	}

	result, err := s.service.Ask(c.Request().Context(), req.Question)
	if err != nil {
		if errors.Is(err, pipeline.ErrInsufficientContext) {
			return echo.NewHTTPError(http.StatusNotFound, "no relevant context found for question")
		}
		s.logger.Error("query failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "query processing failed")
	}

	return c.JSON(http.StatusOK, result)
}

// handleIngest chunks, embeds, and indexes the submitted documents.
func (s *Server) handleIngest(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid ingest request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if len(req.Documents) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "documents field is required")
	}

	docs := make([]pipeline.Document, len(req.Documents))
	for i, doc := range req.Documents {
		if doc.ID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("document %d: id is required", i))
		}
		docs[i] = pipeline.Document{ID: doc.ID, Text: doc.Text}
	}

	stats, err := s.service.Ingest(c.Request().Context(), docs)
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "ingestion failed")
	}

	return c.JSON(http.StatusOK, stats)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
