package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trackerlab/geotrack/services/api/config"
	"github.com/trackerlab/geotrack/services/api/db"
	"github.com/trackerlab/geotrack/services/internal/location"
)

const (
	apiKeyHeader  = "X-API-Key"
	allowMethods  = "GET, POST, DELETE, OPTIONS"
	allowHeaders  = "Content-Type, X-API-Key"
	shutdownGrace = 10 * time.Second
)

// Server bundles the route table and its dependencies. The same routes are
// served by gin locally and by HandleLambda behind API Gateway.
type Server struct {
	cfg      config.Config
	location *location.Client
	registry db.Registry
	logger   *slog.Logger
	engine   *gin.Engine
	routes   []route

	newID func() string
	now   func() time.Time
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, loc *location.Client, registry db.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(corsMiddleware())

	if cfg.APIKey != "" {
		engine.Use(apiKeyMiddleware(cfg.APIKey))
	}

	server := &Server{
		cfg:      cfg,
		location: loc,
		registry: registry,
		logger:   logger,
		engine:   engine,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	server.routes = server.buildRoutes()
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves HTTP on the configured address until ctx is cancelled, then
// drains in-flight requests for up to shutdownGrace.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("http server failed", "addr", srv.Addr, "error", err)
		}
		return err
	case <-ctx.Done():
		s.logger.Info("http server shutting down", "grace", shutdownGrace.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info("http server stopped")
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		writeResponse(c, statusOK())
	})

	for _, r := range s.routes {
		s.engine.Handle(r.method, ginPath(r.resource), s.ginHandler(r))
	}

	s.engine.NoRoute(func(c *gin.Context) {
		s.logger.Warn("no route", "method", c.Request.Method, "path", c.Request.URL.Path)
		writeResponse(c, notFound("no route for "+c.Request.Method+" "+c.Request.URL.Path))
	})
}

// ginHandler adapts an Action to gin by building the proxy event from the
// request and writing the proxy response back.
func (s *Server) ginHandler(r route) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			writeResponse(c, badRequest("unreadable body: "+err.Error()))
			return
		}
		query, err := url.ParseQuery(c.Request.URL.RawQuery)
		if err != nil {
			writeResponse(c, badRequest("invalid query string: "+err.Error()))
			return
		}

		req := events.APIGatewayProxyRequest{
			Resource:                        r.resource,
			Path:                            c.Request.URL.Path,
			HTTPMethod:                      c.Request.Method,
			Headers:                         firstValues(c.Request.Header),
			MultiValueHeaders:               c.Request.Header,
			QueryStringParameters:           firstValues(query),
			MultiValueQueryStringParameters: query,
			PathParameters:                  make(map[string]string, len(c.Params)),
			Body:                            string(body),
		}
		for _, p := range c.Params {
			req.PathParameters[p.Key] = p.Value
		}

		resp, err := r.fn(c.Request.Context(), req)
		if err != nil {
			s.logger.Error("route failed", "route", r.name, "error", err)
			resp = serverError(err.Error())
		}
		writeResponse(c, resp)
	}
}

func writeResponse(c *gin.Context, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	c.Data(resp.StatusCode, resp.Headers["Content-Type"], []byte(resp.Body))
}

func firstValues(m map[string][]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func apiKeyMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Next()
			return
		}
		if c.GetHeader(apiKeyHeader) != expected {
			writeResponse(c, unauthorized())
			c.Abort()
			return
		}
		c.Next()
	}
}

// corsMiddleware adds the CORS headers to every response and answers
// preflight requests itself, ahead of the API key check.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", allowMethods)
		c.Header("Access-Control-Allow-Headers", allowHeaders)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
