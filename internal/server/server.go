package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/regulatech/compliancegpt/config"
	"github.com/regulatech/compliancegpt/internal/changes"
	"github.com/regulatech/compliancegpt/internal/session"
	"github.com/regulatech/compliancegpt/internal/store"
	"github.com/regulatech/compliancegpt/internal/telemetry"
)

// Server wires the query pipeline behind an HTTP API.
type Server struct {
	Config    *config.Config
	Engine    QueryEngine
	Store     store.DocumentStore
	Sessions  session.Store
	Detector  *changes.Detector
	Metrics   *telemetry.Metrics
	Logger    *log.Logger
	JWTSecret []byte
}

// NewEcho builds the echo instance with middleware and all routes.
func (s *Server) NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	if s.Logger == nil {
		s.Logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	// Unified HTTP error handler with structured JSON and logging
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.Logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if s.Config == nil || s.Config.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/regulations", s.handleRegulations)
	api.POST("/query", s.handleQuery)
	api.POST("/compare", s.handleCompare)
	api.POST("/search", s.handleSearch)
	api.POST("/changes", s.handleChanges)

	sessions := api.Group("/sessions")
	if len(s.JWTSecret) > 0 {
		sessions.Use(AuthMiddleware(s.JWTSecret))
	}
	sessions.POST("", s.handleCreateSession)
	sessions.GET("", s.handleListSessions)
	sessions.GET("/:id/history", s.handleHistory)

	return e
}

// Run starts the HTTP server.
func (s *Server) Run(addr string) error {
	if addr == "" {
		addr = ":8080"
	}
	e := s.NewEcho()
	s.Logger.Printf("listening on %s", addr)
	return e.Start(addr)
}
