package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Session lifecycle
	v1 := s.echo.Group("/v1")
	v1.POST("/sessions", s.handleStart)
	v1.GET("/sessions/current", s.handleCurrent)
	v1.POST("/sessions/reveal", s.handleReveal)
	v1.POST("/sessions/random", s.handleRevealRandom)
	v1.POST("/sessions/finish", s.handleFinish)
	v1.POST("/sessions/replay", s.handleReplay)

	// Ledger reads
	v1.GET("/ledger/balance", s.handleBalance)
	v1.GET("/ledger/limits", s.handleLimits)

	// Spectator stream
	s.echo.GET("/ws/stream/:user_id", s.handleStream)
}
