// Package server exposes the session engine over HTTP and websocket streams.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/wagerworks/towerd/internal/config"
	"github.com/wagerworks/towerd/internal/domain"
	"github.com/wagerworks/towerd/internal/websocket"
)

// SessionAPI is the engine surface the handlers call. Implemented by
// app.Service.
type SessionAPI interface {
	Start(ctx context.Context, userID string, bet int64, difficulty domain.Difficulty) (domain.RenderView, error)
	Reveal(ctx context.Context, userID string, column int) (domain.RenderView, error)
	RevealRandom(ctx context.Context, userID string) (domain.RenderView, error)
	Finish(ctx context.Context, userID string) (domain.RenderView, error)
	Replay(ctx context.Context, userID string) (domain.RenderView, error)
	Current(ctx context.Context, userID string) (domain.RenderView, error)
}

// LedgerAPI exposes the read side of the ledger to handlers.
type LedgerAPI interface {
	Balance(ctx context.Context, userID string) (int64, error)
	MaxWager(ctx context.Context, userID string) (int64, error)
	DefaultBet(ctx context.Context, userID string) (int64, error)
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	sessions  SessionAPI
	ledger    LedgerAPI
	hub       *websocket.Hub
	rdb       *goredis.Client
	db        *pgxpool.Pool
	startTime time.Time
}

func NewServer(cfg *config.Config, sessions SessionAPI, ledger LedgerAPI, hub *websocket.Hub, rdb *goredis.Client, db *pgxpool.Pool) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:      e,
		config:    cfg,
		sessions:  sessions,
		ledger:    ledger,
		hub:       hub,
		rdb:       rdb,
		db:        db,
		startTime: time.Now(),
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
