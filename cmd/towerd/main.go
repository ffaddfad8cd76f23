package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/wagerworks/towerd/internal/app"
	"github.com/wagerworks/towerd/internal/config"
	"github.com/wagerworks/towerd/internal/database"
	"github.com/wagerworks/towerd/internal/game"
	"github.com/wagerworks/towerd/internal/ledger"
	"github.com/wagerworks/towerd/internal/platform/logging"
	"github.com/wagerworks/towerd/internal/redis"
	"github.com/wagerworks/towerd/internal/server"
	"github.com/wagerworks/towerd/internal/websocket"
)

func main() {
	ctx := context.Background()
	clock := clockwork.NewRealClock()

	cfg := setupConfig()
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	pool := setupDB(ctx, cfg)
	defer pool.Close()

	rdb := setupRedis(ctx, cfg)
	defer rdb.Close()

	// Durable stores.
	accounts := database.NewAccountRepo(pool)
	inventory := database.NewInventoryRepo(pool)
	boosters := database.NewBoosterRepo(pool)
	outcomes := database.NewOutcomeRepo(pool)
	rounds := database.NewRoundRepo(pool)
	progress := database.NewProgressRepo(pool)

	// Shared-store collaborators.
	cache := redis.NewEconomyCache(rdb)
	lease := redis.NewSessionLease(rdb, cfg.LeaseTTL)
	dropGate := redis.NewDropGate(rdb)
	gatekeeper := redis.NewGatekeeper(rdb)

	hub := websocket.NewHub()
	presenter := websocket.NewStreamPresenter(hub)
	notifier := websocket.NewStreamNotifier(hub)

	rng := game.NewRand()
	ledgerSvc := ledger.NewService(accounts, inventory, boosters, cache, notifier, rng, slog.Default())

	sessions := app.NewService(
		app.Timers{
			FirstMove: cfg.FirstMoveTimeout,
			Idle:      cfg.IdleTimeout,
			Replay:    cfg.ReplayWindow,
		},
		app.NewRegistry(),
		ledgerSvc,
		lease,
		rounds,
		outcomes,
		presenter,
		rng,
		clock,
		slog.Default(),
		app.Options{
			Gatekeeper: gatekeeper,
			DropGate:   dropGate,
			Inventory:  inventory,
			Progress:   progress,
			Notifier:   notifier,
		},
	)

	leader := app.NewLeaderElector(rdb, instanceID())
	sweeper := app.NewSweeper(rounds, outcomes, lease, cache, leader, cfg.SweepInterval, cfg.SweepHorizon, clock, slog.Default())
	go sweeper.Start(ctx)

	srv := server.NewServer(cfg, sessions, ledgerSvc, hub, rdb, pool)
	done := runGracefulShutdown(srv, sweeper, hub)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	<-done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func setupDB(ctx context.Context, cfg *config.Config) *pgxpool.Pool {
	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := database.Connect(dbCtx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(dbCtx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	redisCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rdb, err := redis.NewClient(redisCtx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	return rdb
}

// instanceID identifies this process in the sweep leader election.
func instanceID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

func runGracefulShutdown(srv *server.Server, sweeper *app.Sweeper, hub *websocket.Hub) chan struct{} {
	done := make(chan struct{})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
		sweeper.Stop()
		hub.Stop()
		close(done)
	}()

	return done
}
