package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/accounts"
	"github.com/playmatatu/pachinko/internal/api"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/database"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/logging"
	"github.com/playmatatu/pachinko/internal/migrations"
	"github.com/playmatatu/pachinko/internal/redis"
	"github.com/playmatatu/pachinko/internal/ws"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize configuration
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	machine, err := config.LoadMachine(cfg.MachineProfile)
	if err != nil {
		log.Fatal().Err(err).Str("profile", cfg.MachineProfile).Msg("Failed to load machine profile")
	}
	field, err := game.NewField(machine)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build field")
	}

	// Initialize database
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations on start if requested
	if cfg.MigrateOnStart {
		log.Info().Msg("Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL, migrations.Dir); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	store := accounts.NewStore(db, machine.InitialCredits)
	credits := redis.NewCreditCache(rdb, store)

	manager, err := game.NewManager(ctx, game.ManagerOptions{
		Machine:     machine,
		TickHz:      cfg.TickHz,
		BroadcastHz: cfg.BroadcastHz,
	}, game.Stores{
		Credits:    credits,
		HighScores: store,
		History:    store,
	}, redis.NewIdleTracker(rdb))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start session manager")
	}

	hub := ws.NewHub(manager)
	manager.OnFrame = hub.OnFrame
	manager.OnSettle = hub.OnSettle
	manager.OnClose = hub.OnClose

	// Start idle worker (reaps abandoned sessions)
	game.StartIdleWorker(ctx, manager, cfg.IdleWorkerPollInterval, cfg.SessionIdleTimeout)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, api.Dependencies{
		Config:   cfg,
		Machine:  machine,
		Field:    field,
		Sessions: manager,
		Players:  store,
		History:  store,
		Credits:  credits,
		Bonus:    redis.NewBonusClaims(rdb),
		Ledger:   store,
		Hub:      hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Int("tick_hz", cfg.TickHz).Msg("Starting pachinko server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	manager.Shutdown()
	log.Info().Msg("Server stopped")
}
