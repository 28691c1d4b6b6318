package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"economy-service/internal/auth"
	"economy-service/internal/broker"
	"economy-service/internal/cache"
	"economy-service/internal/config"
	"economy-service/internal/database"
	"economy-service/internal/logger"
	"economy-service/internal/repositories/kafkarepo"
	"economy-service/internal/repositories/redisrepo"
	"economy-service/internal/repositories/sqliterepo"
	"economy-service/internal/services"
	"economy-service/internal/transport/http/handler"
	"economy-service/internal/worker"
)

type App struct {
	cfg        *config.Config
	httpServer *http.Server
	sweeper    *worker.Sweeper
}

// @title Economy Engine API
// @version 1.0
// @description Persisted economy engine: card minting, wallet ledger, trades and admin overrides.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func New() (*App, error) {
	a := new(App)

	// Initialize config
	a.cfg = config.New()

	// Open the durable store
	db, err := database.NewSQLite(a.cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}

	// Connect to cache
	redis, err := cache.NewRedis(a.cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("cache connection error: %w", err)
	}

	// Connect to broker
	kafka, err := broker.NewKafkaWriter(a.cfg.Kafka)
	if err != nil {
		return nil, fmt.Errorf("broker connection error: %w", err)
	}

	// Initialize repositories
	store := sqliterepo.NewStore(db)
	creditsCache := redisrepo.NewWalletRepository(redis)
	events := kafkarepo.NewEventRepository(kafka)

	// Initialize services
	walletService := services.NewWalletService(store, creditsCache)
	packService := services.NewPackService(store, creditsCache, events)
	tradeService := services.NewTradeService(store, creditsCache, events)
	inventoryService := services.NewInventoryService(store, creditsCache, a.cfg.Packs.FreePackCooldown)
	adminService := services.NewAdminService(store, creditsCache, events)

	tokens := auth.NewTokenService(a.cfg.Auth.AdminJWTSecret)

	// Initialize mux and handlers
	mux := http.NewServeMux()

	handler.NewEconomy(mux, walletService, packService, tradeService, inventoryService)
	handler.NewAdmin(mux, adminService, tokens)

	// Initialize http server
	a.httpServer = &http.Server{
		Addr:         a.cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	a.sweeper = worker.NewSweeper(tradeService, a.cfg.Sweep.Interval, a.cfg.Sweep.BatchSize)

	return a, nil
}

// Run serves HTTP and runs the trade sweeper until ctx is cancelled, then
// drains the server.
func (a *App) Run(ctx context.Context) error {
	go a.sweeper.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Sugar().Infow("starting HTTP server", "addr", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown error: %w", err)
	}

	logger.Sugar().Info("server stopped")
	return nil
}
