package main

import (
	"context"
	"os/signal"
	"syscall"

	"economy-service/internal/app"
	"economy-service/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	logger.Init()
	defer logger.Log.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Sugar().Warn("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New()
	if err != nil {
		logger.Sugar().Fatalw("failed to initialize app", "error", err)
	}

	if err := a.Run(ctx); err != nil {
		logger.Sugar().Fatalw("app stopped with error", "error", err)
	}
}
