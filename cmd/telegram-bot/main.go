package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/edubrain/answer-backend/internal/builder"
	"go.uber.org/zap"
)

func main() {
	bot, logger, err := builder.BuildTelegramBot()
	if err != nil {
		log.Fatal("Failed to build telegram bot:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		if err := bot.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := bot.Stop(); err != nil {
			logger.Error("error stopping bot", zap.Error(err))
		}
		logger.Info("telegram bot stopped")
	case err := <-errChan:
		logger.Error("telegram bot failed", zap.Error(err))
		os.Exit(1)
	}
}
