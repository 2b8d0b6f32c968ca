package telegram

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/config"
	"github.com/edubrain/answer-backend/internal/telegram/bot"
	"github.com/edubrain/answer-backend/internal/telegram/handlers"
	"github.com/edubrain/answer-backend/internal/telegram/state"
)

// ErrNoBotToken is returned when the bot is built without a token
var ErrNoBotToken = errors.New("telegram bot token is not configured")

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot initializes the telegram bot with all dependencies
func NewBot(
	cfg *config.TelegramConfig,
	storage state.Storage,
	answerUC handlers.AnswerUsecase,
	logger *zap.Logger,
) (Bot, error) {
	if cfg.BotToken == "" {
		return nil, ErrNoBotToken
	}

	stateManager := state.NewManager(storage)

	b, err := bot.New(cfg, stateManager, answerUC, logger)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	logger.Info("telegram bot initialized successfully")

	return b, nil
}
