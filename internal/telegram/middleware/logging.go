package middleware

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// LoggingMiddleware logs each update on arrival and again once handled.
type LoggingMiddleware struct {
	logger *zap.Logger
}

func NewLoggingMiddleware(logger *zap.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

func (m *LoggingMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	start := time.Now()
	userID, chatID, kind := classifyUpdate(update)

	m.logger.Info("telegram update received",
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
		zap.String("type", kind),
		zap.Int("update_id", update.UpdateID),
	)

	next(update)

	m.logger.Info("telegram update processed",
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
		zap.String("type", kind),
		zap.Duration("duration", time.Since(start)),
	)
}

func classifyUpdate(update tgbotapi.Update) (userID, chatID int64, kind string) {
	switch {
	case update.Message != nil:
		userID = update.Message.From.ID
		chatID = update.Message.Chat.ID
		switch {
		case update.Message.IsCommand():
			kind = "command"
		case update.Message.Text != "":
			kind = "text"
		default:
			kind = "other"
		}
	case update.CallbackQuery != nil:
		userID = update.CallbackQuery.From.ID
		if update.CallbackQuery.Message != nil {
			chatID = update.CallbackQuery.Message.Chat.ID
		}
		kind = "callback"
	}

	return userID, chatID, kind
}
