package handlers

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	maxSendRetries = 3
	retrySleepBase = time.Second
)

// sendMessageWithRetry delivers messages the user explicitly waited for,
// such as the final answer after a lookup. Transient Telegram API errors
// are retried with a linear backoff.
func sendMessageWithRetry(
	bot *tgbotapi.BotAPI,
	chatID int64,
	text string,
	markup interface{},
	logger *zap.Logger,
) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	var lastErr error
	for attempt := 1; attempt <= maxSendRetries; attempt++ {
		if _, lastErr = bot.Send(msg); lastErr == nil {
			if attempt > 1 {
				logger.Info("message sent after retry",
					zap.Int("attempt", attempt),
					zap.Int64("chat_id", chatID))
			}
			return nil
		}

		if attempt == maxSendRetries {
			break
		}

		sleep := retrySleepBase * time.Duration(attempt)
		logger.Warn("failed to send message, retrying",
			zap.Error(lastErr),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", sleep),
			zap.Int64("chat_id", chatID))
		time.Sleep(sleep)
	}

	return fmt.Errorf("send message after %d attempts: %w", maxSendRetries, lastErr)
}
