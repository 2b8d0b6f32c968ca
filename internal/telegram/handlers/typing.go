package handlers

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// typingInterval is shorter than the 5 seconds after which Telegram
// expires a chat action, so the indicator stays visible continuously.
const typingInterval = 4 * time.Second

// TypingNotifier keeps the "typing" indicator alive while an answer
// lookup is in flight
type TypingNotifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	done    chan struct{}
	logger  *zap.Logger
	started bool
}

// NewTypingNotifier creates a new typing indicator
func NewTypingNotifier(bot *tgbotapi.BotAPI, chatID int64, logger *zap.Logger) *TypingNotifier {
	return &TypingNotifier{
		bot:    bot,
		chatID: chatID,
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Start sends the first typing action immediately and then refreshes it
// until Stop is called or the context is cancelled
func (t *TypingNotifier) Start(ctx context.Context) {
	if t.started {
		return
	}
	t.started = true

	t.send()

	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.send()
			case <-t.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops sending typing indicators
func (t *TypingNotifier) Stop() {
	if !t.started {
		return
	}

	close(t.done)
	t.started = false
}

func (t *TypingNotifier) send() {
	action := tgbotapi.NewChatAction(t.chatID, tgbotapi.ChatTyping)
	if _, err := t.bot.Request(action); err != nil {
		t.logger.Warn("failed to send typing action",
			zap.Error(err),
			zap.Int64("chat_id", t.chatID),
		)
	}
}
