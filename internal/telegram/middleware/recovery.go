package middleware

import (
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const panicReplyText = "❌ 出错了，请稍后再试。"

// RecoveryMiddleware turns handler panics into an error reply so one bad
// update cannot take the polling loop down.
type RecoveryMiddleware struct {
	logger *zap.Logger
	bot    *tgbotapi.BotAPI
}

func NewRecoveryMiddleware(logger *zap.Logger, bot *tgbotapi.BotAPI) *RecoveryMiddleware {
	return &RecoveryMiddleware{logger: logger, bot: bot}
}

func (m *RecoveryMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		m.logger.Error("panic recovered in telegram handler",
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())),
			zap.Int("update_id", update.UpdateID),
		)

		if chatID := updateChatID(update); chatID != 0 {
			msg := tgbotapi.NewMessage(chatID, panicReplyText)
			if _, err := m.bot.Send(msg); err != nil {
				m.logger.Error("failed to send panic reply",
					zap.Error(err),
					zap.Int64("chat_id", chatID))
			}
		}
	}()

	next(update)
}

func updateChatID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat.ID
	}

	return 0
}
