package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/config"
	"github.com/edubrain/answer-backend/internal/telegram/handlers"
	"github.com/edubrain/answer-backend/internal/telegram/keyboard"
	"github.com/edubrain/answer-backend/internal/telegram/middleware"
	"github.com/edubrain/answer-backend/internal/telegram/render"
	"github.com/edubrain/answer-backend/internal/telegram/state"
)

// Bot represents the Telegram bot
type Bot struct {
	api             *tgbotapi.BotAPI
	cfg             *config.TelegramConfig
	stateManager    *state.Manager
	sender          *handlers.MessageSender
	questionHandler *handlers.QuestionHandler
	callbackHandler *handlers.CallbackHandler
	keyboard        *keyboard.Builder
	logger          *zap.Logger
	loggingMW       *middleware.LoggingMiddleware
	recoveryMW      *middleware.RecoveryMiddleware
	rateLimitMW     *middleware.RateLimiterMiddleware
	updatesChan     tgbotapi.UpdatesChannel
	stopChan        chan struct{}
	wg              sync.WaitGroup
}

// New creates a new Telegram bot
func New(
	cfg *config.TelegramConfig,
	stateManager *state.Manager,
	answerUC handlers.AnswerUsecase,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	api.Debug = false

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	kb := keyboard.NewBuilder()
	sender := handlers.NewMessageSender(api, logger)

	bot := &Bot{
		api:          api,
		cfg:          cfg,
		stateManager: stateManager,
		sender:       sender,
		keyboard:     kb,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}

	bot.questionHandler = handlers.NewQuestionHandler(sender, stateManager, kb)
	bot.callbackHandler = handlers.NewCallbackHandler(api, sender, stateManager, answerUC, kb, logger)

	// Initialize middleware
	bot.loggingMW = middleware.NewLoggingMiddleware(logger)
	bot.recoveryMW = middleware.NewRecoveryMiddleware(logger, api)
	bot.rateLimitMW = middleware.NewRateLimiterMiddleware(
		cfg.RateLimitPerMinute,
		cfg.RateLimitBurst,
		logger,
		api,
	)

	return bot, nil
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	updates := b.api.GetUpdatesChan(u)
	b.updatesChan = updates

	// Add logger to context for processUpdates
	ctx = ctxzap.ToContext(ctx, b.logger)

	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully with timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	// Signal to stop receiving new updates
	close(b.stopChan)
	b.api.StopReceivingUpdates()

	// Wait for all active handlers to complete
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

// processUpdates processes incoming updates
func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update := <-b.updatesChan:
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(u)
			}(update)
		}
	}
}

// handleUpdateWithMiddleware processes update through middleware chain
func (b *Bot) handleUpdateWithMiddleware(update tgbotapi.Update) {
	// Rate limiter middleware (first to check)
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		// Logging middleware
		b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
			// Recovery middleware
			b.recoveryMW.Handle(u2, func(u3 tgbotapi.Update) {
				// Actual handler
				b.handleUpdate(u3)
			})
		})
	})
}

// handleUpdate routes update to appropriate handler
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	// Create context with logger
	ctx := ctxzap.ToContext(context.Background(), b.logger)

	if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
		return
	}
}

// handleMessage handles incoming messages
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	msg := &handlers.Message{
		ChatID:    message.Chat.ID,
		UserID:    message.From.ID,
		MessageID: message.MessageID,
		Text:      message.Text,
	}

	if err := b.questionHandler.Handle(ctx, msg); err != nil {
		ctxzap.Error(ctx, "question handler error",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID),
		)
		b.sendError(message.Chat.ID, render.ErrGeneric)
	}
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()

	ctxzap.Info(ctx, "command received",
		zap.String("command", command),
		zap.Int64("user_id", message.From.ID),
	)

	switch command {
	case "start":
		b.handleStartCommand(ctx, message)
	case "help":
		b.handleHelpCommand(ctx, message)
	case "cancel":
		b.handleCancelCommand(ctx, message)
	case "export":
		b.handleExportCommand(ctx, message)
	default:
		b.sendError(message.Chat.ID, render.MsgUnknownCommand)
	}
}

// handleStartCommand handles /start command
func (b *Bot) handleStartCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if err := b.sender.Send(chatID, render.MsgWelcome, nil); err != nil {
		ctxzap.Error(ctx, "failed to send welcome message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

// handleHelpCommand handles /help command
func (b *Bot) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) {
	if err := b.sender.SendMarkdown(message.Chat.ID, render.MsgHelp); err != nil {
		ctxzap.Error(ctx, "failed to send help message",
			zap.Error(err),
		)
	}
}

// handleCancelCommand handles /cancel command
func (b *Bot) handleCancelCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	stateData, err := b.stateManager.GetStateData(ctx, chatID)
	if err != nil {
		ctxzap.Error(ctx, "failed to get state data",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
		b.sendError(chatID, render.ErrGeneric)
		return
	}

	if stateData.PendingQuestion == "" {
		b.sender.Send(chatID, render.MsgNoPending, nil)
		return
	}

	b.sender.Send(chatID, render.MsgConfirmCancel, b.keyboard.ConfirmCancelKeyboard())
}

// handleExportCommand handles /export command
func (b *Bot) handleExportCommand(ctx context.Context, message *tgbotapi.Message) {
	if err := b.sender.Send(message.Chat.ID, render.MsgChooseExport, b.keyboard.ExportFormatKeyboard()); err != nil {
		ctxzap.Error(ctx, "failed to send export menu",
			zap.Error(err),
		)
	}
}

// handleCallbackQuery handles callback button clicks
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	callbackData, err := keyboard.ParseCallback(query.Data)
	if err != nil {
		ctxzap.Error(ctx, "invalid callback data",
			zap.Error(err),
			zap.String("data", query.Data),
		)
		b.answerCallback(query.ID, render.ErrInvalidCallback)
		return
	}

	ctxzap.Info(ctx, "callback query received",
		zap.String("action", callbackData.Action),
		zap.String("value", callbackData.Value),
		zap.Int64("user_id", query.From.ID),
	)

	msg := &handlers.Message{
		ChatID:       query.Message.Chat.ID,
		UserID:       query.From.ID,
		MessageID:    query.Message.MessageID,
		CallbackData: query.Data,
		CallbackID:   query.ID,
	}

	// Answer right away so Telegram does not mark the query as stale.
	// Searches and exports get a progress toast, the rest a silent ack.
	switch callbackData.Action {
	case "type":
		b.answerCallback(query.ID, render.MsgSearching)
	case "export":
		b.answerCallback(query.ID, render.MsgExporting)
	default:
		b.answerCallback(query.ID, "")
	}

	// The slow work runs asynchronously; results and errors arrive as
	// regular chat messages.
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			// This goroutine outlives the recovery middleware, so it
			// needs its own panic handler.
			if r := recover(); r != nil {
				b.logger.Error("panic in callback processing",
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
					zap.Int64("chat_id", msg.ChatID),
				)
				b.sendError(msg.ChatID, render.ErrGeneric)
			}
		}()

		if err := b.callbackHandler.Handle(ctx, msg); err != nil {
			ctxzap.Error(ctx, "callback handler error",
				zap.Error(err),
				zap.Int64("user_id", msg.UserID),
			)
			b.sendError(msg.ChatID, render.ErrGeneric)
		}
	}()
}

// sendError sends an error message
func (b *Bot) sendError(chatID int64, text string) {
	if err := b.sender.Send(chatID, text, nil); err != nil {
		b.logger.Error("failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

// answerCallback answers a callback query
func (b *Bot) answerCallback(callbackID string, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Error("failed to answer callback",
			zap.Error(err),
			zap.String("callback_id", callbackID),
		)
	}
}
