package handlers

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/entity"
	"github.com/edubrain/answer-backend/internal/pkg/formatter"
	"github.com/edubrain/answer-backend/internal/telegram/keyboard"
	"github.com/edubrain/answer-backend/internal/telegram/render"
	"github.com/edubrain/answer-backend/internal/telegram/state"
)

const (
	// searchTimeout caps one resolution round trip, covering question
	// bank calls plus AI generation with retries
	searchTimeout = 90 * time.Second

	// exportRecordsLimit bounds a bot-initiated export
	exportRecordsLimit = 500
)

// CallbackHandler handles all callback button clicks
type CallbackHandler struct {
	bot          *tgbotapi.BotAPI
	sender       *MessageSender
	stateManager *state.Manager
	answerUC     AnswerUsecase
	keyboard     *keyboard.Builder
	logger       *zap.Logger
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(
	bot *tgbotapi.BotAPI,
	sender *MessageSender,
	stateManager *state.Manager,
	answerUC AnswerUsecase,
	kb *keyboard.Builder,
	logger *zap.Logger,
) *CallbackHandler {
	return &CallbackHandler{
		bot:          bot,
		sender:       sender,
		stateManager: stateManager,
		answerUC:     answerUC,
		keyboard:     kb,
		logger:       logger,
	}
}

// Handle routes callback queries to appropriate actions
func (h *CallbackHandler) Handle(ctx context.Context, msg *Message) error {
	data, err := keyboard.ParseCallback(msg.CallbackData)
	if err != nil {
		ctxzap.Warn(ctx, "invalid callback data",
			zap.String("data", msg.CallbackData),
			zap.Error(err),
		)
		h.sender.Send(msg.ChatID, render.ErrInvalidCallback, nil)
		return nil
	}

	switch data.Action {
	case "type":
		return h.handleTypeSelection(ctx, msg, data.Value)
	case "action":
		if data.Value == "cancel" {
			return h.askCancelConfirmation(ctx, msg)
		}
	case "confirm":
		return h.handleCancelConfirmation(ctx, msg, data.Value)
	case "export":
		return h.handleExport(ctx, msg, data.Value)
	}

	ctxzap.Warn(ctx, "unknown callback action",
		zap.String("action", data.Action),
		zap.String("value", data.Value),
	)
	h.sender.Send(msg.ChatID, render.ErrInvalidCallback, nil)
	return nil
}

// handleTypeSelection runs the search for the pending question once the
// user has picked a question type
func (h *CallbackHandler) handleTypeSelection(ctx context.Context, msg *Message, value string) error {
	stateData, err := h.stateManager.GetStateData(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("get state data: %w", err)
	}

	if stateData.PendingQuestion == "" {
		h.sender.Send(msg.ChatID, render.MsgNoPending, nil)
		return nil
	}

	// Double taps on the keyboard must not fire a second search.
	if stateData.IsProcessing && time.Since(stateData.ProcessingStarted) < processingGrace {
		h.sender.Send(msg.ChatID, render.MsgBusy, nil)
		return nil
	}

	stateData.IsProcessing = true
	stateData.ProcessingStarted = time.Now()
	if err := h.stateManager.UpdateStateData(ctx, msg.ChatID, stateData); err != nil {
		return fmt.Errorf("mark chat as processing: %w", err)
	}

	qtype := entity.TypeUnspecified
	if value != "any" {
		qtype = entity.ParseQuestionType(value)
	}

	return h.runSearch(ctx, msg, stateData.PendingQuestion, qtype)
}

func (h *CallbackHandler) runSearch(ctx context.Context, msg *Message, question string, qtype entity.QuestionType) error {
	ctxzap.Info(ctx, "searching answer",
		zap.Int64("chat_id", msg.ChatID),
		zap.String("type", string(qtype)),
	)

	typing := NewTypingNotifier(h.bot, msg.ChatID, h.logger)
	typing.Start(ctx)
	defer typing.Stop()

	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	// Options stay inside the question text; the engine extracts them
	// from there when it validates choice answers.
	result, err := h.answerUC.Search(searchCtx, &entity.SearchQuery{
		Question: question,
		Type:     qtype,
	})

	// Unlock the chat before replying so a failed send cannot block the
	// next attempt.
	h.clearState(ctx, msg.ChatID)

	if err != nil {
		ctxzap.Error(ctx, "answer search failed",
			zap.Error(err),
			zap.Int64("chat_id", msg.ChatID),
		)
		h.sender.Send(msg.ChatID, render.ClassifyError(err), nil)
		return nil
	}

	return sendMessageWithRetry(h.bot, msg.ChatID, render.RenderAnswer(result), nil, h.logger)
}

// askCancelConfirmation shows the confirmation keyboard for the cancel button
func (h *CallbackHandler) askCancelConfirmation(ctx context.Context, msg *Message) error {
	stateData, err := h.stateManager.GetStateData(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("get state data: %w", err)
	}

	if stateData.PendingQuestion == "" {
		h.sender.Send(msg.ChatID, render.MsgNoPending, nil)
		return nil
	}

	return h.sender.Send(msg.ChatID, render.MsgConfirmCancel, h.keyboard.ConfirmCancelKeyboard())
}

func (h *CallbackHandler) handleCancelConfirmation(ctx context.Context, msg *Message, value string) error {
	switch value {
	case "cancel":
		if err := h.stateManager.DeleteState(ctx, msg.ChatID); err != nil {
			return fmt.Errorf("delete chat state: %w", err)
		}
		return h.sender.Send(msg.ChatID, render.MsgCancelled, nil)

	case "continue":
		stateData, err := h.stateManager.GetStateData(ctx, msg.ChatID)
		if err != nil {
			return fmt.Errorf("get state data: %w", err)
		}
		if stateData.PendingQuestion == "" {
			h.sender.Send(msg.ChatID, render.MsgNoPending, nil)
			return nil
		}
		return h.sender.Send(msg.ChatID, render.RenderAskType(stateData.PendingQuestion), h.keyboard.TypeSelectionKeyboard())
	}

	h.sender.Send(msg.ChatID, render.ErrInvalidCallback, nil)
	return nil
}

// handleExport renders recent answer records into the chosen format and
// sends them back as a document
func (h *CallbackHandler) handleExport(ctx context.Context, msg *Message, value string) error {
	format := entity.ExportFormat(value)
	if err := format.Validate(); err != nil {
		h.sender.Send(msg.ChatID, render.ErrInvalidCallback, nil)
		return nil
	}

	records, err := h.answerUC.ListRecords(ctx, exportRecordsLimit)
	if err != nil {
		ctxzap.Error(ctx, "failed to list records for export",
			zap.Error(err),
			zap.Int64("chat_id", msg.ChatID),
		)
		h.sender.Send(msg.ChatID, render.ErrGeneric, nil)
		return nil
	}
	if len(records) == 0 {
		h.sender.Send(msg.ChatID, render.MsgExportEmpty, nil)
		return nil
	}

	fmtr, err := formatter.NewFactory().Create(format)
	if err != nil {
		ctxzap.Error(ctx, "failed to create formatter",
			zap.Error(err),
			zap.String("format", value),
		)
		h.sender.Send(msg.ChatID, render.ErrGeneric, nil)
		return nil
	}

	content, err := fmtr.Format(records)
	if err != nil {
		ctxzap.Error(ctx, "failed to format records",
			zap.Error(err),
			zap.String("format", value),
		)
		h.sender.Send(msg.ChatID, render.ErrGeneric, nil)
		return nil
	}

	ctxzap.Info(ctx, "exporting records",
		zap.Int64("chat_id", msg.ChatID),
		zap.String("format", value),
		zap.Int("records", len(records)),
	)

	filename := "qa-records-" + time.Now().Format("20060102-150405") + fmtr.FileExtension()
	return h.sender.SendDocument(msg.ChatID, filename, content)
}

func (h *CallbackHandler) clearState(ctx context.Context, chatID int64) {
	if err := h.stateManager.DeleteState(ctx, chatID); err != nil {
		ctxzap.Warn(ctx, "failed to clear chat state",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}
