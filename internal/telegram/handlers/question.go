package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/telegram/keyboard"
	"github.com/edubrain/answer-backend/internal/telegram/render"
	"github.com/edubrain/answer-backend/internal/telegram/state"
)

// processingGrace is how long a chat stays locked after a search started.
// A stale lock past this age is treated as abandoned so a crashed lookup
// cannot freeze the chat forever.
const processingGrace = 2 * time.Minute

// QuestionHandler accepts free-form question text and asks for the
// question type before the search runs
type QuestionHandler struct {
	sender       *MessageSender
	stateManager *state.Manager
	keyboard     *keyboard.Builder
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(
	sender *MessageSender,
	stateManager *state.Manager,
	kb *keyboard.Builder,
) *QuestionHandler {
	return &QuestionHandler{
		sender:       sender,
		stateManager: stateManager,
		keyboard:     kb,
	}
}

// Handle stores the question as pending and replies with the type keyboard
func (h *QuestionHandler) Handle(ctx context.Context, msg *Message) error {
	question := strings.TrimSpace(msg.Text)
	if question == "" {
		h.sender.Send(msg.ChatID, render.MsgTextOnly, nil)
		return nil
	}

	stateData, err := h.stateManager.GetStateData(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("get state data: %w", err)
	}

	if stateData.IsProcessing && time.Since(stateData.ProcessingStarted) < processingGrace {
		h.sender.Send(msg.ChatID, render.MsgBusy, nil)
		return nil
	}

	// A new question replaces whatever was pending before.
	stateData.PendingQuestion = question
	stateData.LastMessageID = msg.MessageID
	stateData.IsProcessing = false
	stateData.ProcessingStarted = time.Time{}

	if err := h.stateManager.UpdateStateData(ctx, msg.ChatID, stateData); err != nil {
		return fmt.Errorf("store pending question: %w", err)
	}

	ctxzap.Info(ctx, "question received",
		zap.Int64("chat_id", msg.ChatID),
		zap.Int("length", len(question)),
	)

	return h.sender.Send(msg.ChatID, render.RenderAskType(question), h.keyboard.TypeSelectionKeyboard())
}
