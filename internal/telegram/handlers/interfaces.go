package handlers

import (
	"context"

	"github.com/edubrain/answer-backend/internal/entity"
)

// AnswerUsecase defines the answer resolution operations used by the bot
type AnswerUsecase interface {
	// Search resolves a question through cache, question banks and AI
	Search(ctx context.Context, query *entity.SearchQuery) (*entity.SearchResult, error)

	// ListRecords returns recent answer records for export
	ListRecords(ctx context.Context, limit int) ([]*entity.AnswerRecord, error)
}

// Message represents a normalized Telegram message
type Message struct {
	ChatID       int64
	UserID       int64
	MessageID    int
	Text         string
	CallbackData string
	CallbackID   string
}
