package search

import (
	"context"

	"github.com/edubrain/answer-backend/internal/entity"
)

type AnswerUsecase interface {
	Search(ctx context.Context, query *entity.SearchQuery) (*entity.SearchResult, error)
}
