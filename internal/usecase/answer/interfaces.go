package answer

import (
	"context"

	"github.com/edubrain/answer-backend/internal/entity"
)

type AIConnector interface {
	Name() string
	GenerateAnswer(ctx context.Context, systemPrompt, prompt string) (string, error)
	Verify(ctx context.Context, prompt string) (string, error)
}

type LookupConnector interface {
	Search(ctx context.Context, query *entity.SearchQuery) (*entity.LookupAnswer, error)
}

// AnswerCache is the surface shared by the memory and Redis backends.
type AnswerCache interface {
	Get(ctx context.Context, question string, qtype entity.QuestionType, options string) (string, bool)
	Set(ctx context.Context, question string, qtype entity.QuestionType, options, answer string)
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int64, error)
}
