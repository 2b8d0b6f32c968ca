package lookup

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/entity"
)

// MockConnector is the mock question-bank lookup used for local
// development. It always misses, so requests fall through to the AI
// backend the way uncached questions do in production.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Search(ctx context.Context, query *entity.SearchQuery) (*entity.LookupAnswer, error) {
	ctxzap.Info(ctx, "[MOCK] searching external question banks", zap.String("question", query.Question))

	return nil, entity.ErrAnswerNotFound
}
