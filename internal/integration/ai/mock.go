package ai

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector is the mock AI backend used for local development and
// integration testing without API keys.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

// Name returns the connector identifier.
func (m *MockConnector) Name() string {
	return "mock"
}

// GenerateAnswer returns a canned reply in the tagged format real models
// are prompted to produce.
func (m *MockConnector) GenerateAnswer(ctx context.Context, systemPrompt, prompt string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating answer via AI", zap.Int("prompt_length", len(prompt)))

	return "<thinking>模拟推理：根据题目内容选择最合理的选项。</thinking>\n<answer>模拟答案</answer>", nil
}

// Verify always confirms the candidate answer.
func (m *MockConnector) Verify(ctx context.Context, prompt string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] verifying answer via AI")

	return "正确", nil
}
