// Package ai holds the generation backends the answer pipeline can run
// on. Each connector speaks one vendor API and exposes the same pair of
// operations: free-form answer generation and deterministic verification.
package ai

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/config"
)

// verifyMaxTokens caps verification replies. The verifier only ever needs
// a short 正确/错误 style verdict.
const verifyMaxTokens = 64

// OpenAIConnector generates answers through the OpenAI chat API.
type OpenAIConnector struct {
	client openai.Client
	cfg    config.AIConfig
	model  string
}

func NewOpenAIConnector(aiCfg config.AIConfig, cfg config.OpenAIConfig) (*OpenAIConnector, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.APIBase != "" {
		opts = append(opts, option.WithBaseURL(cfg.APIBase))
	}

	return &OpenAIConnector{
		client: openai.NewClient(opts...),
		cfg:    aiCfg,
		model:  cfg.Model,
	}, nil
}

// Name returns the connector identifier.
func (c *OpenAIConnector) Name() string {
	return "openai"
}

// GenerateAnswer sends the prompt to OpenAI and returns the raw reply.
func (c *OpenAIConnector) GenerateAnswer(ctx context.Context, systemPrompt, prompt string) (string, error) {
	ctxzap.Info(ctx, "generating answer via OpenAI", zap.String("model", c.model))

	content, err := c.chat(ctx, systemPrompt, prompt, c.cfg.Temperature, int64(c.cfg.MaxTokens))
	if err != nil {
		return "", err
	}

	ctxzap.Info(ctx, "answer generated successfully", zap.Int("reply_length", len(content)))

	return content, nil
}

// Verify asks the model a closed yes/no style question at temperature
// zero, so repeated checks of the same answer agree.
func (c *OpenAIConnector) Verify(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, "", prompt, 0, verifyMaxTokens)
}

func (c *OpenAIConnector) chat(ctx context.Context, systemPrompt, prompt string, temperature float64, maxTokens int64) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(maxTokens),
		Temperature:         openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
