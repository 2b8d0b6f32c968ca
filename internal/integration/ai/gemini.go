package ai

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/edubrain/answer-backend/internal/config"
)

// GeminiConnector generates answers through the Gemini API.
type GeminiConnector struct {
	client *genai.Client
	cfg    config.AIConfig
	model  string
}

func NewGeminiConnector(ctx context.Context, aiCfg config.AIConfig, cfg config.GeminiConfig) (*GeminiConnector, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiConnector{
		client: client,
		cfg:    aiCfg,
		model:  cfg.Model,
	}, nil
}

// Name returns the connector identifier.
func (c *GeminiConnector) Name() string {
	return "gemini"
}

// GenerateAnswer sends the prompt to Gemini and returns the raw reply.
func (c *GeminiConnector) GenerateAnswer(ctx context.Context, systemPrompt, prompt string) (string, error) {
	ctxzap.Info(ctx, "generating answer via Gemini", zap.String("model", c.model))

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.cfg.Temperature)),
		MaxOutputTokens: int32(c.cfg.MaxTokens),
	}
	if systemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	content, err := c.generate(ctx, genCfg, prompt)
	if err != nil {
		return "", err
	}

	ctxzap.Info(ctx, "answer generated successfully", zap.Int("reply_length", len(content)))

	return content, nil
}

// Verify asks the model a closed yes/no style question at temperature
// zero, so repeated checks of the same answer agree.
func (c *GeminiConnector) Verify(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0)),
		MaxOutputTokens: verifyMaxTokens,
	}, prompt)
}

func (c *GeminiConnector) generate(ctx context.Context, genCfg *genai.GenerateContentConfig, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}

	return content, nil
}
