// Package llm adapts language model providers to core.TextGenerator.
package llm

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"lyra-backend-go/internal/config"
	"lyra-backend-go/internal/core"
)

// NewGenerator builds the configured provider. It returns a nil generator and
// a no-op closer when no provider key is set; tool calls then fail with
// core.ErrGenerationFailed.
func NewGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (core.TextGenerator, io.Closer, error) {
	if !cfg.LLMConfigured() {
		logger.Warn("No language model provider configured. Tool generation will fail.")
		return nil, nopCloser{}, nil
	}

	switch cfg.LLMProvider {
	case config.LLMProviderGemini:
		g, err := NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Language model provider ready", zap.String("provider", "gemini"), zap.String("model", g.model))
		return g, g, nil
	case config.LLMProviderOpenAI, "":
		g, err := NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Language model provider ready", zap.String("provider", "openai"), zap.String("model", g.model))
		return g, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
