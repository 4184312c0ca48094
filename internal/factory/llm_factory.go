package factory

import (
	"fmt"

	"github.com/mikey/llm-mail-ingest/internal/adapters/bedrock"
	"github.com/mikey/llm-mail-ingest/internal/adapters/gemini"
	"github.com/mikey/llm-mail-ingest/internal/adapters/openai"
	"github.com/mikey/llm-mail-ingest/internal/config"
	"github.com/mikey/llm-mail-ingest/internal/core"
	"go.uber.org/zap"
)

// LLMFactory creates interpreter clients
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateInterpreter creates an interpreter based on the configuration. The
// "none" provider returns (nil, nil) and disables interpretation.
func (f *LLMFactory) CreateInterpreter() (core.Interpreter, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "none", "":
		f.logger.Info("LLM interpretation disabled")
		return nil, nil
	case "gemini":
		cfg := f.cfg.GetGemini()
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini: %w", core.ErrMissingAPIKey)
		}
		return gemini.NewGeminiInterpreter(cfg.APIKey, cfg.ModelName, cfg.MaxTokens,
			cfg.Temperature, cfg.TopP, f.logger)
	case "openai":
		cfg := f.cfg.GetOpenAI()
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai: %w", core.ErrMissingAPIKey)
		}
		return openai.NewOpenAIInterpreter(cfg.APIKey, cfg.ModelName, cfg.MaxTokens,
			cfg.Temperature, cfg.TopP, f.logger), nil
	case "bedrock":
		return bedrock.NewBedrockInterpreter(f.cfg.GetBedrock(), f.logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}
