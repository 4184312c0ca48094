// Package openai implements the Interpreter port using OpenAI
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikey/llm-mail-ingest/internal/core"
	"github.com/mikey/llm-mail-ingest/internal/llm"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIInterpreter is an implementation of the Interpreter interface
// using OpenAI chat completions
type OpenAIInterpreter struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewOpenAIInterpreter creates a new OpenAI interpreter
func NewOpenAIInterpreter(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *OpenAIInterpreter {
	return &OpenAIInterpreter{
		client:      openai.NewClient(apiKey),
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Interpret sends the OCR result to OpenAI and recovers a structured
// interpretation from whatever comes back
func (c *OpenAIInterpreter) Interpret(ctx context.Context, ocr *core.OcrResult) (*core.MailInterpretation, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You analyze OCR text of physical mail. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: llm.BuildPrompt(ocr),
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, wrapAuth(fmt.Errorf("failed to create chat completion with OpenAI: %w", err))
	}

	responseText := ""
	if len(resp.Choices) > 0 {
		responseText = resp.Choices[0].Message.Content
	}

	result := llm.RecoverInterpretation(responseText)
	c.logger.Debug("OpenAI interpretation complete",
		zap.String("model", c.modelName),
		zap.String("mail_type", result.MailType),
		zap.Bool("is_important", result.IsImportant))
	return result, nil
}

// wrapAuth maps credential rejections onto ErrLLMAuth
func wrapAuth(err error) error {
	var aerr *openai.APIError
	if errors.As(err, &aerr) && (aerr.HTTPStatusCode == 401 || aerr.HTTPStatusCode == 403) {
		return fmt.Errorf("%w: %v", core.ErrLLMAuth, err)
	}
	return err
}
