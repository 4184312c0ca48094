// Package gemini implements the Interpreter port using Google Gemini
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/llm-mail-ingest/internal/core"
	"github.com/mikey/llm-mail-ingest/internal/llm"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiInterpreter is an implementation of the Interpreter interface
// using Google Gemini
type GeminiInterpreter struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    *zap.Logger
}

// NewGeminiInterpreter creates a new Gemini interpreter
func NewGeminiInterpreter(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*GeminiInterpreter, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiInterpreter{
		client:    client,
		model:     model,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiInterpreter) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Interpret sends the OCR result to Gemini and recovers a structured
// interpretation from whatever comes back
func (c *GeminiInterpreter) Interpret(ctx context.Context, ocr *core.OcrResult) (*core.MailInterpretation, error) {
	prompt := llm.BuildPrompt(ocr)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, wrapAuth(fmt.Errorf("failed to generate content with Gemini: %w", err))
	}

	responseText := ""
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		responseText = fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	}

	result := llm.RecoverInterpretation(responseText)
	c.logger.Debug("Gemini interpretation complete",
		zap.String("model", c.modelName),
		zap.String("mail_type", result.MailType),
		zap.Bool("is_important", result.IsImportant))
	return result, nil
}

// wrapAuth maps credential rejections onto ErrLLMAuth
func wrapAuth(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == 401 || gerr.Code == 403) {
		return fmt.Errorf("%w: %v", core.ErrLLMAuth, err)
	}
	return err
}
