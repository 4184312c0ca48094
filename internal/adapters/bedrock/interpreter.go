// Package bedrock implements the Interpreter port using Amazon Bedrock
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-mail-ingest/internal/config"
	"github.com/mikey/llm-mail-ingest/internal/core"
	"github.com/mikey/llm-mail-ingest/internal/llm"
	"go.uber.org/zap"
)

// BedrockInterpreter is an implementation of the Interpreter interface
// using Amazon Bedrock
type BedrockInterpreter struct {
	client      *bedrockruntime.Client
	modelID     string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewBedrockInterpreter creates a new Bedrock interpreter, loading AWS
// credentials from the default chain
func NewBedrockInterpreter(cfg config.BedrockConfig, logger *zap.Logger) (*BedrockInterpreter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &BedrockInterpreter{
		client:      bedrockruntime.NewFromConfig(awsCfg),
		modelID:     cfg.ModelID,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		logger:      logger,
	}, nil
}

// Interpret sends the OCR result to Bedrock and recovers a structured
// interpretation from whatever comes back
func (c *BedrockInterpreter) Interpret(ctx context.Context, ocr *core.OcrResult) (*core.MailInterpretation, error) {
	prompt := llm.BuildPrompt(ocr)

	var payload []byte
	var err error
	if c.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	} else if c.isAmazonTitanModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, wrapAuth(fmt.Errorf("failed to invoke Bedrock model: %w", err))
	}

	result := llm.RecoverInterpretation(c.responseText(resp.Body))
	c.logger.Debug("Bedrock interpretation complete",
		zap.String("model", c.modelID),
		zap.String("mail_type", result.MailType),
		zap.Bool("is_important", result.IsImportant))
	return result, nil
}

// responseText extracts the model's text output from the provider-shaped
// response body
func (c *BedrockInterpreter) responseText(body []byte) string {
	if c.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err == nil && claudeResp.Completion != "" {
			return claudeResp.Completion
		}
	}
	if c.isAmazonTitanModel() {
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err == nil && len(titanResp.Results) > 0 {
			return titanResp.Results[0].OutputText
		}
	}

	var genericResp struct {
		Output   string `json:"output"`
		Text     string `json:"text"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &genericResp); err == nil {
		switch {
		case genericResp.Output != "":
			return genericResp.Output
		case genericResp.Text != "":
			return genericResp.Text
		case genericResp.Response != "":
			return genericResp.Response
		}
	}
	return string(body)
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *BedrockInterpreter) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *BedrockInterpreter) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}

// wrapAuth maps credential rejections onto ErrLLMAuth. The SDK surfaces
// these as typed service errors whose messages carry stable codes.
func wrapAuth(err error) error {
	msg := err.Error()
	for _, marker := range []string{"AccessDenied", "UnrecognizedClient", "ExpiredToken", "InvalidSignature"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", core.ErrLLMAuth, err)
		}
	}
	return err
}
