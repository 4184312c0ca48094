package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mikey/llm-mail-ingest/internal/adapters/ocr"
	"github.com/mikey/llm-mail-ingest/internal/config"
	"github.com/mikey/llm-mail-ingest/internal/core"
	"github.com/mikey/llm-mail-ingest/internal/factory"
	"github.com/mikey/llm-mail-ingest/internal/logging"
	"github.com/mikey/llm-mail-ingest/internal/parser"
	"go.uber.org/zap"
)

var (
	// Input flags
	htmlFile  = flag.String("html", "", "Digest HTML file to parse for mail-piece tiles")
	imageFile = flag.String("image", "", "Mail-piece image file to run OCR over")
	interpret = flag.Bool("interpret", false, "Send the OCR result to the configured LLM")

	// Follow-up action flags
	action      = flag.String("action", "", "Record a follow-up action for a mail piece (keep, opt_out, rts)")
	fingerprint = flag.String("fingerprint", "", "Fingerprint of the mail piece the action applies to")
	userID      = flag.String("user", "", "User the action belongs to")
	payload     = flag.String("payload", "", "Optional JSON payload for the action")

	// Store flags
	storeType  = flag.String("store", "sqlite", "Store backend (sqlite, mysql, memory)")
	sqlitePath = flag.String("sqlite-path", "/data/mail_ingest.db", "SQLite database path")
	mysqlDSN   = flag.String("mysql-dsn", "", "MySQL DSN")

	// LLM provider flags
	provider    = flag.String("provider", "gemini", "LLM provider (gemini, openai, bedrock, none)")
	maxTokens   = flag.Int("max-tokens", 600, "Maximum tokens for LLM response")
	temperature = flag.Float64("temperature", 0.15, "Temperature for LLM generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for LLM generation")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-2.5-flash", "Gemini model name")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4o-mini", "OpenAI model name")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// OCR flags
	ocrLanguage   = flag.String("ocr-language", "eng", "Tesseract language")
	ocrPSM        = flag.Int("ocr-psm", 3, "Tesseract page segmentation mode")
	ocrPreprocess = flag.Bool("ocr-preprocess", true, "Preprocess images before OCR")

	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *htmlFile == "" && *imageFile == "" && *action == "" {
		fmt.Println("Nothing to do: pass -html, -image and/or -action")
		flag.Usage()
		os.Exit(1)
	}

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	if *htmlFile != "" {
		inspectHTML(cfg, logger)
	}
	if *imageFile != "" {
		inspectImage(cfg, logger)
	}
	if *action != "" {
		recordAction(cfg, logger)
	}
}

// recordAction persists a keep/opt-out/return-to-sender decision for an
// already-ingested mail piece
func recordAction(cfg *config.Config, logger *zap.Logger) {
	switch *action {
	case "keep", "opt_out", "rts":
	default:
		logger.Fatal("Unknown action kind", zap.String("action", *action))
	}
	if *fingerprint == "" {
		logger.Fatal("An action needs a -fingerprint")
	}

	st, err := factory.NewStoreFactory(cfg, logger).CreateStore()
	if err != nil {
		logger.Fatal("Failed to create store", zap.Error(err))
	}
	defer func() {
		if closer, ok := st.(interface{ Close() error }); ok {
			closer.Close()
		}
	}()

	followUp := &core.FollowUpAction{
		UserID:      *userID,
		Fingerprint: *fingerprint,
		Kind:        *action,
		PayloadJSON: *payload,
		Status:      "pending",
	}
	if *action == "opt_out" {
		followUp.Endpoint = "web_form"
	}

	if err := st.RecordAction(context.Background(), followUp); err != nil {
		logger.Fatal("Failed to record action", zap.Error(err))
	}
	fmt.Printf("Recorded %s action for %s\n", *action, *fingerprint)
}

// inspectHTML parses a digest HTML file and prints every tile found
func inspectHTML(cfg *config.Config, logger *zap.Logger) {
	html, err := os.ReadFile(*htmlFile)
	if err != nil {
		logger.Fatal("Failed to read HTML file", zap.Error(err), zap.String("file", *htmlFile))
	}

	tiles := parser.New(cfg.GetParser(), logger).Parse(string(html))

	fmt.Printf("\n=== Tiles (%d) ===\n", len(tiles))
	for i, tile := range tiles {
		fmt.Printf("[%d] locator:  %s\n", i, tile.Locator.Key())
		fmt.Printf("    sender:   %q\n", tile.SenderGuess)
		fmt.Printf("    date:     %s\n", tile.DeliveryDate)
		fmt.Printf("    section:  %s\n", tile.SectionHint)
	}
}

// inspectImage runs OCR over an image file and optionally interprets it
func inspectImage(cfg *config.Config, logger *zap.Logger) {
	image, err := os.ReadFile(*imageFile)
	if err != nil {
		logger.Fatal("Failed to read image file", zap.Error(err), zap.String("file", *imageFile))
	}

	engine := ocr.NewEngine(cfg.GetOCR(), logger)
	defer engine.Close()

	startTime := time.Now()
	result, err := engine.Extract(context.Background(), image)
	if err != nil {
		logger.Fatal("OCR failed", zap.Error(err))
	}

	fmt.Printf("\n=== OCR (%v) ===\n", time.Since(startTime))
	fmt.Printf("Normalized text: %s\n", result.NormalizedText)
	fmt.Printf("Lines: %d\n", len(result.Lines))
	for _, line := range result.Lines {
		fmt.Printf("  [%d,%d %d,%d] %s\n", line.X0, line.Y0, line.X1, line.Y1, line.Text)
	}

	if !*interpret {
		return
	}

	interpreter, err := factory.NewLLMFactory(cfg, logger).CreateInterpreter()
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	if interpreter == nil {
		fmt.Println("\nInterpretation disabled (provider none)")
		return
	}
	defer func() {
		if closer, ok := interpreter.(interface{ Close() error }); ok {
			closer.Close()
		}
	}()

	startTime = time.Now()
	interp, err := interpreter.Interpret(context.Background(), result)
	if err != nil {
		logger.Fatal("Interpretation failed", zap.Error(err))
	}

	fmt.Printf("\n=== Interpretation (%v) ===\n", time.Since(startTime))
	fmt.Printf("Sender:    %s\n", interp.SenderName)
	fmt.Printf("Type:      %s\n", interp.MailType)
	fmt.Printf("Summary:   %s\n", interp.ShortSummary)
	fmt.Printf("Important: %t\n", interp.IsImportant)
	fmt.Printf("Reason:    %s\n", interp.ImportanceReason)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	// Set LLM provider
	v.Set("llm.provider", *provider)

	// Set provider-specific configuration
	switch *provider {
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
	}

	// Set OCR configuration
	v.Set("ocr.language", *ocrLanguage)
	v.Set("ocr.page_seg_mode", *ocrPSM)
	v.Set("ocr.preprocess", *ocrPreprocess)

	// Set store configuration
	v.Set("store.type", *storeType)
	v.Set("store.sqlite_path", *sqlitePath)
	v.Set("store.mysql_dsn", *mysqlDSN)

	return config.NewFromViper(v)
}
