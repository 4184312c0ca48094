package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-ingest/internal/adapters/gmailbox"
	"github.com/mikey/llm-mail-ingest/internal/adapters/ocr"
	"github.com/mikey/llm-mail-ingest/internal/adapters/resolver"
	"github.com/mikey/llm-mail-ingest/internal/config"
	"github.com/mikey/llm-mail-ingest/internal/core"
	"github.com/mikey/llm-mail-ingest/internal/factory"
	"github.com/mikey/llm-mail-ingest/internal/logging"
	"github.com/mikey/llm-mail-ingest/internal/parser"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}

	// Register mailbox
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.Mailbox, error) {
		return gmailbox.NewGmailMailbox(context.Background(), cfg.GetGmail(), logger)
	}); err != nil {
		return nil, err
	}

	// Register tile parser
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.TileParser {
		return parser.New(cfg.GetParser(), logger)
	}); err != nil {
		return nil, err
	}

	// Register image resolver
	if err := container.Provide(func(mailbox core.Mailbox, logger *zap.Logger) core.ImageResolver {
		return resolver.New(mailbox, logger)
	}); err != nil {
		return nil, err
	}

	// Register OCR engine
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.TextExtractor {
		return ocr.NewEngine(cfg.GetOCR(), logger)
	}); err != nil {
		return nil, err
	}

	// Register interpreter
	if err := container.Provide(func(f *factory.LLMFactory) (core.Interpreter, error) {
		return f.CreateInterpreter()
	}); err != nil {
		return nil, err
	}

	// Register store
	if err := container.Provide(func(f *factory.StoreFactory) (core.Store, error) {
		return f.CreateStore()
	}); err != nil {
		return nil, err
	}

	// Register ingest service
	if err := container.Provide(func(
		mailbox core.Mailbox,
		store core.Store,
		tileParser core.TileParser,
		imageResolver core.ImageResolver,
		extractor core.TextExtractor,
		interpreter core.Interpreter,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.IngestService {
		gmailCfg := cfg.GetGmail()
		return core.NewIngestService(mailbox, store, tileParser, imageResolver,
			extractor, interpreter, logger, gmailCfg.Query, gmailCfg.MaxResults)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
