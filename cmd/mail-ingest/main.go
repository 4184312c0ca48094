package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikey/llm-mail-ingest/internal/config"
	"github.com/mikey/llm-mail-ingest/internal/core"
	"github.com/mikey/llm-mail-ingest/internal/di"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	service *core.IngestService,
	extractor core.TextExtractor,
	interpreter core.Interpreter,
	store core.Store,
) error {
	defer logger.Sync()

	ingestCfg := cfg.GetIngest()
	interval, err := time.ParseDuration(ingestCfg.Interval)
	if err != nil {
		logger.Fatal("Invalid ingest interval", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down...")
		cancel()
	}()

	runErr := ingestLoop(ctx, logger, service, ingestCfg.UserID, interval, ingestCfg.RunOnce)

	if ingestCfg.RunOnce && runErr == nil {
		printRecent(ctx, store, ingestCfg.UserID, ingestCfg.ListRecent)
	}

	// Close any resources that need closing
	if err := extractor.Close(); err != nil {
		logger.Error("Failed to close OCR engine", zap.Error(err))
	}
	if closer, ok := interpreter.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close store", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return runErr
}

// printRecent dumps the head of the ingested queue after a one-shot run
func printRecent(ctx context.Context, store core.Store, userID string, limit int) {
	if limit <= 0 {
		return
	}
	records, err := store.ListRecent(ctx, userID, limit)
	if err != nil {
		fmt.Printf("Failed to list recent records: %v\n", err)
		return
	}
	fmt.Printf("\n=== Recent mail pieces (%d) ===\n", len(records))
	for _, rec := range records {
		line := fmt.Sprintf("%s  %-10s  %s", rec.CreatedAt.Format(time.RFC3339), rec.DeliveryDate, rec.RawSenderText)
		if rec.Interpretation != nil {
			line += fmt.Sprintf("  [%s] %s", rec.Interpretation.MailType, rec.Interpretation.ShortSummary)
		}
		fmt.Println(line)
	}
}

// ingestLoop runs ingest passes until the context is cancelled. Credential
// failures end the loop; anything else waits for the next tick.
func ingestLoop(
	ctx context.Context,
	logger *zap.Logger,
	service *core.IngestService,
	userID string,
	interval time.Duration,
	runOnce bool,
) error {
	for {
		inserted, err := service.Run(ctx, userID)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("Ingest run failed", zap.Error(err))
			if core.IsAuthError(err) {
				return err
			}
		} else {
			logger.Info("Ingest pass finished", zap.Int("inserted", inserted))
		}

		if runOnce {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}
