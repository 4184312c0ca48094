package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// IngestService orchestrates one batch pull: fetch digests, parse tiles,
// fingerprint, dedup, resolve image, OCR, interpret, persist. Processing is
// strictly sequential; OCR and LLM calls dominate cost and are externally
// rate limited, so nothing fans out.
type IngestService struct {
	mailbox     Mailbox
	store       Store
	parser      TileParser
	resolver    ImageResolver
	extractor   TextExtractor
	interpreter Interpreter // nil disables the interpretation stage
	logger      *zap.Logger
	query       string
	maxResults  int
}

// NewIngestService creates a new ingest orchestrator
func NewIngestService(
	mailbox Mailbox,
	store Store,
	parser TileParser,
	resolver ImageResolver,
	extractor TextExtractor,
	interpreter Interpreter,
	logger *zap.Logger,
	query string,
	maxResults int,
) *IngestService {
	return &IngestService{
		mailbox:     mailbox,
		store:       store,
		parser:      parser,
		resolver:    resolver,
		extractor:   extractor,
		interpreter: interpreter,
		logger:      logger,
		query:       query,
		maxResults:  maxResults,
	}
}

// Run ingests all matching digest messages for the user and returns the
// number of newly persisted records. Per-tile stage failures degrade to
// null fields and are observable only through logs; a mailbox credential
// failure aborts the run with ErrMailboxAuth.
func (s *IngestService) Run(ctx context.Context, userID string) (int, error) {
	refs, err := s.mailbox.List(ctx, s.query, s.maxResults)
	if err != nil {
		return 0, fmt.Errorf("failed to list digest messages: %w", err)
	}

	s.logger.Info("Starting ingest run",
		zap.String("user", userID),
		zap.Int("messages", len(refs)))

	inserted := 0
	for _, ref := range refs {
		n, err := s.ingestMessage(ctx, userID, ref.ID)
		if err != nil {
			if errors.Is(err, ErrMailboxAuth) || errors.Is(err, ErrLLMAuth) {
				return inserted, err
			}
			// Message-level trouble is isolated; remaining digests still run
			s.logger.Error("Failed to ingest message",
				zap.String("message_id", ref.ID),
				zap.Error(err))
			continue
		}
		inserted += n
	}

	s.logger.Info("Ingest run complete",
		zap.String("user", userID),
		zap.Int("inserted", inserted))

	return inserted, nil
}

// ingestMessage processes every tile of one digest message
func (s *IngestService) ingestMessage(ctx context.Context, userID, messageID string) (int, error) {
	html, err := s.mailbox.GetHTML(ctx, messageID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch message %s: %w", messageID, err)
	}
	if html == "" {
		s.logger.Debug("Message has no HTML body", zap.String("message_id", messageID))
		return 0, nil
	}

	tiles := s.parser.Parse(html)
	s.logger.Debug("Parsed digest tiles",
		zap.String("message_id", messageID),
		zap.Int("tiles", len(tiles)))

	inserted := 0
	for _, tile := range tiles {
		// Fingerprint before any expensive work so duplicates short-circuit
		// ahead of image fetch, OCR and LLM cost
		fp := Fingerprint(tile.Locator.Key(), tile.DeliveryDate)

		exists, err := s.store.ExistsByFingerprint(ctx, userID, fp)
		if err != nil {
			s.logger.Error("Dedup lookup failed, skipping tile",
				zap.String("fingerprint", fp),
				zap.Error(err))
			continue
		}
		if exists {
			s.logger.Debug("Skipping already-ingested mail piece",
				zap.String("fingerprint", fp),
				zap.String("locator", tile.Locator.Key()))
			continue
		}

		rec := &IngestRecord{
			RecordID:      RecordID(messageID, fp),
			UserID:        userID,
			MessageID:     messageID,
			DeliveryDate:  tile.DeliveryDate,
			RawSenderText: tile.SenderGuess,
			Fingerprint:   fp,
			CreatedAt:     time.Now(),
		}

		interp, err := s.interpretTile(ctx, tile, messageID, fp)
		if err != nil {
			// Only credential failures propagate; everything else already
			// degraded to a nil interpretation inside interpretTile
			return inserted, err
		}
		rec.Interpretation = interp

		if err := s.store.Insert(ctx, rec); err != nil {
			if errors.Is(err, ErrDuplicate) {
				// Lost a race with a concurrent run; the piece is persisted
				// either way
				s.logger.Debug("Record already persisted",
					zap.String("fingerprint", fp))
				continue
			}
			s.logger.Error("Failed to persist record",
				zap.String("fingerprint", fp),
				zap.Error(err))
			continue
		}
		inserted++
	}

	return inserted, nil
}

// interpretTile runs the resolve → OCR → interpret tail of the pipeline.
// Each stage is failure-isolated: a miss returns a nil interpretation and
// the tile is persisted with whatever the parser recovered. The only error
// returned is a fatal credential failure.
func (s *IngestService) interpretTile(ctx context.Context, tile MailPieceCandidate, messageID, fp string) (*MailInterpretation, error) {
	image, err := s.resolver.Resolve(ctx, tile.Locator, messageID)
	if err != nil {
		if errors.Is(err, ErrMailboxAuth) {
			return nil, err
		}
		s.logger.Warn("Image resolution failed",
			zap.String("stage", "resolve"),
			zap.String("locator", tile.Locator.Key()),
			zap.String("fingerprint", fp),
			zap.Error(err))
		return nil, nil
	}
	if image == nil {
		s.logger.Warn("Image unavailable",
			zap.String("stage", "resolve"),
			zap.String("locator", tile.Locator.Key()),
			zap.String("fingerprint", fp))
		return nil, nil
	}

	ocr, err := s.extractor.Extract(ctx, image)
	if err != nil {
		s.logger.Warn("Text extraction failed",
			zap.String("stage", "ocr"),
			zap.String("locator", tile.Locator.Key()),
			zap.String("fingerprint", fp),
			zap.Error(err))
		return nil, nil
	}

	if s.interpreter == nil {
		return nil, nil
	}

	interp, err := s.interpreter.Interpret(ctx, ocr)
	if err != nil {
		if errors.Is(err, ErrLLMAuth) {
			return nil, err
		}
		s.logger.Warn("Interpretation failed",
			zap.String("stage", "interpret"),
			zap.String("locator", tile.Locator.Key()),
			zap.String("fingerprint", fp),
			zap.Error(err))
		return nil, nil
	}

	return interp, nil
}
