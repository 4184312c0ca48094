package core

import (
	"context"
	"errors"
)

var (
	// ErrMailboxAuth marks mailbox credential failures. It aborts a whole
	// ingest run so the caller can request re-authentication.
	ErrMailboxAuth = errors.New("mailbox authentication failed")

	// ErrLLMAuth marks a rejected or expired LLM credential. Unlike a
	// malformed model response it is not recoverable per tile.
	ErrLLMAuth = errors.New("llm credential rejected")

	// ErrMissingAPIKey is returned when an interpreter is configured but no
	// credential is present
	ErrMissingAPIKey = errors.New("llm api key not configured")

	// ErrDuplicate is returned by Store.Insert when a record with the same
	// (user, fingerprint) already exists
	ErrDuplicate = errors.New("record already exists")
)

// IsAuthError reports whether err is one of the fatal credential failures
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMailboxAuth) || errors.Is(err, ErrLLMAuth)
}

// MessageRef identifies one message in the mailbox
type MessageRef struct {
	ID string
}

// MessagePart is one node of a message's MIME tree. Data holds the
// transport-encoded (web-safe base64) payload when the part carries its
// body inline; larger bodies are externalized behind AttachmentID.
type MessagePart struct {
	MimeType     string
	Filename     string
	ContentID    string
	AttachmentID string
	Data         string
	Parts        []*MessagePart
}

// Mailbox lists and fetches digest messages
type Mailbox interface {
	// List returns message references matching the query, newest first
	List(ctx context.Context, query string, maxResults int) ([]MessageRef, error)

	// GetHTML returns the decoded text/html body of a message, or "" when
	// the message has none
	GetHTML(ctx context.Context, id string) (string, error)

	// GetParts returns the full MIME part tree of a message with bodies
	// still transport-encoded
	GetParts(ctx context.Context, id string) (*MessagePart, error)

	// GetAttachment returns the transport-encoded bytes of an
	// externalized part
	GetAttachment(ctx context.Context, messageID, attachmentID string) (string, error)
}

// TileParser extracts mail-piece candidates from digest HTML
type TileParser interface {
	Parse(html string) []MailPieceCandidate
}

// ImageResolver turns a locator into raw image bytes. A (nil, nil) return
// means the image is unavailable but the run can continue; an error is a
// fatal transport failure.
type ImageResolver interface {
	Resolve(ctx context.Context, locator ImageLocator, messageID string) ([]byte, error)
}

// TextExtractor runs recognition over raw image bytes
type TextExtractor interface {
	Extract(ctx context.Context, image []byte) (*OcrResult, error)

	// Close releases the underlying engine
	Close() error
}

// Interpreter turns an OCR result into a structured interpretation.
// Malformed model output is recovered internally and never surfaces as an
// error; errors are reserved for transport and credential failures.
type Interpreter interface {
	Interpret(ctx context.Context, ocr *OcrResult) (*MailInterpretation, error)
}

// Store persists ingest records and enforces (user, fingerprint) uniqueness
type Store interface {
	// ExistsByFingerprint reports whether a record for this fingerprint is
	// already persisted for the user
	ExistsByFingerprint(ctx context.Context, userID, fingerprint string) (bool, error)

	// Insert persists a record, returning ErrDuplicate on a uniqueness
	// conflict
	Insert(ctx context.Context, rec *IngestRecord) error

	// ListRecent returns the user's most recently ingested records
	ListRecent(ctx context.Context, userID string, limit int) ([]*IngestRecord, error)

	// RecordAction persists a follow-up decision for a mail piece
	RecordAction(ctx context.Context, action *FollowUpAction) error
}
