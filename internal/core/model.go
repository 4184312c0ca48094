package core

import (
	"time"
)

// LocatorKind discriminates the two ways a digest references a scan image
type LocatorKind int

const (
	// LocatorInline references an image carried inside the message itself,
	// addressed by MIME Content-ID
	LocatorInline LocatorKind = iota
	// LocatorRemote references an image hosted at an HTTP(S) URL
	LocatorRemote
)

// ImageLocator is a tagged two-case variant: exactly one of ContentID or
// URL is meaningful, selected by Kind
type ImageLocator struct {
	Kind      LocatorKind
	ContentID string
	URL       string
}

// InlineLocator builds a locator for an image embedded in the message
func InlineLocator(contentID string) ImageLocator {
	return ImageLocator{Kind: LocatorInline, ContentID: contentID}
}

// RemoteLocator builds a locator for a remotely hosted image
func RemoteLocator(url string) ImageLocator {
	return ImageLocator{Kind: LocatorRemote, URL: url}
}

// Key returns a stable identity string for the locator, used for parser
// dedup and as the fingerprint input
func (l ImageLocator) Key() string {
	if l.Kind == LocatorInline {
		return "cid:" + l.ContentID
	}
	return l.URL
}

// IsZero reports whether the locator carries no reference at all
func (l ImageLocator) IsZero() bool {
	return l.ContentID == "" && l.URL == ""
}

// RawDigestMessage is one digest email as pulled from the mailbox
type RawDigestMessage struct {
	ID       string
	HTMLBody string
}

// MailPieceCandidate is one mail-piece tile found in a digest. Empty
// strings mean the signal could not be recovered from the HTML.
type MailPieceCandidate struct {
	Locator      ImageLocator
	SenderGuess  string
	DeliveryDate string // YYYY-MM-DD
	SectionHint  string // "today", "week" or ""
}

// OcrLine is one recognized text line with its bounding box
type OcrLine struct {
	Text string
	X0   int
	Y0   int
	X1   int
	Y1   int
}

// OcrResult is the verbatim output of the recognition engine. No semantic
// filtering happens here; every recognized line is kept.
type OcrResult struct {
	RawText        string
	NormalizedText string
	Lines          []OcrLine
}

// MailInterpretation is the structured reading of a scanned mail piece.
// MailType is open vocabulary; the model labels in its own words.
type MailInterpretation struct {
	SenderName       string
	MailType         string
	ShortSummary     string
	IsImportant      bool
	ImportanceReason string
	RawModelOutput   string
}

// IngestRecord is the persisted fusion of a candidate, its fingerprint and
// whatever the OCR/LLM stages produced. At most one record exists per
// (user, fingerprint).
type IngestRecord struct {
	RecordID       string // message id plus fingerprint suffix
	UserID         string
	MessageID      string
	DeliveryDate   string
	RawSenderText  string
	Fingerprint    string
	Interpretation *MailInterpretation // nil when the LLM stage was skipped or failed
	CreatedAt      time.Time
}

// FollowUpAction records what the user decided to do about a mail piece
type FollowUpAction struct {
	UserID      string
	Fingerprint string
	Kind        string // keep | opt_out | rts
	Endpoint    string
	PayloadJSON string
	Status      string
}
