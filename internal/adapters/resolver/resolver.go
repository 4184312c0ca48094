// Package resolver turns image locators into raw image bytes, fetching
// inline parts from the mailbox and remote images over HTTP.
package resolver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mikey/llm-mail-ingest/internal/core"
	"go.uber.org/zap"
)

// How deep the MIME tree search will recurse
const maxPartDepth = 10

// Remote scans can be several hundred KB; anything past this is not a scan
const maxRemoteBytes = 16 << 20

// ImageResolver fetches the image bytes a locator points to. Unavailable
// images come back as (nil, nil); only transport-level faults that should
// stop the run surface as errors.
type ImageResolver struct {
	mailbox    core.Mailbox
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a new image resolver over the given mailbox
func New(mailbox core.Mailbox, logger *zap.Logger) *ImageResolver {
	return &ImageResolver{
		mailbox: mailbox,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Resolve dispatches on the locator kind
func (r *ImageResolver) Resolve(ctx context.Context, locator core.ImageLocator, messageID string) ([]byte, error) {
	switch locator.Kind {
	case core.LocatorInline:
		return r.resolveInline(ctx, locator.ContentID, messageID)
	case core.LocatorRemote:
		return r.resolveRemote(ctx, locator.URL)
	default:
		return nil, fmt.Errorf("unknown locator kind %d", locator.Kind)
	}
}

// resolveInline finds the MIME part carrying the Content-ID and decodes
// its body, following the attachment indirection when the body is
// externalized
func (r *ImageResolver) resolveInline(ctx context.Context, contentID, messageID string) ([]byte, error) {
	root, err := r.mailbox.GetParts(ctx, messageID)
	if err != nil {
		if errors.Is(err, core.ErrMailboxAuth) {
			return nil, err
		}
		r.logger.Warn("Failed to fetch message parts",
			zap.String("message_id", messageID),
			zap.Error(err))
		return nil, nil
	}
	if root == nil {
		return nil, nil
	}

	part := findPartByContentID(root, strings.Trim(contentID, "<>"), 0)
	if part == nil {
		r.logger.Warn("No MIME part matches content id",
			zap.String("message_id", messageID),
			zap.String("content_id", contentID))
		return nil, nil
	}

	encoded := part.Data
	if encoded == "" && part.AttachmentID != "" {
		encoded, err = r.mailbox.GetAttachment(ctx, messageID, part.AttachmentID)
		if err != nil {
			if errors.Is(err, core.ErrMailboxAuth) {
				return nil, err
			}
			r.logger.Warn("Failed to fetch attachment",
				zap.String("message_id", messageID),
				zap.String("attachment_id", part.AttachmentID),
				zap.Error(err))
			return nil, nil
		}
	}
	if encoded == "" {
		return nil, nil
	}

	data, err := decodeTransport(encoded)
	if err != nil {
		r.logger.Warn("Failed to decode image part",
			zap.String("message_id", messageID),
			zap.String("content_id", contentID),
			zap.Error(err))
		return nil, nil
	}
	return data, nil
}

// resolveRemote fetches a remotely hosted image once, with no retries.
// Missing or refused images are absence, not failure.
func (r *ImageResolver) resolveRemote(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.logger.Warn("Invalid remote image URL", zap.String("url", url), zap.Error(err))
		return nil, nil
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("Remote image fetch failed", zap.String("url", url), zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Warn("Remote image fetch returned non-success",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBytes))
	if err != nil {
		r.logger.Warn("Remote image read failed", zap.String("url", url), zap.Error(err))
		return nil, nil
	}
	return data, nil
}

// findPartByContentID searches the tree depth-first for an exact match,
// tolerating partial ids since some generators suffix the Content-ID
func findPartByContentID(part *core.MessagePart, contentID string, depth int) *core.MessagePart {
	if depth > maxPartDepth || part == nil || contentID == "" {
		return nil
	}
	id := strings.Trim(part.ContentID, "<>")
	if id == contentID || (id != "" && strings.Contains(id, contentID)) {
		return part
	}
	for _, child := range part.Parts {
		if found := findPartByContentID(child, contentID, depth+1); found != nil {
			return found
		}
	}
	return nil
}

// decodeTransport decodes web-safe base64 body data, tolerating the
// standard alphabet and missing padding
func decodeTransport(encoded string) ([]byte, error) {
	normalized := strings.NewReplacer("-", "+", "_", "/").Replace(encoded)
	if pad := len(normalized) % 4; pad != 0 {
		normalized += strings.Repeat("=", 4-pad)
	}
	return base64.StdEncoding.DecodeString(normalized)
}
