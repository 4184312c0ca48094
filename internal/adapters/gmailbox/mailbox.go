// Package gmailbox implements the Mailbox port against the Gmail API
package gmailbox

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/llm-mail-ingest/internal/config"
	"github.com/mikey/llm-mail-ingest/internal/core"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GmailMailbox is an implementation of the Mailbox interface using the
// Gmail API. All calls act on the authenticated user ("me").
type GmailMailbox struct {
	service *gmail.Service
	logger  *zap.Logger
}

// NewGmailMailbox creates a Gmail-backed mailbox from an OAuth2 token pair
func NewGmailMailbox(ctx context.Context, cfg config.GmailConfig, logger *zap.Logger) (*GmailMailbox, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("gmail client credentials not configured: %w", core.ErrMailboxAuth)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
	token := &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
	}

	client := oauth2.NewClient(ctx, oauthCfg.TokenSource(ctx, token))
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailMailbox{
		service: service,
		logger:  logger,
	}, nil
}

// List returns references to messages matching the query, newest first
func (m *GmailMailbox) List(ctx context.Context, query string, maxResults int) ([]core.MessageRef, error) {
	call := m.service.Users.Messages.List("me").Q(query).Context(ctx)
	if maxResults > 0 {
		call = call.MaxResults(int64(maxResults))
	}

	resp, err := call.Do()
	if err != nil {
		return nil, wrapAuth(fmt.Errorf("failed to list messages: %w", err))
	}

	refs := make([]core.MessageRef, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		refs = append(refs, core.MessageRef{ID: msg.Id})
	}
	m.logger.Debug("Listed digest messages",
		zap.String("query", query),
		zap.Int("count", len(refs)))
	return refs, nil
}

// GetHTML returns the decoded text/html body of a message
func (m *GmailMailbox) GetHTML(ctx context.Context, id string) (string, error) {
	msg, err := m.service.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return "", wrapAuth(fmt.Errorf("failed to get message %s: %w", id, err))
	}
	if msg.Payload == nil {
		return "", nil
	}

	encoded := findHTMLBody(msg.Payload)
	if encoded == "" {
		return "", nil
	}
	decoded, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		// Some senders omit padding
		decoded, err = base64.RawURLEncoding.DecodeString(encoded)
		if err != nil {
			return "", fmt.Errorf("failed to decode html body of %s: %w", id, err)
		}
	}
	return string(decoded), nil
}

// GetParts returns the message's MIME tree with bodies still
// transport-encoded
func (m *GmailMailbox) GetParts(ctx context.Context, id string) (*core.MessagePart, error) {
	msg, err := m.service.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, wrapAuth(fmt.Errorf("failed to get message %s: %w", id, err))
	}
	if msg.Payload == nil {
		return nil, nil
	}
	return convertPart(msg.Payload), nil
}

// GetAttachment returns the transport-encoded bytes of an externalized part
func (m *GmailMailbox) GetAttachment(ctx context.Context, messageID, attachmentID string) (string, error) {
	att, err := m.service.Users.Messages.Attachments.Get("me", messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return "", wrapAuth(fmt.Errorf("failed to get attachment %s of %s: %w", attachmentID, messageID, err))
	}
	return att.Data, nil
}

// findHTMLBody walks the part tree for the first text/html body
func findHTMLBody(part *gmail.MessagePart) string {
	if part.MimeType == "text/html" && part.Body != nil && part.Body.Data != "" {
		return part.Body.Data
	}
	for _, child := range part.Parts {
		if body := findHTMLBody(child); body != "" {
			return body
		}
	}
	return ""
}

// convertPart maps the Gmail part tree onto the transport-neutral shape
func convertPart(part *gmail.MessagePart) *core.MessagePart {
	out := &core.MessagePart{
		MimeType:  part.MimeType,
		Filename:  part.Filename,
		ContentID: contentID(part),
	}
	if part.Body != nil {
		out.AttachmentID = part.Body.AttachmentId
		out.Data = part.Body.Data
	}
	for _, child := range part.Parts {
		out.Parts = append(out.Parts, convertPart(child))
	}
	return out
}

// contentID extracts the Content-ID header with its angle brackets stripped
func contentID(part *gmail.MessagePart) string {
	for _, header := range part.Headers {
		if strings.EqualFold(header.Name, "Content-ID") || strings.EqualFold(header.Name, "X-Attachment-Id") {
			if id := strings.Trim(header.Value, "<>"); id != "" {
				return id
			}
		}
	}
	return ""
}

// wrapAuth maps credential rejections onto ErrMailboxAuth so the ingest
// loop can abort instead of grinding through every message
func wrapAuth(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == 401 || gerr.Code == 403) {
		return fmt.Errorf("%w: %v", core.ErrMailboxAuth, err)
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: %v", core.ErrMailboxAuth, err)
	}
	return err
}
