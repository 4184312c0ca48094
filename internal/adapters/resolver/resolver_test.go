package resolver

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mikey/llm-mail-ingest/internal/core"
	"go.uber.org/zap"
)

type fakeMailbox struct {
	parts       *core.MessagePart
	partsErr    error
	attachments map[string]string
}

func (m *fakeMailbox) List(_ context.Context, _ string, _ int) ([]core.MessageRef, error) {
	return nil, nil
}

func (m *fakeMailbox) GetHTML(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (m *fakeMailbox) GetParts(_ context.Context, _ string) (*core.MessagePart, error) {
	return m.parts, m.partsErr
}

func (m *fakeMailbox) GetAttachment(_ context.Context, _, attachmentID string) (string, error) {
	return m.attachments[attachmentID], nil
}

func webSafe(data []byte) string {
	return base64.URLEncoding.EncodeToString(data)
}

func TestResolveInline_PartData(t *testing.T) {
	image := []byte("fake-jpeg-bytes")
	mailbox := &fakeMailbox{
		parts: &core.MessagePart{
			MimeType: "multipart/related",
			Parts: []*core.MessagePart{
				{MimeType: "text/html", Data: webSafe([]byte("<html/>"))},
				{MimeType: "image/jpeg", ContentID: "scan-1", Data: webSafe(image)},
			},
		},
	}

	r := New(mailbox, zap.NewNop())
	got, err := r.Resolve(context.Background(), core.InlineLocator("scan-1"), "msg-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if string(got) != string(image) {
		t.Errorf("Resolve() = %q, want %q", got, image)
	}
}

func TestResolveInline_AttachmentIndirection(t *testing.T) {
	image := []byte("externalized-bytes")
	mailbox := &fakeMailbox{
		parts: &core.MessagePart{
			Parts: []*core.MessagePart{
				{MimeType: "image/jpeg", ContentID: "scan-1", AttachmentID: "att-9"},
			},
		},
		attachments: map[string]string{"att-9": webSafe(image)},
	}

	r := New(mailbox, zap.NewNop())
	got, err := r.Resolve(context.Background(), core.InlineLocator("scan-1"), "msg-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if string(got) != string(image) {
		t.Errorf("Resolve() = %q, want %q", got, image)
	}
}

func TestResolveInline_AngleBracketsTolerated(t *testing.T) {
	image := []byte("bytes")
	mailbox := &fakeMailbox{
		parts: &core.MessagePart{
			Parts: []*core.MessagePart{
				{MimeType: "image/jpeg", ContentID: "<scan-1@mailer>", Data: webSafe(image)},
			},
		},
	}

	r := New(mailbox, zap.NewNop())
	got, err := r.Resolve(context.Background(), core.InlineLocator("scan-1"), "msg-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got == nil {
		t.Fatal("Expected a partial content-id match to resolve")
	}
}

func TestResolveInline_MissingPartIsAbsence(t *testing.T) {
	mailbox := &fakeMailbox{
		parts: &core.MessagePart{
			Parts: []*core.MessagePart{
				{MimeType: "image/jpeg", ContentID: "other", Data: webSafe([]byte("x"))},
			},
		},
	}

	r := New(mailbox, zap.NewNop())
	got, err := r.Resolve(context.Background(), core.InlineLocator("scan-1"), "msg-1")
	if err != nil {
		t.Fatalf("Expected absence, got error %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil bytes, got %d bytes", len(got))
	}
}

func TestResolveInline_AuthErrorPropagates(t *testing.T) {
	mailbox := &fakeMailbox{partsErr: core.ErrMailboxAuth}

	r := New(mailbox, zap.NewNop())
	_, err := r.Resolve(context.Background(), core.InlineLocator("scan-1"), "msg-1")
	if err == nil {
		t.Fatal("Expected auth error to propagate")
	}
}

func TestResolveRemote_Success(t *testing.T) {
	image := []byte("remote-image")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(image)
	}))
	defer server.Close()

	r := New(&fakeMailbox{}, zap.NewNop())
	got, err := r.Resolve(context.Background(), core.RemoteLocator(server.URL+"/scan.jpg"), "msg-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if string(got) != string(image) {
		t.Errorf("Resolve() = %q, want %q", got, image)
	}
}

func TestResolveRemote_NotFoundIsAbsence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	r := New(&fakeMailbox{}, zap.NewNop())
	got, err := r.Resolve(context.Background(), core.RemoteLocator(server.URL+"/gone.jpg"), "msg-1")
	if err != nil {
		t.Fatalf("Expected absence, got error %v", err)
	}
	if got != nil {
		t.Error("Expected nil bytes on 404")
	}
}

func TestDecodeTransport(t *testing.T) {
	payload := []byte{0xfb, 0xff, 0x01, 0x02, 0x03}

	cases := []string{
		base64.URLEncoding.EncodeToString(payload),
		base64.RawURLEncoding.EncodeToString(payload),
		base64.StdEncoding.EncodeToString(payload),
		base64.RawStdEncoding.EncodeToString(payload),
	}
	for _, encoded := range cases {
		got, err := decodeTransport(encoded)
		if err != nil {
			t.Errorf("decodeTransport(%q) error = %v", encoded, err)
			continue
		}
		if string(got) != string(payload) {
			t.Errorf("decodeTransport(%q) = %v, want %v", encoded, got, payload)
		}
	}
}
