package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mikey/llm-mail-ingest/internal/adapters/store"
	"github.com/mikey/llm-mail-ingest/internal/core"
	"go.uber.org/zap"
)

type fakeMailbox struct {
	messages map[string]string
	listErr  error
	htmlErr  error
}

func (m *fakeMailbox) List(_ context.Context, _ string, _ int) ([]core.MessageRef, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var refs []core.MessageRef
	for id := range m.messages {
		refs = append(refs, core.MessageRef{ID: id})
	}
	return refs, nil
}

func (m *fakeMailbox) GetHTML(_ context.Context, id string) (string, error) {
	if m.htmlErr != nil {
		return "", m.htmlErr
	}
	return m.messages[id], nil
}

func (m *fakeMailbox) GetParts(_ context.Context, _ string) (*core.MessagePart, error) {
	return nil, nil
}

func (m *fakeMailbox) GetAttachment(_ context.Context, _, _ string) (string, error) {
	return "", nil
}

type fakeParser struct {
	tiles []core.MailPieceCandidate
}

func (p *fakeParser) Parse(_ string) []core.MailPieceCandidate {
	return p.tiles
}

type fakeResolver struct {
	image []byte
	err   error
	calls int
}

func (r *fakeResolver) Resolve(_ context.Context, _ core.ImageLocator, _ string) ([]byte, error) {
	r.calls++
	return r.image, r.err
}

type fakeExtractor struct {
	result *core.OcrResult
	err    error
}

func (e *fakeExtractor) Extract(_ context.Context, _ []byte) (*core.OcrResult, error) {
	return e.result, e.err
}

func (e *fakeExtractor) Close() error { return nil }

type fakeInterpreter struct {
	result *core.MailInterpretation
	err    error
}

func (i *fakeInterpreter) Interpret(_ context.Context, _ *core.OcrResult) (*core.MailInterpretation, error) {
	return i.result, i.err
}

func tile(cid, date string) core.MailPieceCandidate {
	return core.MailPieceCandidate{
		Locator:      core.InlineLocator(cid),
		SenderGuess:  "Acme Corp",
		DeliveryDate: date,
		SectionHint:  "today",
	}
}

func newService(mailbox core.Mailbox, st core.Store, parser core.TileParser, resolver core.ImageResolver, extractor core.TextExtractor, interp core.Interpreter) *core.IngestService {
	return core.NewIngestService(mailbox, st, parser, resolver, extractor, interp,
		zap.NewNop(), "test-query", 10)
}

func TestRun_InsertsAndIsIdempotent(t *testing.T) {
	mailbox := &fakeMailbox{messages: map[string]string{"msg-1": "<html/>"}}
	parser := &fakeParser{tiles: []core.MailPieceCandidate{
		tile("scan-1", "2025-11-15"),
		tile("scan-2", "2025-11-15"),
	}}
	resolver := &fakeResolver{image: []byte("png")}
	extractor := &fakeExtractor{result: &core.OcrResult{RawText: "ACME"}}
	interp := &fakeInterpreter{result: &core.MailInterpretation{MailType: "advertising flyer"}}
	st := store.NewMemoryStore()

	svc := newService(mailbox, st, parser, resolver, extractor, interp)

	inserted, err := svc.Run(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if inserted != 2 {
		t.Errorf("Expected 2 inserted records, got %d", inserted)
	}

	// Second run over the same digest must not insert anything
	inserted, err = svc.Run(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected idempotent second run, got %d inserts", inserted)
	}

	records, err := st.ListRecent(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 persisted records, got %d", len(records))
	}
}

func TestRun_DedupShortCircuitsExpensiveStages(t *testing.T) {
	mailbox := &fakeMailbox{messages: map[string]string{"msg-1": "<html/>"}}
	parser := &fakeParser{tiles: []core.MailPieceCandidate{tile("scan-1", "2025-11-15")}}
	resolver := &fakeResolver{image: []byte("png")}
	extractor := &fakeExtractor{result: &core.OcrResult{}}
	st := store.NewMemoryStore()

	svc := newService(mailbox, st, parser, resolver, extractor, nil)

	if _, err := svc.Run(context.Background(), "user-1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := svc.Run(context.Background(), "user-1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resolver.calls != 1 {
		t.Errorf("Expected resolver to run once, got %d calls", resolver.calls)
	}
}

func TestRun_UnresolvableImageStillPersists(t *testing.T) {
	mailbox := &fakeMailbox{messages: map[string]string{"msg-1": "<html/>"}}
	parser := &fakeParser{tiles: []core.MailPieceCandidate{tile("scan-1", "2025-11-15")}}
	resolver := &fakeResolver{image: nil}
	extractor := &fakeExtractor{result: &core.OcrResult{}}
	interp := &fakeInterpreter{result: &core.MailInterpretation{MailType: "unused"}}
	st := store.NewMemoryStore()

	svc := newService(mailbox, st, parser, resolver, extractor, interp)

	inserted, err := svc.Run(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if inserted != 1 {
		t.Fatalf("Expected 1 inserted record, got %d", inserted)
	}

	records, _ := st.ListRecent(context.Background(), "user-1", 10)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Interpretation != nil {
		t.Error("Expected nil interpretation when the image is unavailable")
	}
	if rec.RawSenderText != "Acme Corp" {
		t.Errorf("Expected parser fields to survive, got sender %q", rec.RawSenderText)
	}
	if rec.DeliveryDate != "2025-11-15" {
		t.Errorf("Expected parser fields to survive, got date %q", rec.DeliveryDate)
	}
}

func TestRun_InterpreterFailureIsIsolated(t *testing.T) {
	mailbox := &fakeMailbox{messages: map[string]string{"msg-1": "<html/>"}}
	parser := &fakeParser{tiles: []core.MailPieceCandidate{tile("scan-1", "2025-11-15")}}
	resolver := &fakeResolver{image: []byte("png")}
	extractor := &fakeExtractor{result: &core.OcrResult{}}
	interp := &fakeInterpreter{err: errors.New("model timeout")}
	st := store.NewMemoryStore()

	svc := newService(mailbox, st, parser, resolver, extractor, interp)

	inserted, err := svc.Run(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if inserted != 1 {
		t.Errorf("Expected record persisted despite interpreter failure, got %d", inserted)
	}
}

func TestRun_MailboxAuthAborts(t *testing.T) {
	mailbox := &fakeMailbox{listErr: core.ErrMailboxAuth}
	st := store.NewMemoryStore()

	svc := newService(mailbox, st, &fakeParser{}, &fakeResolver{}, &fakeExtractor{}, nil)

	_, err := svc.Run(context.Background(), "user-1")
	if !errors.Is(err, core.ErrMailboxAuth) {
		t.Errorf("Expected ErrMailboxAuth, got %v", err)
	}
}

func TestRun_LLMAuthAborts(t *testing.T) {
	mailbox := &fakeMailbox{messages: map[string]string{"msg-1": "<html/>"}}
	parser := &fakeParser{tiles: []core.MailPieceCandidate{tile("scan-1", "2025-11-15")}}
	resolver := &fakeResolver{image: []byte("png")}
	extractor := &fakeExtractor{result: &core.OcrResult{}}
	interp := &fakeInterpreter{err: core.ErrLLMAuth}
	st := store.NewMemoryStore()

	svc := newService(mailbox, st, parser, resolver, extractor, interp)

	_, err := svc.Run(context.Background(), "user-1")
	if !errors.Is(err, core.ErrLLMAuth) {
		t.Errorf("Expected ErrLLMAuth, got %v", err)
	}
}
