package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikey/llm-mail-ingest/internal/core"
)

func record(userID, fingerprint string, createdAt time.Time) *core.IngestRecord {
	return &core.IngestRecord{
		RecordID:    "msg-1:" + fingerprint,
		UserID:      userID,
		MessageID:   "msg-1",
		Fingerprint: fingerprint,
		CreatedAt:   createdAt,
	}
}

func TestMemoryStore_InsertAndExists(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	exists, err := s.ExistsByFingerprint(ctx, "user-1", "fp-1")
	if err != nil {
		t.Fatalf("ExistsByFingerprint() error = %v", err)
	}
	if exists {
		t.Error("Expected empty store")
	}

	if err := s.Insert(ctx, record("user-1", "fp-1", time.Now())); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	exists, err = s.ExistsByFingerprint(ctx, "user-1", "fp-1")
	if err != nil {
		t.Fatalf("ExistsByFingerprint() error = %v", err)
	}
	if !exists {
		t.Error("Expected record to exist after insert")
	}

	// Same fingerprint under a different user is a different record
	exists, _ = s.ExistsByFingerprint(ctx, "user-2", "fp-1")
	if exists {
		t.Error("Expected per-user isolation")
	}
}

func TestMemoryStore_DuplicateInsert(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Insert(ctx, record("user-1", "fp-1", time.Now())); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	err := s.Insert(ctx, record("user-1", "fp-1", time.Now()))
	if !errors.Is(err, core.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}

func TestMemoryStore_ListRecent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	s.Insert(ctx, record("user-1", "fp-old", now.Add(-2*time.Hour)))
	s.Insert(ctx, record("user-1", "fp-new", now))
	s.Insert(ctx, record("user-1", "fp-mid", now.Add(-time.Hour)))
	s.Insert(ctx, record("user-2", "fp-other", now))

	records, err := s.ListRecent(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Fingerprint != "fp-new" || records[1].Fingerprint != "fp-mid" {
		t.Errorf("Expected newest first, got %s then %s",
			records[0].Fingerprint, records[1].Fingerprint)
	}
}

func TestMemoryStore_RecordAction(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.RecordAction(ctx, &core.FollowUpAction{
		UserID:      "user-1",
		Fingerprint: "fp-1",
		Kind:        "opt_out",
		Status:      "pending",
	})
	if err != nil {
		t.Fatalf("RecordAction() error = %v", err)
	}

	actions := s.Actions()
	if len(actions) != 1 {
		t.Fatalf("Expected 1 action, got %d", len(actions))
	}
	if actions[0].Kind != "opt_out" {
		t.Errorf("Kind = %q", actions[0].Kind)
	}
}
