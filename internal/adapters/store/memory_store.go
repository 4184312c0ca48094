package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mikey/llm-mail-ingest/internal/core"
)

// MemoryStore is an in-memory implementation of the Store interface,
// useful for tests and one-off runs where nothing should persist
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*core.IngestRecord
	actions []*core.FollowUpAction
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*core.IngestRecord),
	}
}

func recordKey(userID, fingerprint string) string {
	return userID + "|" + fingerprint
}

// ExistsByFingerprint reports whether a record is already persisted
func (s *MemoryStore) ExistsByFingerprint(_ context.Context, userID, fingerprint string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[recordKey(userID, fingerprint)]
	return ok, nil
}

// Insert persists a record, returning ErrDuplicate on a key conflict
func (s *MemoryStore) Insert(_ context.Context, rec *core.IngestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(rec.UserID, rec.Fingerprint)
	if _, ok := s.records[key]; ok {
		return core.ErrDuplicate
	}

	stored := *rec
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.records[key] = &stored
	return nil
}

// ListRecent returns the user's most recently ingested records
func (s *MemoryStore) ListRecent(_ context.Context, userID string, limit int) ([]*core.IngestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*core.IngestRecord
	for _, rec := range s.records {
		if rec.UserID == userID {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// RecordAction persists a follow-up decision
func (s *MemoryStore) RecordAction(_ context.Context, action *core.FollowUpAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *action
	s.actions = append(s.actions, &stored)
	return nil
}

// Actions returns a snapshot of the recorded follow-up actions
func (s *MemoryStore) Actions() []*core.FollowUpAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.FollowUpAction, len(s.actions))
	copy(out, s.actions)
	return out
}
