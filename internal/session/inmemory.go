package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a Store for tests and single-process setups.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	queries  map[string][]QueryRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: map[string]Session{},
		queries:  map[string][]QueryRecord{},
	}
}

func (s *InMemoryStore) CreateSession(ctx context.Context, label string) (*Session, error) {
	sess := Session{ID: uuid.NewString(), Label: label, CreatedAt: time.Now().UTC()}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return &sess, nil
}

func (s *InMemoryStore) GetSession(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *InMemoryStore) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) RecordQuery(ctx context.Context, rec QueryRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.queries[rec.SessionID] = append([]QueryRecord{rec}, s.queries[rec.SessionID]...)
	s.mu.Unlock()
	return rec.ID, nil
}

func (s *InMemoryStore) History(ctx context.Context, sessionID string, limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.queries[sessionID]
	if len(history) > limit {
		history = history[:limit]
	}
	out := make([]QueryRecord, len(history))
	copy(out, history)
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
