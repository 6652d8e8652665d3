package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/curatehq/curate/internal/form"
	"github.com/curatehq/curate/model"
)

// MemoryStore is an in-memory Store for development and tests. Sessions are
// snapshotted on every read and write so callers never share a live *State
// with the store; a rejected update must not leave its mutations behind.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (s *MemoryStore) Create(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return model.NewConflictError(fmt.Sprintf("session %q already exists", sess.ID))
	}
	snap, err := snapshot(sess)
	if err != nil {
		return err
	}
	s.sessions[sess.ID] = snap
	return nil
}

func (s *MemoryStore) Get(_ context.Context, subjectID, sessionID string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.SubjectID != subjectID || expired(sess, time.Now()) {
		return Session{}, model.NewNotFoundError(fmt.Sprintf("session %q not found", sessionID))
	}
	return snapshot(sess)
}

func (s *MemoryStore) Update(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[sess.ID]
	if !ok || existing.SubjectID != sess.SubjectID {
		return model.NewNotFoundError(fmt.Sprintf("session %q not found", sess.ID))
	}
	if existing.Version != sess.Version {
		return model.NewConflictError(
			fmt.Sprintf("session %q version conflict (expected %d)", sess.ID, existing.Version),
		)
	}

	snap, err := snapshot(sess)
	if err != nil {
		return err
	}
	snap.Version++
	snap.UpdatedAt = time.Now().UTC()
	s.sessions[sess.ID] = snap
	return nil
}

func (s *MemoryStore) List(_ context.Context, subjectID string) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var out []Session
	for _, sess := range s.sessions {
		if sess.SubjectID == subjectID && !expired(sess, now) {
			snap, err := snapshot(sess)
			if err != nil {
				return nil, err
			}
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, subjectID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.SubjectID != subjectID {
		return model.NewNotFoundError(fmt.Sprintf("session %q not found", sessionID))
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if !sess.ExpiresAt.IsZero() && sess.ExpiresAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// HealthCheck always succeeds, for the readiness endpoint.
func (s *MemoryStore) HealthCheck(_ context.Context) error { return nil }

// Len returns the number of stored sessions. For testing.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func expired(sess Session, now time.Time) bool {
	return !sess.ExpiresAt.IsZero() && sess.ExpiresAt.Before(now)
}

// snapshot deep-copies the session's state through a JSON round trip, the
// same isolation PgStore gets from persisting the state as a JSON column.
func snapshot(sess Session) (Session, error) {
	if sess.State == nil {
		return sess, nil
	}
	data, err := json.Marshal(sess.State)
	if err != nil {
		return Session{}, fmt.Errorf("session %q: encoding state: %w", sess.ID, err)
	}
	state := &form.State{}
	if err := json.Unmarshal(data, state); err != nil {
		return Session{}, fmt.Errorf("session %q: decoding state: %w", sess.ID, err)
	}
	sess.State = state
	return sess, nil
}
