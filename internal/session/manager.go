package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/curatehq/curate/internal/config"
	"github.com/curatehq/curate/internal/form"
)

// Manager handles session lifecycle on top of a Store: ID assignment, TTL
// stamping, and sliding expiry on save.
type Manager struct {
	store Store
	ttl   time.Duration
	log   *zap.Logger
}

// NewManager creates a session manager.
func NewManager(store Store, cfg config.SessionConfig, log *zap.Logger) *Manager {
	return &Manager{
		store: store,
		ttl:   cfg.TTL,
		log:   log.Named("session"),
	}
}

// Open creates a session owning the given form state.
func (m *Manager) Open(ctx context.Context, subjectID string, state *form.State) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		State:     state,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return Session{}, err
	}
	m.log.Info("session opened",
		zap.String("session", sess.ID),
		zap.Time("expires_at", sess.ExpiresAt))
	return sess, nil
}

// Get loads a session for its owner.
func (m *Manager) Get(ctx context.Context, subjectID, sessionID string) (Session, error) {
	return m.store.Get(ctx, subjectID, sessionID)
}

// List returns the owner's sessions, newest first.
func (m *Manager) List(ctx context.Context, subjectID string) ([]Session, error) {
	return m.store.List(ctx, subjectID)
}

// Save persists an updated session. Every save slides the expiry forward, so
// an actively edited draft never times out under the editor.
func (m *Manager) Save(ctx context.Context, sess Session) (Session, error) {
	sess.ExpiresAt = time.Now().UTC().Add(m.ttl)
	if err := m.store.Update(ctx, sess); err != nil {
		return Session{}, err
	}
	sess.Version++
	return sess, nil
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, subjectID, sessionID string) error {
	if err := m.store.Delete(ctx, subjectID, sessionID); err != nil {
		return err
	}
	m.log.Info("session discarded", zap.String("session", sessionID))
	return nil
}
