// Package session persists draft curation sessions so a form can be
// resumed after a disconnect or restart. A session is owned by the subject
// who created it and carries the full form state plus an optimistic version
// counter; expired drafts are swept in the background.
package session

import (
	"context"
	"time"

	"github.com/curatehq/curate/internal/form"
)

// Session is one draft curation form.
type Session struct {
	ID        string      `json:"id"`
	SubjectID string      `json:"subjectId"`
	State     *form.State `json:"state"`
	Version   int         `json:"version"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Store persists draft sessions.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, sess Session) error

	// Get retrieves a session by ID, scoped to its owner. Returns NOT_FOUND
	// if the session doesn't exist, belongs to someone else, or has expired.
	Get(ctx context.Context, subjectID, sessionID string) (Session, error)

	// Update persists an updated session with optimistic locking. The
	// version must match the current stored version; CONFLICT otherwise.
	Update(ctx context.Context, sess Session) error

	// List returns the owner's unexpired sessions, newest first.
	List(ctx context.Context, subjectID string) ([]Session, error)

	// Delete removes a session, scoped to its owner.
	Delete(ctx context.Context, subjectID, sessionID string) error

	// DeleteExpired removes sessions whose expires_at is before the cutoff
	// and returns how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}
