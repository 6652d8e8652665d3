package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curatehq/curate/internal/form"
	"github.com/curatehq/curate/model"
)

// PgStore is a PostgreSQL-backed Store using pgx/v5. The form state is kept
// as a JSONB column; everything queryable lives in its own column.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PostgreSQL session store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Create(ctx context.Context, sess Session) error {
	stateJSON, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("marshal form state: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO curation_sessions (
			id, subject_id, state, version,
			created_at, updated_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sess.ID, sess.SubjectID, stateJSON, sess.Version,
		sess.CreatedAt, sess.UpdatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PgStore) Get(ctx context.Context, subjectID, sessionID string) (Session, error) {
	var sess Session
	var stateJSON []byte

	err := s.pool.QueryRow(ctx, `
		SELECT id, subject_id, state, version, created_at, updated_at, expires_at
		FROM curation_sessions
		WHERE id = $1 AND subject_id = $2 AND expires_at > now()`,
		sessionID, subjectID,
	).Scan(
		&sess.ID, &sess.SubjectID, &stateJSON, &sess.Version,
		&sess.CreatedAt, &sess.UpdatedAt, &sess.ExpiresAt,
	)
	if err == pgx.ErrNoRows {
		return Session{}, model.NewNotFoundError(fmt.Sprintf("session %q not found", sessionID))
	}
	if err != nil {
		return Session{}, fmt.Errorf("query session: %w", err)
	}

	if stateJSON != nil {
		sess.State = &form.State{}
		if err := json.Unmarshal(stateJSON, sess.State); err != nil {
			return Session{}, fmt.Errorf("unmarshal form state: %w", err)
		}
	}
	return sess, nil
}

func (s *PgStore) Update(ctx context.Context, sess Session) error {
	stateJSON, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("marshal form state: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE curation_sessions SET
			state = $1,
			version = $2,
			updated_at = $3,
			expires_at = $4
		WHERE id = $5 AND subject_id = $6 AND version = $7`,
		stateJSON, sess.Version+1, time.Now().UTC(), sess.ExpiresAt,
		sess.ID, sess.SubjectID, sess.Version,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewConflictError(
			fmt.Sprintf("session %q version conflict (expected %d)", sess.ID, sess.Version),
		)
	}
	return nil
}

func (s *PgStore) List(ctx context.Context, subjectID string) ([]Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, subject_id, state, version, created_at, updated_at, expires_at
		FROM curation_sessions
		WHERE subject_id = $1 AND expires_at > now()
		ORDER BY created_at DESC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var stateJSON []byte
		if err := rows.Scan(
			&sess.ID, &sess.SubjectID, &stateJSON, &sess.Version,
			&sess.CreatedAt, &sess.UpdatedAt, &sess.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if stateJSON != nil {
			sess.State = &form.State{}
			if err := json.Unmarshal(stateJSON, sess.State); err != nil {
				return nil, fmt.Errorf("unmarshal form state: %w", err)
			}
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *PgStore) Delete(ctx context.Context, subjectID, sessionID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM curation_sessions
		WHERE id = $1 AND subject_id = $2`,
		sessionID, subjectID,
	)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError(fmt.Sprintf("session %q not found", sessionID))
	}
	return nil
}

// HealthCheck pings the connection pool, for the readiness endpoint.
func (s *PgStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PgStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM curation_sessions
		WHERE expires_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
