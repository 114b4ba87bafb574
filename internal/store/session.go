package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/termitary/apiserver/types"
)

// SessionRepository handles persistence for sessions. It is a dumb
// persistence layer: expiration logic lives in the session service.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert persists a session. created_at is stored as integer epoch seconds,
// so the persisted round-trip never shifts the expiry boundary by more than
// a second. A colliding id surfaces as ErrConflict.
func (r *SessionRepository) Insert(ctx context.Context, session types.Session) error {
	const query = `
		INSERT INTO sessions (id, user_id, secret_hash, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.SecretHash,
		session.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Get is a pure point lookup with no expiration logic.
func (r *SessionRepository) Get(ctx context.Context, id string) (types.Session, error) {
	const query = `
		SELECT id, user_id, secret_hash, created_at
		FROM sessions
		WHERE id = $1`
	var (
		session   types.Session
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.SecretHash,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Session{}, ErrNotFound
		}
		return types.Session{}, err
	}
	session.CreatedAt = time.Unix(createdAt, 0)
	return session, nil
}

// Delete removes a session. Deleting a non-existent id is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sessions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
