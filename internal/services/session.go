package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/termitary/apiserver/internal/hasher"
	"github.com/termitary/apiserver/internal/store"
	"github.com/termitary/apiserver/internal/token"
	"github.com/termitary/apiserver/types"
)

// sessionLifetime is the fixed validity window of every session.
const sessionLifetime = 24 * time.Hour

const tokenSeparator = "."

var (
	// ErrTokenMalformed is returned when a token does not split into
	// exactly two non-empty parts. No store access happens in this case.
	ErrTokenMalformed = errors.New("malformed token")

	// ErrSessionInvalid covers every other token rejection: unknown id,
	// expired session, secret mismatch. The distinctions are never exposed
	// to the caller.
	ErrSessionInvalid = errors.New("invalid session")
)

// SessionRepository defines persistence operations for sessions.
type SessionRepository interface {
	Insert(ctx context.Context, session types.Session) error
	Get(ctx context.Context, id string) (types.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionService issues and validates opaque session tokens of the form
// "<id>.<secret>". Only the hash of the secret is ever persisted, so a leak
// of the session table does not yield valid tokens.
type SessionService struct {
	repo   SessionRepository
	hasher *hasher.Hasher
	now    func() time.Time
}

func NewSessionService(repo SessionRepository, h *hasher.Hasher) *SessionService {
	return &SessionService{
		repo:   repo,
		hasher: h,
		now:    time.Now,
	}
}

// Create issues a new session for userID. The id and secret are independent
// random draws. The returned token is the only place the plaintext secret
// ever exists; it is handed to the caller after the store write completes,
// never before.
func (s *SessionService) Create(ctx context.Context, userID string) (types.SessionWithToken, error) {
	id, err := token.Generate()
	if err != nil {
		return types.SessionWithToken{}, err
	}
	secret, err := token.Generate()
	if err != nil {
		return types.SessionWithToken{}, err
	}

	secretHash, err := s.hasher.Hash(secret)
	if err != nil {
		return types.SessionWithToken{}, err
	}

	session := types.Session{
		ID:         id,
		UserID:     userID,
		SecretHash: secretHash,
		CreatedAt:  s.now().Truncate(time.Second),
	}
	if err := s.repo.Insert(ctx, session); err != nil {
		// An id collision is astronomically unlikely but handled, not
		// assumed impossible.
		return types.SessionWithToken{}, fmt.Errorf("insert session: %w", err)
	}

	return types.SessionWithToken{
		Session: session,
		Token:   id + tokenSeparator + secret,
	}, nil
}

// Validate checks a bearer token and returns the session it names. The
// checks run in a fixed order: shape, existence, expiry, secret. An expired
// session is deleted as a side effect before rejection (lazy expiration).
// The secret comparison happens only after the record is known to exist and
// be unexpired, so invalid ids never pay for a hash computation.
func (s *SessionService) Validate(ctx context.Context, tok string) (types.Session, error) {
	parts := strings.Split(tok, tokenSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return types.Session{}, ErrTokenMalformed
	}
	sessionID, sessionSecret := parts[0], parts[1]

	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Session{}, ErrSessionInvalid
		}
		return types.Session{}, err
	}

	if s.now().Sub(session.CreatedAt) >= sessionLifetime {
		if err := s.repo.Delete(ctx, sessionID); err != nil {
			return types.Session{}, err
		}
		return types.Session{}, ErrSessionInvalid
	}

	if !s.hasher.Verify(sessionSecret, session.SecretHash) {
		return types.Session{}, ErrSessionInvalid
	}

	return session, nil
}

// Delete revokes a session explicitly (logout). Deleting a session that no
// longer exists is not an error.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
