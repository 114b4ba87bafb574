package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/termitary/apiserver/internal/hasher"
	"github.com/termitary/apiserver/internal/store"
	"github.com/termitary/apiserver/types"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]types.Session
	getCalls int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]types.Session)}
}

func (r *fakeSessionRepo) Insert(_ context.Context, session types.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.ID]; exists {
		return store.ErrConflict
	}
	// Persist with second precision, like the real store.
	session.CreatedAt = time.Unix(session.CreatedAt.Unix(), 0)
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepo) Get(_ context.Context, id string) (types.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	session, ok := r.sessions[id]
	if !ok {
		return types.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	return ok
}

func newTestSessionService(t *testing.T, repo SessionRepository) *SessionService {
	t.Helper()
	h, err := hasher.New(hasher.AlgorithmArgon2id)
	require.NoError(t, err)
	return NewSessionService(repo, h)
}

func TestCreateThenValidate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepo()
	svc := newTestSessionService(t, repo)

	created, err := svc.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.Contains(t, created.Token, ".")
	assert.NotContains(t, created.SecretHash, created.Token[strings.Index(created.Token, ".")+1:],
		"plaintext secret must never appear in the stored hash")

	session, err := svc.Validate(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, created.ID, session.ID)
}

func TestCreateUsesIndependentDraws(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(t, newFakeSessionRepo())

	created, err := svc.Create(ctx, "user-1")
	require.NoError(t, err)

	parts := strings.Split(created.Token, ".")
	require.Len(t, parts, 2)
	assert.NotEqual(t, parts[0], parts[1], "session id and secret must be independent draws")
}

func TestValidateMalformedTokens(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepo()
	svc := newTestSessionService(t, repo)

	for _, tok := range []string{"noseparator", "a.b.c", ".secret", "id.", ""} {
		_, err := svc.Validate(ctx, tok)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", tok)
	}
	assert.Zero(t, repo.getCalls, "malformed tokens must be rejected before any store access")
}

func TestValidateUnknownSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(t, newFakeSessionRepo())

	_, err := svc.Validate(ctx, "unknownid.somesecret")
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestValidateMutatedSecret(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(t, newFakeSessionRepo())

	created, err := svc.Create(ctx, "user-1")
	require.NoError(t, err)

	sep := strings.Index(created.Token, ".")
	secret := created.Token[sep+1:]
	for _, pos := range []int{0, len(secret) / 2, len(secret) - 1} {
		mutated := []byte(secret)
		if mutated[pos] == 'a' {
			mutated[pos] = 'b'
		} else {
			mutated[pos] = 'a'
		}
		_, err := svc.Validate(ctx, created.ID+"."+string(mutated))
		assert.ErrorIs(t, err, ErrSessionInvalid, "mutation at position %d", pos)
	}

	// The original token still validates.
	_, err = svc.Validate(ctx, created.Token)
	assert.NoError(t, err)
}

func TestValidateExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepo()
	svc := newTestSessionService(t, repo)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	created, err := svc.Create(ctx, "user-1")
	require.NoError(t, err)

	// One second before the boundary the session is still valid.
	svc.now = func() time.Time { return base.Add(sessionLifetime - time.Second) }
	_, err = svc.Validate(ctx, created.Token)
	require.NoError(t, err)
	assert.True(t, repo.has(created.ID))

	// At exactly the boundary it is rejected and deleted.
	svc.now = func() time.Time { return base.Add(sessionLifetime) }
	_, err = svc.Validate(ctx, created.Token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
	assert.False(t, repo.has(created.ID), "expired session must be deleted on detection")

	// Once deleted, even rolling the clock back cannot revive it.
	svc.now = func() time.Time { return base }
	_, err = svc.Validate(ctx, created.Token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(t, newFakeSessionRepo())

	created, err := svc.Create(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Validate(ctx, created.Token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}
