package types

import "time"

// Session represents one authenticated login instance. A session references
// its owning user; it never owns it.
type Session struct {
	// ID is the opaque random identifier of the session.
	ID string `json:"id" db:"id"`

	// UserID references the owning user's id.
	UserID string `json:"user_id" db:"user_id"`

	// SecretHash is the encoded argon2id hash of the session secret. The
	// plaintext secret is never persisted and this field is never exposed
	// in API responses.
	SecretHash string `json:"-" db:"secret_hash"`

	// CreatedAt is when the session was issued. Persisted with second
	// precision; expiration is computed from it.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SessionWithToken pairs a freshly created session with its one-time
// plaintext token "<id>.<secret>". The token exists only in this value and
// in the caller's hands.
type SessionWithToken struct {
	Session
	Token string `json:"token"`
}

// PublicSession is the caller-visible projection of a Session.
type PublicSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips the secret hash.
func (s Session) Public() PublicSession {
	return PublicSession{
		ID:        s.ID,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt,
	}
}
