package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/termitary/apiserver/internal/hasher"
	"github.com/termitary/apiserver/internal/store"
	"github.com/termitary/apiserver/internal/token"
	"github.com/termitary/apiserver/types"
)

// UserCreatedChannel is the notification channel for new accounts.
const UserCreatedChannel = "users.created"

var (
	// ErrInvalidCredentials is returned for both unknown identities and
	// wrong passwords, deliberately indistinguishable so callers cannot
	// enumerate registered accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPasswordConfirmation is returned when the confirmation field does
	// not match the password at registration.
	ErrPasswordConfirmation = errors.New("confirmPassword does not match password")

	// ErrEmailTaken and ErrUsernameTaken are returned when registration
	// collides with an existing account.
	ErrEmailTaken    = errors.New("account with this email already exists")
	ErrUsernameTaken = errors.New("account with this username already exists")
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByIdentity(ctx context.Context, identity string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// EventPublisher is the notification fan-out channel consumed by unrelated
// modules. Delivery is fire-and-forget.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// AuthResult carries the outcome of a successful login or registration.
type AuthResult struct {
	Session types.SessionWithToken
	User    types.User
}

// AuthService orchestrates login and registration on top of the credential
// store, the secret hasher, and the session service.
type AuthService struct {
	users    UserRepository
	sessions *SessionService
	hasher   *hasher.Hasher
	events   EventPublisher
}

func NewAuthService(users UserRepository, sessions *SessionService, h *hasher.Hasher, events EventPublisher) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   h,
		events:   events,
	}
}

// Login verifies the identity/password pair and issues a session. Unknown
// identity and wrong password fail with the identical error.
func (s *AuthService) Login(ctx context.Context, identity, password string) (AuthResult, error) {
	user, err := s.users.GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return AuthResult{}, ErrInvalidCredentials
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Session: session, User: user}, nil
}

// Register creates a new account and issues its first session. The email
// pre-check is an optimization for the common case; the store's unique
// constraints decide the winner when two registrations race.
func (s *AuthService) Register(ctx context.Context, email, username, password, confirmPassword string) (AuthResult, error) {
	if password != confirmPassword {
		return AuthResult{}, ErrPasswordConfirmation
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return AuthResult{}, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return AuthResult{}, err
	}

	id, err := token.Generate()
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.Create(ctx, types.User{
		ID:           id,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			return AuthResult{}, ErrEmailTaken
		case errors.Is(err, store.ErrDuplicateUsername):
			return AuthResult{}, ErrUsernameTaken
		case errors.Is(err, store.ErrConflict):
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	s.publishUserCreated(ctx, user)

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Session: session, User: user}, nil
}

// publishUserCreated emits the users.created event with the account's public
// fields. Failures are logged and never fail the registration.
func (s *AuthService) publishUserCreated(ctx context.Context, user types.User) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(user.Public())
	if err != nil {
		log.Printf("auth: marshal %s event: %v", UserCreatedChannel, err)
		return
	}
	if _, err := s.events.Publish(ctx, UserCreatedChannel, payload, nil); err != nil {
		log.Printf("auth: publish %s event: %v", UserCreatedChannel, err)
	}
}
