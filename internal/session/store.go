// Package session holds the client-visible authentication state machine:
// Initializing until the persisted session is probed, then Authenticated or
// Anonymous. All transitions are settled under one lock so subscribers
// observe them in a single global order.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dkravchenko/patienthub/internal/common"
	"github.com/dkravchenko/patienthub/internal/logging"
	"github.com/dkravchenko/patienthub/internal/models"
)

// State is the lifecycle phase of the session store.
type State int

const (
	// StateInitializing means the persisted session has not been probed yet.
	// It is not Anonymous: consumers must defer, not redirect.
	StateInitializing State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Reason classifies an authentication failure.
type Reason string

const (
	ReasonDuplicate         Reason = "duplicate"
	ReasonWeakCredential    Reason = "weak_credential"
	ReasonInvalidCredential Reason = "invalid_credential"
	ReasonNetwork           Reason = "network"
)

// AuthError wraps a backend failure with a UI-facing reason.
type AuthError struct {
	Reason Reason
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Authenticator is the auth backend contract the store depends on.
type Authenticator interface {
	CreateAccount(ctx context.Context, email, password, fullName string) (*models.Identity, *models.TokenPair, error)
	Authenticate(ctx context.Context, email, password string) (*models.Identity, *models.TokenPair, error)
	RestoreSession(ctx context.Context, refreshToken string) (*models.Identity, *models.TokenPair, error)
	EndSession(ctx context.Context, refreshToken string) error
}

// TokenKeeper persists the refresh token between runs.
type TokenKeeper interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// MemoryTokenKeeper keeps the refresh token in memory only.
type MemoryTokenKeeper struct {
	mu    sync.Mutex
	token string
}

func (k *MemoryTokenKeeper) Load() (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.token, nil
}

func (k *MemoryTokenKeeper) Save(token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.token = token
	return nil
}

func (k *MemoryTokenKeeper) Clear() error {
	return k.Save("")
}

// Snapshot is an immutable view of the store at one generation.
type Snapshot struct {
	State      State
	Identity   *models.Identity
	Generation uint64
}

// Store is the session state machine.
type Store struct {
	auth   Authenticator
	tokens TokenKeeper
	logger logging.Logger

	mu           sync.Mutex
	state        State
	identity     *models.Identity
	refreshToken string
	generation   uint64
	subscribers  []func(Snapshot)
}

func NewStore(auth Authenticator, tokens TokenKeeper, logger logging.Logger) *Store {
	return &Store{
		auth:   auth,
		tokens: tokens,
		logger: logger,
		state:  StateInitializing,
	}
}

// Subscribe registers fn to be called on every settled transition.
// Callbacks run in registration order, under the store lock, and must not
// call back into the store.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Snapshot returns the current state and its generation tag.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Current reports whether an async result tagged with gen is still
// applicable, i.e. no transition has settled since the tag was taken.
func (s *Store) Current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}

// Bootstrap probes the persisted refresh token and settles the store into
// Authenticated or Anonymous. A rejected or expired token is not an error;
// only a backend failure leaves the store Initializing for a retry.
func (s *Store) Bootstrap(ctx context.Context) error {
	token, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn(ctx, "session: loading persisted token", "error", err)
		token = ""
	}

	if token == "" {
		s.settle(StateAnonymous, nil, "")
		return nil
	}

	identity, pair, err := s.auth.RestoreSession(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) ||
			errors.Is(err, common.ErrRefreshTokenExpired) ||
			errors.Is(err, common.ErrInvalidToken) {
			s.logger.Info(ctx, "session: persisted token rejected")
			_ = s.tokens.Clear()
			s.settle(StateAnonymous, nil, "")
			return nil
		}
		return &AuthError{Reason: ReasonNetwork, Err: err}
	}

	s.persist(ctx, pair.RefreshToken)
	s.settle(StateAuthenticated, identity, pair.RefreshToken)
	return nil
}

// SignUp registers a new account. When the platform requires email
// confirmation no session is opened, the store settles Anonymous and
// confirmationPending is true. A failed sign-up leaves the state unchanged.
func (s *Store) SignUp(ctx context.Context, email, password, displayName string) (confirmationPending bool, err error) {
	identity, pair, err := s.auth.CreateAccount(ctx, email, password, displayName)
	if err != nil {
		return false, classify(err)
	}

	if pair == nil {
		s.logger.Info(ctx, "session: account created, confirmation pending", "user_id", identity.ID)
		s.settle(StateAnonymous, nil, "")
		return true, nil
	}

	s.persist(ctx, pair.RefreshToken)
	s.settle(StateAuthenticated, identity, pair.RefreshToken)
	return false, nil
}

// SignIn authenticates and opens a session. A failed sign-in leaves the
// state unchanged.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	identity, pair, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		return classify(err)
	}

	s.persist(ctx, pair.RefreshToken)
	s.settle(StateAuthenticated, identity, pair.RefreshToken)
	return nil
}

// SignOut ends the remote session and clears local state. Local state is
// cleared even when the remote call fails, so the caller never appears
// signed in after asking to leave.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	token := s.refreshToken
	s.mu.Unlock()

	err := s.auth.EndSession(ctx, token)
	if err != nil {
		s.logger.Warn(ctx, "session: remote sign-out failed", "error", err)
	}

	_ = s.tokens.Clear()
	s.settle(StateAnonymous, nil, "")

	if err != nil {
		return &AuthError{Reason: ReasonNetwork, Err: err}
	}
	return nil
}

func (s *Store) persist(ctx context.Context, token string) {
	if err := s.tokens.Save(token); err != nil {
		s.logger.Warn(ctx, "session: persisting token", "error", err)
	}
}

func (s *Store) settle(state State, identity *models.Identity, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
	s.identity = identity
	s.refreshToken = refreshToken
	s.generation++

	snap := s.snapshotLocked()
	for _, fn := range s.subscribers {
		fn(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{State: s.state, Identity: s.identity, Generation: s.generation}
}

func classify(err error) *AuthError {
	switch {
	case errors.Is(err, common.ErrDuplicate):
		return &AuthError{Reason: ReasonDuplicate, Err: err}
	case errors.Is(err, common.ErrWeakCredential):
		return &AuthError{Reason: ReasonWeakCredential, Err: err}
	case errors.Is(err, common.ErrUnauthorized):
		return &AuthError{Reason: ReasonInvalidCredential, Err: err}
	default:
		return &AuthError{Reason: ReasonNetwork, Err: err}
	}
}
