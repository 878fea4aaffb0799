package session

import (
	"context"
	"errors"
	"testing"

	"github.com/dkravchenko/patienthub/internal/common"
	"github.com/dkravchenko/patienthub/internal/logging"
	"github.com/dkravchenko/patienthub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	identity *models.Identity
	pair     *models.TokenPair

	createErr  error
	authErr    error
	restoreErr error
	endErr     error

	endedWith []string
}

func (f *fakeAuthenticator) CreateAccount(ctx context.Context, email, password, fullName string) (*models.Identity, *models.TokenPair, error) {
	if f.createErr != nil {
		return nil, nil, f.createErr
	}
	return f.identity, f.pair, nil
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, email, password string) (*models.Identity, *models.TokenPair, error) {
	if f.authErr != nil {
		return nil, nil, f.authErr
	}
	return f.identity, f.pair, nil
}

func (f *fakeAuthenticator) RestoreSession(ctx context.Context, refreshToken string) (*models.Identity, *models.TokenPair, error) {
	if f.restoreErr != nil {
		return nil, nil, f.restoreErr
	}
	return f.identity, f.pair, nil
}

func (f *fakeAuthenticator) EndSession(ctx context.Context, refreshToken string) error {
	f.endedWith = append(f.endedWith, refreshToken)
	return f.endErr
}

func newTestStore(auth *fakeAuthenticator) (*Store, *MemoryTokenKeeper) {
	keeper := &MemoryTokenKeeper{}
	return NewStore(auth, keeper, logging.NewNopLogger()), keeper
}

func alicePair() (*models.Identity, *models.TokenPair) {
	return &models.Identity{ID: "acc-1", Email: "a@b.c", FullName: "Alice"},
		&models.TokenPair{AccessToken: "at", RefreshToken: "rt"}
}

func TestStore_StartsInitializing(t *testing.T) {
	s, _ := newTestStore(&fakeAuthenticator{})
	assert.Equal(t, StateInitializing, s.Snapshot().State)
}

func TestBootstrap_NoPersistedToken(t *testing.T) {
	s, _ := newTestStore(&fakeAuthenticator{})
	require.NoError(t, s.Bootstrap(context.Background()))
	assert.Equal(t, StateAnonymous, s.Snapshot().State)
}

func TestBootstrap_RestoresSession(t *testing.T) {
	identity, pair := alicePair()
	s, keeper := newTestStore(&fakeAuthenticator{identity: identity, pair: pair})
	require.NoError(t, keeper.Save("persisted"))

	require.NoError(t, s.Bootstrap(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, "acc-1", snap.Identity.ID)

	saved, _ := keeper.Load()
	assert.Equal(t, "rt", saved, "rotated token is persisted")
}

func TestBootstrap_RejectedTokenIsNotAnError(t *testing.T) {
	s, keeper := newTestStore(&fakeAuthenticator{restoreErr: common.ErrRefreshTokenExpired})
	require.NoError(t, keeper.Save("stale"))

	require.NoError(t, s.Bootstrap(context.Background()))
	assert.Equal(t, StateAnonymous, s.Snapshot().State)

	saved, _ := keeper.Load()
	assert.Empty(t, saved)
}

func TestBootstrap_BackendFailureStaysInitializing(t *testing.T) {
	s, keeper := newTestStore(&fakeAuthenticator{restoreErr: errors.New("connection refused")})
	require.NoError(t, keeper.Save("persisted"))

	err := s.Bootstrap(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonNetwork, authErr.Reason)
	assert.Equal(t, StateInitializing, s.Snapshot().State)
}

func TestSignIn_OpensSession(t *testing.T) {
	identity, pair := alicePair()
	s, _ := newTestStore(&fakeAuthenticator{identity: identity, pair: pair})

	require.NoError(t, s.SignIn(context.Background(), "a@b.c", "longenough"))
	assert.Equal(t, StateAuthenticated, s.Snapshot().State)
}

func TestSignIn_FailureLeavesStateUnchanged(t *testing.T) {
	s, _ := newTestStore(&fakeAuthenticator{authErr: common.ErrUnauthorized})
	require.NoError(t, s.Bootstrap(context.Background()))
	before := s.Snapshot()

	err := s.SignIn(context.Background(), "a@b.c", "wrong")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonInvalidCredential, authErr.Reason)

	after := s.Snapshot()
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.Generation, after.Generation)
}

func TestSignUp_ConfirmationPending(t *testing.T) {
	identity, _ := alicePair()
	s, _ := newTestStore(&fakeAuthenticator{identity: identity, pair: nil})

	pending, err := s.SignUp(context.Background(), "a@b.c", "longenough", "Alice")
	require.NoError(t, err)
	assert.True(t, pending)
	assert.Equal(t, StateAnonymous, s.Snapshot().State)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	s, _ := newTestStore(&fakeAuthenticator{createErr: common.ErrDuplicate})

	_, err := s.SignUp(context.Background(), "a@b.c", "longenough", "Alice")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonDuplicate, authErr.Reason)
}

func TestSignUp_WeakPassword(t *testing.T) {
	s, _ := newTestStore(&fakeAuthenticator{createErr: common.ErrWeakCredential})

	_, err := s.SignUp(context.Background(), "a@b.c", "short", "Alice")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonWeakCredential, authErr.Reason)
}

func TestSignOut_ClearsStateEvenOnRemoteFailure(t *testing.T) {
	identity, pair := alicePair()
	auth := &fakeAuthenticator{identity: identity, pair: pair, endErr: errors.New("connection refused")}
	s, keeper := newTestStore(auth)
	require.NoError(t, s.SignIn(context.Background(), "a@b.c", "longenough"))

	err := s.SignOut(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateAnonymous, s.Snapshot().State)

	saved, _ := keeper.Load()
	assert.Empty(t, saved, "persisted token is cleared")
	assert.Equal(t, []string{"rt"}, auth.endedWith)
}

func TestSubscribers_ObserveTransitionsInOrder(t *testing.T) {
	identity, pair := alicePair()
	s, _ := newTestStore(&fakeAuthenticator{identity: identity, pair: pair})

	var seen []State
	s.Subscribe(func(snap Snapshot) { seen = append(seen, snap.State) })

	require.NoError(t, s.SignIn(context.Background(), "a@b.c", "longenough"))
	require.NoError(t, s.SignOut(context.Background()))

	assert.Equal(t, []State{StateAuthenticated, StateAnonymous}, seen)
}

func TestCurrent_DetectsStaleGenerations(t *testing.T) {
	identity, pair := alicePair()
	s, _ := newTestStore(&fakeAuthenticator{identity: identity, pair: pair})
	require.NoError(t, s.SignIn(context.Background(), "a@b.c", "longenough"))

	gen := s.Snapshot().Generation
	assert.True(t, s.Current(gen))

	require.NoError(t, s.SignOut(context.Background()))
	assert.False(t, s.Current(gen), "a settled transition invalidates older tags")
}
