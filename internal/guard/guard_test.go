package guard

import (
	"testing"

	"github.com/dkravchenko/patienthub/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		state       session.State
		destination string
		want        Decision
	}{
		{"public landing renders while initializing", session.StateInitializing, "/", Decision{Action: Render}},
		{"public sign-in renders when anonymous", session.StateAnonymous, "/signin", Decision{Action: Render}},
		{"public sign-up renders when authenticated", session.StateAuthenticated, "/signup", Decision{Action: Render}},
		{"shared qr view renders for anyone", session.StateAnonymous, "/patient/acc-1", Decision{Action: Render}},
		{"dashboard defers while initializing", session.StateInitializing, "/dashboard", Decision{Action: Defer}},
		{"dashboard redirects when anonymous", session.StateAnonymous, "/dashboard", Decision{Action: Redirect, RedirectTo: SignInPath}},
		{"dashboard renders when authenticated", session.StateAuthenticated, "/dashboard", Decision{Action: Render}},
		{"protected defers while initializing", session.StateInitializing, "/health-records", Decision{Action: Defer}},
		{"protected redirects when anonymous", session.StateAnonymous, "/health-records", Decision{Action: Redirect, RedirectTo: SignInPath}},
		{"protected renders when authenticated", session.StateAuthenticated, "/health-records", Decision{Action: Render}},
		{"profile completion is protected", session.StateAnonymous, "/complete-profile", Decision{Action: Redirect, RedirectTo: SignInPath}},
		{"unknown path renders", session.StateAnonymous, "/no-such-page", Decision{Action: Render}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.state, tt.destination))
		})
	}
}

// The bootstrap sequence a visitor of a protected page sees: defer while the
// persisted session is probed, redirect if it turns out to be anonymous,
// render after signing in.
func TestEvaluate_BootstrapSequence(t *testing.T) {
	for _, dest := range []string{"/dashboard", "/health-records"} {
		assert.Equal(t, Defer, Evaluate(session.StateInitializing, dest).Action, dest)
		assert.Equal(t, Redirect, Evaluate(session.StateAnonymous, dest).Action, dest)
		assert.Equal(t, Render, Evaluate(session.StateAuthenticated, dest).Action, dest)
	}
}

func TestProtected(t *testing.T) {
	assert.False(t, Protected("/"))
	assert.False(t, Protected("/patient/acc-1"))
	assert.True(t, Protected("/dashboard"))
	assert.True(t, Protected("/appointments"))
	assert.False(t, Protected("/nonexistent"))
}
