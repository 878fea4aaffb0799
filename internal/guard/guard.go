// Package guard decides whether a navigation target may render for the
// current session state. Decisions are computed fresh on every call; nothing
// is cached across identity changes.
package guard

import (
	"strings"

	"github.com/dkravchenko/patienthub/internal/session"
)

// Action is what the caller should do with the destination.
type Action int

const (
	// Render the destination.
	Render Action = iota
	// Redirect to Decision.RedirectTo instead.
	Redirect
	// Defer rendering until the session store settles.
	Defer
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case Defer:
		return "defer"
	default:
		return "unknown"
	}
}

// Decision is the guard's verdict for one destination.
type Decision struct {
	Action     Action
	RedirectTo string
}

// SignInPath is where anonymous visitors of protected destinations are sent.
const SignInPath = "/signin"

// publicPrefix marks the shareable QR view; anything under it renders for
// anyone.
const publicPrefix = "/patient/"

var publicPaths = map[string]bool{
	"/":       true,
	"/signin": true,
	"/signup": true,
}

// protectedPaths are the signed-in dashboard surfaces.
var protectedPaths = map[string]bool{
	"/dashboard":          true,
	"/chatbot":            true,
	"/skin-detection":     true,
	"/report-scanning":    true,
	"/appointments":       true,
	"/health-prediction":  true,
	"/voice-consultation": true,
	"/health-records":     true,
	"/alerts":             true,
	"/mental-health":      true,
	"/games":              true,
	"/signal-analysis":    true,
	"/cancer-detection":   true,
	"/lifestyle":          true,
	"/complete-profile":   true,
}

// Protected reports whether destination requires an authenticated session.
func Protected(destination string) bool {
	if publicPaths[destination] {
		return false
	}
	if strings.HasPrefix(destination, publicPrefix) {
		return false
	}
	return protectedPaths[destination]
}

// Evaluate maps a session state and a destination to a decision. Public
// destinations render in any state. Protected ones defer while the session
// is still being probed and redirect to the sign-in page when anonymous.
func Evaluate(state session.State, destination string) Decision {
	if !Protected(destination) {
		return Decision{Action: Render}
	}

	switch state {
	case session.StateInitializing:
		return Decision{Action: Defer}
	case session.StateAuthenticated:
		return Decision{Action: Render}
	default:
		return Decision{Action: Redirect, RedirectTo: SignInPath}
	}
}
