// Package refreshtokens persists the rotating refresh tokens that back
// session restoration.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dkravchenko/patienthub/internal/models"
)

// Repository defines operations for issuing, retrieving, and revoking
// refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of
	// now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find looks up a refresh token by its opaque token string.
	// Returns common.ErrNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token. Deleting a non-existent token is
	// not an error.
	Delete(ctx context.Context, token string) error

	// DeleteForUser revokes every token issued to userID (sign-out).
	DeleteForUser(ctx context.Context, userID string) error
}
