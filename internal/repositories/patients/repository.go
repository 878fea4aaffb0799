// Package patients persists the one-row-per-owner profile records.
package patients

import (
	"context"

	"github.com/dkravchenko/patienthub/internal/models"
)

type Repository interface {
	// Get returns the profile row for ownerID.
	// Returns common.ErrNotFound when no row exists yet.
	Get(ctx context.Context, ownerID string) (*models.ProfileRecord, error)

	// Upsert writes the full record, inserting or overwriting every
	// field (last write wins).
	Upsert(ctx context.Context, record *models.ProfileRecord) error
}
