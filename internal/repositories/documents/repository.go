// Package documents persists patient document metadata rows. The file
// bytes themselves live in object storage; rows here reference them by
// storage key.
package documents

import (
	"context"

	"github.com/dkravchenko/patienthub/internal/models"
)

type Repository interface {
	// Create inserts a metadata row and fills in the server-assigned
	// id and upload timestamp.
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)

	// ListByOwner returns all documents owned by ownerID, newest first.
	// An empty result is not an error.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error)

	// Delete removes the row with the given id, scoped to ownerID.
	// Returns common.ErrNotFound when no row matches.
	Delete(ctx context.Context, id string, ownerID string) error

	// ListStorageKeys returns every storage key referenced by a
	// metadata row. Used by the orphan sweep.
	ListStorageKeys(ctx context.Context) ([]string, error)
}
