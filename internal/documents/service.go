// Package documents implements the patient document repository: uploads
// into object storage with a metadata row per file, owner-scoped listing
// and deletion, and pure category filtering.
package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/dkravchenko/patienthub/internal/config"
	"github.com/dkravchenko/patienthub/internal/logging"
	"github.com/dkravchenko/patienthub/internal/models"
	"github.com/dkravchenko/patienthub/internal/repositories/repomanager"
	"github.com/dkravchenko/patienthub/internal/storage"
	"github.com/google/uuid"
)

// ErrFileTooLarge is returned before any network call when the upload
// exceeds the configured size cap.
var ErrFileTooLarge = errors.New("file exceeds the upload size limit")

// Stage names the phase of a two-phase upload that failed.
type Stage string

const (
	StageStorage  Stage = "storage"
	StageMetadata Stage = "metadata"
)

// UploadError reports which phase of an upload failed. A metadata-stage
// failure means the object bytes were written but no row references them.
type UploadError struct {
	Stage Stage
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed at %s stage: %v", e.Stage, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Upload describes one incoming file.
type Upload struct {
	FileName    string
	MimeType    string
	SizeBytes   int64
	Body        io.Reader
	Description string
}

// Service is the document repository.
type Service struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	store         storage.ObjectStore
	logger        logging.Logger
	maxUploadSize int64
}

func NewService(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore, cfg *config.Config, logger logging.Logger) *Service {
	return &Service{
		db:            db,
		repomanager:   m,
		store:         store,
		logger:        logger,
		maxUploadSize: cfg.MaxUploadSizeBytes,
	}
}

// seams for deterministic tests
var (
	timeNow   = time.Now
	newSuffix = uuid.NewString
)

// storageKey builds the object key for an upload. Keys are scoped by owner
// and carry a timestamp plus a random suffix so two uploads landing in the
// same instant never collide.
func storageKey(ownerID string, fileName string) string {
	return fmt.Sprintf("patients/%s/%d-%s%s", ownerID, timeNow().UnixNano(), newSuffix(), path.Ext(fileName))
}

// Upload stores the file bytes, resolves their URL, then records the
// metadata row. The size cap is enforced before anything is sent. When the
// metadata insert fails after the bytes are written, the object is removed
// best-effort; the orphan sweep catches anything the removal misses.
func (s *Service) Upload(ctx context.Context, ownerID string, up Upload) (*models.Document, error) {
	if up.SizeBytes > s.maxUploadSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, up.SizeBytes, s.maxUploadSize)
	}

	key := storageKey(ownerID, up.FileName)

	if err := s.store.Put(ctx, key, up.Body, up.MimeType); err != nil {
		return nil, &UploadError{Stage: StageStorage, Err: err}
	}

	url, err := s.store.ResolveURL(ctx, key)
	if err != nil {
		s.removeOrphan(ctx, key)
		return nil, &UploadError{Stage: StageStorage, Err: err}
	}

	doc := &models.Document{
		OwnerID:     ownerID,
		FileName:    up.FileName,
		MimeType:    up.MimeType,
		SizeBytes:   up.SizeBytes,
		StorageKey:  key,
		FileURL:     url,
		Category:    models.InferCategory(up.MimeType),
		Description: up.Description,
	}

	created, err := s.repomanager.Documents(s.db).Create(ctx, doc)
	if err != nil {
		s.removeOrphan(ctx, key)
		return nil, &UploadError{Stage: StageMetadata, Err: err}
	}

	s.logger.Info(ctx, "document uploaded", "owner", ownerID, "key", key, "category", created.Category)
	return created, nil
}

// List returns the owner's documents, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*models.Document, error) {
	return s.repomanager.Documents(s.db).ListByOwner(ctx, ownerID)
}

// Delete removes the object first, then the metadata row. A missing object
// does not block the row delete; any other storage failure aborts before
// the row is touched, so a listed document never loses its bytes silently.
func (s *Service) Delete(ctx context.Context, doc *models.Document) error {
	if err := s.store.Remove(ctx, doc.StorageKey); err != nil && !storage.IsNotFound(err) {
		return fmt.Errorf("removing object %s: %w", doc.StorageKey, err)
	}

	if err := s.repomanager.Documents(s.db).Delete(ctx, doc.ID, doc.OwnerID); err != nil {
		return fmt.Errorf("deleting metadata for %s: %w", doc.ID, err)
	}

	s.logger.Info(ctx, "document deleted", "owner", doc.OwnerID, "id", doc.ID)
	return nil
}

func (s *Service) removeOrphan(ctx context.Context, key string) {
	if err := s.store.Remove(ctx, key); err != nil && !storage.IsNotFound(err) {
		s.logger.Warn(ctx, "orphaned object left for sweep", "key", key, "error", err)
	}
}
