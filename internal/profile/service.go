// Package profile implements the patient profile record service: load,
// full-record save, and completion accounting.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dkravchenko/patienthub/internal/common"
	"github.com/dkravchenko/patienthub/internal/logging"
	"github.com/dkravchenko/patienthub/internal/models"
	"github.com/dkravchenko/patienthub/internal/repositories/repomanager"
)

// Reason classifies a failed profile write.
type Reason string

const (
	ReasonNetwork Reason = "network"
	// ReasonValidation is reserved for callers that pre-validate records
	// before Save; every field here is optional free text, so the service
	// itself never rejects one.
	ReasonValidation Reason = "validation"
)

// SaveError reports a failed profile write with the owner it was for.
type SaveError struct {
	OwnerID string
	Reason  Reason
	Err     error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving profile for %s (%s): %v", e.OwnerID, e.Reason, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

type Service struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *Service {
	return &Service{db: db, repomanager: m, logger: logger}
}

// Load returns the owner's profile record. A missing row is not an error:
// the caller gets an empty-shaped record carrying only the owner id.
func (s *Service) Load(ctx context.Context, ownerID string) (*models.ProfileRecord, error) {
	record, err := s.repomanager.Patients(s.db).Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return &models.ProfileRecord{OwnerID: ownerID}, nil
		}
		return nil, fmt.Errorf("loading profile for %s: %w", ownerID, err)
	}
	return record, nil
}

// Save writes the full record for ownerID, overwriting every field.
// Concurrent saves resolve last-write-wins. The caller's record is not
// modified; the owner id is stamped on the copy that is persisted.
func (s *Service) Save(ctx context.Context, ownerID string, record *models.ProfileRecord) error {
	row := *record
	row.OwnerID = ownerID
	if err := s.repomanager.Patients(s.db).Upsert(ctx, &row); err != nil {
		return &SaveError{OwnerID: ownerID, Reason: ReasonNetwork, Err: err}
	}
	s.logger.Info(ctx, "profile saved", "owner", ownerID)
	return nil
}

// CompletionRatio reports the share of profile fields that are filled in,
// in [0, 1]. Whitespace-only values count as empty.
func CompletionRatio(record *models.ProfileRecord) float64 {
	fields := record.Fields()
	filled := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			filled++
		}
	}
	return float64(filled) / float64(len(fields))
}
