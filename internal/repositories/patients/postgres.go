package patients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkravchenko/patienthub/internal/common"
	"github.com/dkravchenko/patienthub/internal/dbx"
	"github.com/dkravchenko/patienthub/internal/models"
)

// PostgresRepository implements profile storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID string) (*models.ProfileRecord, error) {
	query := `
		SELECT id, dob, gender, blood_group, phone, emergency_contact, height, weight,
		       diseases, allergies, medications, surgeries, lifestyle, notes
		FROM patients
		WHERE id = $1
	`
	record := &models.ProfileRecord{}
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&record.OwnerID, &record.DateOfBirth, &record.Gender, &record.BloodGroup, &record.Phone,
		&record.EmergencyContact, &record.Height, &record.Weight, &record.Diseases,
		&record.Allergies, &record.Medications, &record.Surgeries, &record.Lifestyle, &record.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return record, nil
}

// Upsert writes the full record by owner id. On conflict every field is
// overwritten; there is no partial merge and no concurrency token.
func (r *PostgresRepository) Upsert(ctx context.Context, record *models.ProfileRecord) error {
	query := `
		INSERT INTO patients (id, dob, gender, blood_group, phone, emergency_contact, height, weight,
		                      diseases, allergies, medications, surgeries, lifestyle, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id)
		DO UPDATE SET
			dob = EXCLUDED.dob,
			gender = EXCLUDED.gender,
			blood_group = EXCLUDED.blood_group,
			phone = EXCLUDED.phone,
			emergency_contact = EXCLUDED.emergency_contact,
			height = EXCLUDED.height,
			weight = EXCLUDED.weight,
			diseases = EXCLUDED.diseases,
			allergies = EXCLUDED.allergies,
			medications = EXCLUDED.medications,
			surgeries = EXCLUDED.surgeries,
			lifestyle = EXCLUDED.lifestyle,
			notes = EXCLUDED.notes
	`
	result, err := r.db.ExecContext(ctx, query,
		record.OwnerID, record.DateOfBirth, record.Gender, record.BloodGroup, record.Phone,
		record.EmergencyContact, record.Height, record.Weight, record.Diseases,
		record.Allergies, record.Medications, record.Surgeries, record.Lifestyle, record.Notes)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}
