package documents

import (
	"context"
	"fmt"

	"github.com/dkravchenko/patienthub/internal/common"
	"github.com/dkravchenko/patienthub/internal/dbx"
	"github.com/dkravchenko/patienthub/internal/models"
)

// PostgresRepository implements document metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	query := `
		INSERT INTO patient_documents (patient_id, file_name, file_type, file_size, storage_key, file_url, category, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, uploaded_at
	`
	err := r.db.QueryRowContext(ctx, query,
		doc.OwnerID, doc.FileName, doc.MimeType, doc.SizeBytes, doc.StorageKey, doc.FileURL, doc.Category, doc.Description).
		Scan(&doc.ID, &doc.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	query := `
		SELECT id, patient_id, file_name, file_type, file_size, storage_key, file_url, category, description, uploaded_at
		FROM patient_documents
		WHERE patient_id = $1
		ORDER BY uploaded_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []*models.Document
	for rows.Next() {
		var item models.Document
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.FileName, &item.MimeType, &item.SizeBytes,
			&item.StorageKey, &item.FileURL, &item.Category, &item.Description, &item.UploadedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a metadata row scoped to its owner. Exactly one row must
// be affected; zero rows means the document does not exist (or belongs to
// someone else) and is reported as common.ErrNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id string, ownerID string) error {
	query := `
		DELETE FROM patient_documents
		WHERE id = $1 AND patient_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) ListStorageKeys(ctx context.Context) ([]string, error) {
	query := `SELECT storage_key FROM patient_documents`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select storage keys: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		result = append(result, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
