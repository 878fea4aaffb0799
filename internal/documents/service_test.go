package documents

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dkravchenko/patienthub/internal/config"
	"github.com/dkravchenko/patienthub/internal/dbx"
	"github.com/dkravchenko/patienthub/internal/logging"
	"github.com/dkravchenko/patienthub/internal/models"
	accountsrepo "github.com/dkravchenko/patienthub/internal/repositories/accounts"
	documentsrepo "github.com/dkravchenko/patienthub/internal/repositories/documents"
	patientsrepo "github.com/dkravchenko/patienthub/internal/repositories/patients"
	refreshtokensrepo "github.com/dkravchenko/patienthub/internal/repositories/refreshtokens"
	"github.com/dkravchenko/patienthub/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeObjectStore struct {
	putErr     error
	resolveErr error
	removeErr  error

	puts    []string
	removed []string
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.puts = append(f.puts, key)
	return nil
}

func (f *fakeObjectStore) ResolveURL(ctx context.Context, key string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return "https://cdn.example/" + key, nil
}

func (f *fakeObjectStore) Remove(ctx context.Context, key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeObjectStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

type fakeDocsRepo struct {
	createErr error
	delErr    error

	rows    []*models.Document
	deleted []string
}

func (f *fakeDocsRepo) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *doc
	out.ID = "doc-1"
	out.UploadedAt = time.Now()
	f.rows = append(f.rows, &out)
	return &out, nil
}

func (f *fakeDocsRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	return f.rows, nil
}

func (f *fakeDocsRepo) Delete(ctx context.Context, id string, ownerID string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDocsRepo) ListStorageKeys(ctx context.Context) ([]string, error) { return nil, nil }

type fakeRepoManager struct {
	docs *fakeDocsRepo
}

func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository           { return nil }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return nil }
func (m *fakeRepoManager) Documents(db dbx.DBTX) documentsrepo.Repository         { return m.docs }
func (m *fakeRepoManager) Patients(db dbx.DBTX) patientsrepo.Repository           { return nil }
func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error    { return nil }

func newTestService(store *fakeObjectStore, docs *fakeDocsRepo) *Service {
	cfg := &config.Config{MaxUploadSizeBytes: 10 * 1024 * 1024}
	return NewService(nil, &fakeRepoManager{docs: docs}, store, cfg, logging.NewNopLogger())
}

func fixSeams(t *testing.T) {
	t.Helper()
	origNow, origSuffix := timeNow, newSuffix
	timeNow = func() time.Time { return time.Unix(0, 1700000000000000000) }
	newSuffix = func() string { return "fixed-suffix" }
	t.Cleanup(func() { timeNow, newSuffix = origNow, origSuffix })
}

func pdfUpload(size int64) Upload {
	return Upload{
		FileName:    "blood-test.pdf",
		MimeType:    "application/pdf",
		SizeBytes:   size,
		Body:        bytes.NewReader([]byte("%PDF")),
		Description: "annual blood panel",
	}
}

// --- tests ---

func TestUpload_OK(t *testing.T) {
	fixSeams(t)
	store := &fakeObjectStore{}
	docs := &fakeDocsRepo{}
	s := newTestService(store, docs)

	doc, err := s.Upload(context.Background(), "acc-1", pdfUpload(1024))
	require.NoError(t, err)

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, models.CategoryReport, doc.Category, "category inferred from mime type")
	assert.Equal(t, "patients/acc-1/1700000000000000000-fixed-suffix.pdf", doc.StorageKey)
	assert.Equal(t, "https://cdn.example/"+doc.StorageKey, doc.FileURL)
	assert.Equal(t, []string{doc.StorageKey}, store.puts)
}

func TestUpload_SizeCapCheckedBeforeAnyCall(t *testing.T) {
	store := &fakeObjectStore{}
	s := newTestService(store, &fakeDocsRepo{})

	_, err := s.Upload(context.Background(), "acc-1", pdfUpload(12*1024*1024))
	require.ErrorIs(t, err, ErrFileTooLarge)
	assert.Empty(t, store.puts, "nothing was sent")
}

func TestUpload_StorageFailure(t *testing.T) {
	store := &fakeObjectStore{putErr: errors.New("connection refused")}
	docs := &fakeDocsRepo{}
	s := newTestService(store, docs)

	_, err := s.Upload(context.Background(), "acc-1", pdfUpload(1024))

	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, StageStorage, upErr.Stage)
	assert.Empty(t, docs.rows, "no metadata row for a failed write")
}

func TestUpload_MetadataFailureRemovesObject(t *testing.T) {
	fixSeams(t)
	store := &fakeObjectStore{}
	docs := &fakeDocsRepo{createErr: errors.New("insert failed")}
	s := newTestService(store, docs)

	_, err := s.Upload(context.Background(), "acc-1", pdfUpload(1024))

	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, StageMetadata, upErr.Stage)
	require.Len(t, store.removed, 1, "the just-written object is removed")
	assert.Equal(t, store.puts[0], store.removed[0])
}

func TestDelete_OK(t *testing.T) {
	store := &fakeObjectStore{}
	docs := &fakeDocsRepo{}
	s := newTestService(store, docs)

	doc := &models.Document{ID: "doc-1", OwnerID: "acc-1", StorageKey: "patients/acc-1/k.pdf"}
	require.NoError(t, s.Delete(context.Background(), doc))

	assert.Equal(t, []string{"patients/acc-1/k.pdf"}, store.removed)
	assert.Equal(t, []string{"doc-1"}, docs.deleted)
}

func TestDelete_MissingObjectStillDeletesRow(t *testing.T) {
	store := &fakeObjectStore{removeErr: &storage.Error{Kind: storage.KindNotFound, Key: "k"}}
	docs := &fakeDocsRepo{}
	s := newTestService(store, docs)

	doc := &models.Document{ID: "doc-1", OwnerID: "acc-1", StorageKey: "k"}
	require.NoError(t, s.Delete(context.Background(), doc))
	assert.Equal(t, []string{"doc-1"}, docs.deleted)
}

func TestDelete_StorageFailureAbortsBeforeRow(t *testing.T) {
	store := &fakeObjectStore{removeErr: &storage.Error{Kind: storage.KindNetwork, Key: "k", Err: errors.New("timeout")}}
	docs := &fakeDocsRepo{}
	s := newTestService(store, docs)

	doc := &models.Document{ID: "doc-1", OwnerID: "acc-1", StorageKey: "k"}
	require.Error(t, s.Delete(context.Background(), doc))
	assert.Empty(t, docs.deleted, "row stays while the bytes still exist")
}

func TestFilterByCategory(t *testing.T) {
	docs := []*models.Document{
		{ID: "1", Category: models.CategoryPhoto},
		{ID: "2", Category: models.CategoryReport},
		{ID: "3", Category: models.CategoryPhoto},
	}

	photos := FilterByCategory(docs, models.CategoryPhoto)
	require.Len(t, photos, 2)
	assert.Equal(t, "1", photos[0].ID)
	assert.Equal(t, "3", photos[1].ID)

	all := FilterByCategory(docs, models.CategoryAll)
	assert.Equal(t, docs, all, "all passes everything through in order")
	assert.Empty(t, FilterByCategory(nil, models.CategoryXRay))
}

func TestStorageKey_Shape(t *testing.T) {
	key := storageKey("acc-1", "scan.jpeg")
	assert.True(t, strings.HasPrefix(key, "patients/acc-1/"))
	assert.True(t, strings.HasSuffix(key, ".jpeg"))
	assert.NotEqual(t, key, storageKey("acc-1", "scan.jpeg"), "keys never collide")
}
