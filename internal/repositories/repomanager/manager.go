// Package repomanager wires together repository constructors and the
// database migration hook.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkravchenko/patienthub/internal/dbx"
	"github.com/dkravchenko/patienthub/internal/repositories/accounts"
	"github.com/dkravchenko/patienthub/internal/repositories/documents"
	"github.com/dkravchenko/patienthub/internal/repositories/patients"
	"github.com/dkravchenko/patienthub/internal/repositories/refreshtokens"
)

// RepositoryManager vends repository implementations bound to a DBTX
// (*sql.DB for standalone use, *sql.Tx inside a transaction) and exposes
// a schema migration hook.
type RepositoryManager interface {
	Accounts(db dbx.DBTX) accounts.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Documents(db dbx.DBTX) documents.Repository
	Patients(db dbx.DBTX) patients.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
