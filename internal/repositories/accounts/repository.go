// Package accounts persists auth account rows (email, salt, verifier).
package accounts

import (
	"context"

	"github.com/dkravchenko/patienthub/internal/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
}
