// Package accounts implements the auth backend consumed by the session
// store: account creation, credential verification, and token issuance
// with server-stored rotating refresh tokens.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkravchenko/patienthub/internal/auth"
	"github.com/dkravchenko/patienthub/internal/common"
	"github.com/dkravchenko/patienthub/internal/config"
	"github.com/dkravchenko/patienthub/internal/dbx"
	"github.com/dkravchenko/patienthub/internal/models"
	"github.com/dkravchenko/patienthub/internal/repositories/repomanager"
)

const minPasswordLength = 8

// Service provides the Auth side of the platform contract:
//   - CreateAccount: register a new patient account
//   - Authenticate: verify credentials and mint tokens
//   - RestoreSession: rotate a refresh token into a fresh token pair
//   - EndSession: revoke a refresh token
type Service struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	requireEmailConfirmation     bool
}

// NewService constructs an accounts Service using repositories and config.
func NewService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *Service {
	return &Service{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		requireEmailConfirmation:     cfg.RequireEmailConfirmation,
	}
}

// CreateAccount registers a new account. The returned token pair is nil
// when the platform requires email confirmation before opening a session.
// Weak or malformed credentials yield common.ErrWeakCredential; an email
// already in use yields common.ErrDuplicate.
func (s *Service) CreateAccount(ctx context.Context, email, password, fullName string) (*models.Identity, *models.TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return nil, nil, fmt.Errorf("email %q: %w", email, common.ErrWeakCredential)
	}
	if len(password) < minPasswordLength {
		return nil, nil, fmt.Errorf("password too short: %w", common.ErrWeakCredential)
	}

	salt := common.GenerateRandByteArray(32)
	verifier := auth.MakeVerifier(auth.DeriveKey([]byte(password), salt))

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.Create(ctx, &models.Account{
		Email:    email,
		FullName: fullName,
		Salt:     salt,
		Verifier: verifier,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("error creating account: %w", err)
	}

	if s.requireEmailConfirmation {
		return account.Identity(), nil, nil
	}

	pair, err := s.generateTokenPair(ctx, account.ID, s.db)
	if err != nil {
		return nil, nil, err
	}
	return account.Identity(), pair, nil
}

// Authenticate verifies the password against the stored verifier and, on
// success, returns the identity and a new token pair. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Identity, *models.TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrUnauthorized
		}
		return nil, nil, common.ErrInternal
	}

	if !auth.CheckPassword([]byte(password), account.Salt, account.Verifier) {
		return nil, nil, common.ErrUnauthorized
	}

	pair, err := s.generateTokenPair(ctx, account.ID, s.db)
	if err != nil {
		return nil, nil, err
	}
	return account.Identity(), pair, nil
}

// RestoreSession validates a refresh token, rotates it transactionally,
// and returns the account identity with a fresh token pair. Expired
// tokens yield common.ErrRefreshTokenExpired; unknown tokens yield
// common.ErrUnauthorized.
func (s *Service) RestoreSession(ctx context.Context, refreshToken string) (*models.Identity, *models.TokenPair, error) {
	tokenRepo := s.repomanager.RefreshTokens(s.db)

	token, err := tokenRepo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, nil, common.ErrRefreshTokenExpired
	}

	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading account: %w", err)
	}

	var pair *models.TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return nil, nil, err
	}
	return account.Identity(), pair, nil
}

// EndSession revokes the given refresh token. Revoking an unknown token
// is not an error; sign-out must always succeed locally.
func (s *Service) EndSession(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken)
}

// VerifyAccessToken returns the user id embedded in a valid access token.
func (s *Service) VerifyAccessToken(tokenString string) (string, error) {
	return auth.GetUserIDFromToken(tokenString, s.jwtSecret)
}

func (s *Service) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*models.TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrInternal
	}
	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
