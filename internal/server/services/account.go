package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/dbx"
	"github.com/dmitrijs2005/printpeak/internal/server/auth"
	"github.com/dmitrijs2005/printpeak/internal/server/config"
	"github.com/dmitrijs2005/printpeak/internal/server/images"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User *models.User
	TokenPair
}

// AccountService manages accounts: sign-up, login, token refresh, profile
// changes and the admin-only account operations.
type AccountService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	images                       images.Store
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, store images.Store, cfg *config.Config) *AccountService {
	return &AccountService{
		db:                           db,
		repomanager:                  m,
		images:                       store,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

func validEmail(email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", validationErr("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", validationErr("email %q is malformed", email)
	}
	return email, nil
}

func (s *AccountService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name, err := required("name", name)
	if err != nil {
		return nil, err
	}
	if email, err = validEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, validationErr("password is required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// The account and its first refresh token are stored together, so a
	// failed sign-up leaves the email free for a retry.
	var res *AuthResult
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash})
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}

		pair, err := s.generateTokenPair(ctx, user.ID, tx)
		if err != nil {
			return err
		}
		res = &AuthResult{User: user, TokenPair: *pair}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Login answers common.ErrorUnauthorized for both an unknown email and a
// wrong password.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}

	pair, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: *pair}, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *AccountService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// UpdateProfile applies the non-nil fields of upd. Name and email cannot be
// blanked; the address can.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		if user.Name, err = required("name", *upd.Name); err != nil {
			return nil, err
		}
	}
	if upd.Email != nil {
		if user.Email, err = validEmail(*upd.Email); err != nil {
			return nil, err
		}
	}
	if upd.Address != nil {
		user.Address = strings.TrimSpace(*upd.Address)
	}
	if upd.ProfileImage != nil {
		url, err := s.images.Upload(ctx, images.FolderProfiles, upd.ProfileImage)
		if err != nil {
			return nil, err
		}
		user.ProfileImage = url
	}

	return repo.Update(ctx, user)
}

// ChangePassword replaces the password and revokes every refresh token of
// the account.
func (s *AccountService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if newPassword == "" {
		return validationErr("new password is required")
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, oldPassword) {
		return common.ErrInvalidCredential
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, id, hash); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteForUser(ctx, id)
	})
}

func (s *AccountService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// Delete removes an account with its cart and orders. Unknown ids are a
// no-op; the last admin cannot be removed.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	// A failed lookup may already have aborted the transaction, so the
	// not-found case rolls back and is forgiven outside it.
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user.IsAdmin {
			if err := s.ensureOtherAdmin(ctx, tx); err != nil {
				return err
			}
		}
		return repo.Delete(ctx, id)
	})
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	return err
}

// DeleteAllNonAdmin removes every customer account; admins stay.
func (s *AccountService) DeleteAllNonAdmin(ctx context.Context) (int64, error) {
	return s.repomanager.Users(s.db).DeleteAllNonAdmin(ctx)
}

// AdminUpdate applies an admin's partial edit. Demoting the last admin is
// refused with common.ErrLastAdmin.
func (s *AccountService) AdminUpdate(ctx context.Context, id string, upd models.AccountUpdate) (*models.User, error) {
	var out *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			if user.Name, err = required("name", *upd.Name); err != nil {
				return err
			}
		}
		if upd.Email != nil {
			if user.Email, err = validEmail(*upd.Email); err != nil {
				return err
			}
		}
		if upd.IsAdmin != nil {
			if user.IsAdmin && !*upd.IsAdmin {
				if err := s.ensureOtherAdmin(ctx, tx); err != nil {
					return err
				}
			}
			user.IsAdmin = *upd.IsAdmin
		}

		out, err = repo.Update(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureAdmin creates the admin account, or promotes the existing account
// with that email. The password of an existing account is left alone.
func (s *AccountService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	email, err := validEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsAdmin {
			return user, nil
		}
		user.IsAdmin = true
		return repo.Update(ctx, user)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	if name, err = required("name", name); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, validationErr("password is required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return repo.Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash, IsAdmin: true})
}

func (s *AccountService) ensureOtherAdmin(ctx context.Context, tx dbx.DBTX) error {
	n, err := s.repomanager.Users(tx).CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return common.ErrLastAdmin
	}
	return nil
}

// --- helpers below ---

func (s *AccountService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *AccountService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *AccountService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
