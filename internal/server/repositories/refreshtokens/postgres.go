// Package refreshtokens provides the PostgreSQL-backed store for the refresh
// tokens issued at sign-up, login and rotation.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/dbx"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
)

// PostgresRepository keeps refresh tokens over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx), so rotation and sign-up can run it inside a transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create stores token for userID with an expiry of now+validity.
func (r *PostgresRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the stored row for token, or common.ErrorNotFound when the
// token was never issued or has been revoked.
func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM refresh_tokens
		WHERE token = $1
	`
	t := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&t.ID, &t.UserID, &t.Token, &t.Expires, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// Delete revokes a single token. Unknown tokens are not an error.
func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteForUser revokes every token held by userID, used after a password change.
func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
