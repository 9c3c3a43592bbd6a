// Package refreshtokens stores the opaque refresh tokens handed out at login.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/printpeak/internal/server/models"
)

type Repository interface {
	// Create stores token for userID, expiring validity from now.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete is a no-op for unknown tokens.
	Delete(ctx context.Context, token string) error

	// DeleteForUser revokes every token of userID.
	DeleteForUser(ctx context.Context, userID string) error
}
