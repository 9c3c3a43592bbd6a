package users

import (
	"context"

	"github.com/dmitrijs2005/printpeak/internal/server/models"
)

// Repository persists accounts. Emails are stored and looked up lower-cased;
// normalisation is the caller's job.
type Repository interface {
	// Create fills ID and CreatedAt. A taken email yields common.ErrConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// List returns every account, newest first.
	List(ctx context.Context) ([]*models.User, error)
	// Update overwrites the mutable profile fields of user.ID.
	Update(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	Delete(ctx context.Context, id string) error
	// DeleteAllNonAdmin returns the number of removed accounts.
	DeleteAllNonAdmin(ctx context.Context) (int64, error)
	CountAdmins(ctx context.Context) (int, error)
}
