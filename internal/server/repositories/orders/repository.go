package orders

import (
	"context"

	"github.com/dmitrijs2005/printpeak/internal/server/models"
)

// Repository persists orders. Reads join the ordered product, which may be
// gone; ListAll also joins the owner's display fields.
type Repository interface {
	Create(ctx context.Context, o *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByPaymentSession(ctx context.Context, sessionID string) (*models.Order, error)
	// ListForUser returns the account's orders newest first.
	ListForUser(ctx context.Context, userID string) ([]*models.Order, error)
	ListAll(ctx context.Context) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	// Delete returns common.ErrorNotFound when nothing was removed.
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}
