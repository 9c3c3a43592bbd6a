package carts

import (
	"context"

	"github.com/dmitrijs2005/printpeak/internal/server/models"
)

// Repository persists cart entries. Entries returned by reads carry the
// joined product.
type Repository interface {
	// Add inserts the (userID, productID) pair unless present. created is
	// false when the entry already existed; the stored entry is returned
	// either way.
	Add(ctx context.Context, userID, productID string) (entry *models.CartEntry, created bool, err error)
	Get(ctx context.Context, userID, productID string) (*models.CartEntry, error)
	List(ctx context.Context, userID string) ([]*models.CartEntry, error)
	Count(ctx context.Context, userID string) (int, error)
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}
