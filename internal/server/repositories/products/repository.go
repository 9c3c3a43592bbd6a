package products

import (
	"context"

	"github.com/dmitrijs2005/printpeak/internal/server/models"
)

// Repository persists the catalog.
type Repository interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	// GetByID returns common.ErrorNotFound for an unknown id.
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// List returns the catalog newest first.
	List(ctx context.Context) ([]*models.Product, error)
	Update(ctx context.Context, p *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}
