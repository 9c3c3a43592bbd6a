package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/repomanager"
)

// CartService manages per-account carts. A product is in a cart at most once.
type CartService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCartService(db *sql.DB, m repomanager.RepositoryManager) *CartService {
	return &CartService{db: db, repomanager: m}
}

// AddItem puts productID in the account's cart. alreadyInCart reports that
// the entry existed before; the stored entry is returned either way.
func (s *CartService) AddItem(ctx context.Context, accountID, productID string) (entry *models.CartEntry, alreadyInCart bool, err error) {
	productID, err = required("productId", productID)
	if err != nil {
		return nil, false, err
	}

	if _, err := s.repomanager.Products(s.db).GetByID(ctx, productID); err != nil {
		return nil, false, err
	}

	entry, created, err := s.repomanager.Carts(s.db).Add(ctx, accountID, productID)
	if err != nil {
		return nil, false, err
	}
	return entry, !created, nil
}

func (s *CartService) List(ctx context.Context, accountID string) ([]*models.CartEntry, error) {
	return s.repomanager.Carts(s.db).List(ctx, accountID)
}

// RemoveItem does not fail when the product is not in the cart.
func (s *CartService) RemoveItem(ctx context.Context, accountID, productID string) error {
	return s.repomanager.Carts(s.db).Remove(ctx, accountID, productID)
}

func (s *CartService) Clear(ctx context.Context, accountID string) error {
	return s.repomanager.Carts(s.db).Clear(ctx, accountID)
}
