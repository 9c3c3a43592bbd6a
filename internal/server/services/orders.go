package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/logging"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/dmitrijs2005/printpeak/internal/server/notify"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/repomanager"
)

// OrderService is the admin view of orders.
type OrderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    notify.Notifier
	logger      logging.Logger
}

func NewOrderService(db *sql.DB, m repomanager.RepositoryManager, n notify.Notifier, logger logging.Logger) *OrderService {
	return &OrderService{db: db, repomanager: m, notifier: n, logger: logger}
}

// ListAll returns every order with its owner and product, newest first.
func (s *OrderService) ListAll(ctx context.Context) ([]*models.Order, error) {
	return s.repomanager.Orders(s.db).ListAll(ctx)
}

// SetStatus moves an order to status. Unknown statuses are
// common.ErrValidation; moves the transition table forbids are
// common.ErrInvalidTransition. Re-setting the current status is a no-op.
func (s *OrderService) SetStatus(ctx context.Context, id, status string) (*models.Order, error) {
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Orders(s.db)
	order, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, order.Status, next)
	}

	if err := repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	order.Status = next

	if owner, err := s.repomanager.Users(s.db).GetByID(ctx, order.UserID); err == nil {
		notifyStatus(ctx, s.notifier, s.logger, owner, order)
	} else {
		s.logger.Warn(ctx, "order owner lookup failed", "order_id", id, "error", err)
	}

	return order, nil
}

// Delete returns common.ErrorNotFound for an unknown id.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	return s.repomanager.Orders(s.db).Delete(ctx, id)
}

func (s *OrderService) DeleteAll(ctx context.Context) (int64, error) {
	return s.repomanager.Orders(s.db).DeleteAll(ctx)
}
