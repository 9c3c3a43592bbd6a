// Package notify tells interested parties about order events: the customer
// by e-mail, admin dashboards over websockets.
package notify

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/printpeak/internal/server/models"
)

// Notifier receives order events. Implementations must not block for long;
// failures are reported but never undo the order change.
type Notifier interface {
	OrderPlaced(ctx context.Context, owner *models.User, o *models.Order) error
	OrderStatusChanged(ctx context.Context, owner *models.User, o *models.Order) error
}

// Nop ignores every event.
type Nop struct{}

func (Nop) OrderPlaced(context.Context, *models.User, *models.Order) error        { return nil }
func (Nop) OrderStatusChanged(context.Context, *models.User, *models.Order) error { return nil }

// Fanout delivers each event to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) OrderPlaced(ctx context.Context, owner *models.User, o *models.Order) error {
	var errs []error
	for _, n := range f {
		if err := n.OrderPlaced(ctx, owner, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) OrderStatusChanged(ctx context.Context, owner *models.User, o *models.Order) error {
	var errs []error
	for _, n := range f {
		if err := n.OrderStatusChanged(ctx, owner, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
