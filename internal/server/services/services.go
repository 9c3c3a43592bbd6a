// Package services contains the storefront business logic. Services own
// validation and policy; persistence goes through repomanager, and
// external systems (object storage, payments, e-mail) through small
// interfaces injected at construction.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/logging"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/dmitrijs2005/printpeak/internal/server/notify"
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, fmt.Sprintf(format, args...))
}

// required trims v and rejects it when nothing is left.
func required(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", validationErr("%s is required", field)
	}
	return v, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// notifyPlaced and notifyStatus report notifier failures without failing
// the caller.
func notifyPlaced(ctx context.Context, n notify.Notifier, log logging.Logger, owner *models.User, o *models.Order) {
	if err := n.OrderPlaced(ctx, owner, o); err != nil {
		log.Warn(ctx, "order notification failed", "order_id", o.ID, "error", err)
	}
}

func notifyStatus(ctx context.Context, n notify.Notifier, log logging.Logger, owner *models.User, o *models.Order) {
	if err := n.OrderStatusChanged(ctx, owner, o); err != nil {
		log.Warn(ctx, "status notification failed", "order_id", o.ID, "status", o.Status, "error", err)
	}
}
