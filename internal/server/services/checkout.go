package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/logging"
	"github.com/dmitrijs2005/printpeak/internal/server/config"
	"github.com/dmitrijs2005/printpeak/internal/server/images"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/dmitrijs2005/printpeak/internal/server/notify"
	"github.com/dmitrijs2005/printpeak/internal/server/payments"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// CheckoutService turns order requests into orders, either paid on
// delivery or through a hosted card checkout.
type CheckoutService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      images.Store
	gateway     payments.Gateway
	notifier    notify.Notifier
	logger      logging.Logger

	currency     string
	paymentFloor int64
	successURL   string
	cancelURL    string
}

func NewCheckoutService(db *sql.DB, m repomanager.RepositoryManager, store images.Store, gw payments.Gateway,
	n notify.Notifier, logger logging.Logger, cfg *config.Config) *CheckoutService {
	return &CheckoutService{
		db:           db,
		repomanager:  m,
		images:       store,
		gateway:      gw,
		notifier:     n,
		logger:       logger,
		currency:     cfg.StripeCurrency,
		paymentFloor: cfg.PaymentFloor,
		successURL:   cfg.CheckoutSuccessURL,
		cancelURL:    cfg.CheckoutCancelURL,
	}
}

// validateOrderRequest normalises req in place.
func validateOrderRequest(req *models.OrderRequest) error {
	var err error
	if req.ProductID, err = required("productId", req.ProductID); err != nil {
		return err
	}
	if req.Size, err = required("size", req.Size); err != nil {
		return err
	}
	if req.Address, err = required("address", req.Address); err != nil {
		return err
	}
	if !models.ValidDeliveryMethod(req.Method) {
		return validationErr("method must be %q or %q", models.MethodHomeDelivery, models.MethodCardPayment)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return validationErr("quantity must be positive")
	}
	return nil
}

func (s *CheckoutService) uploadDesign(ctx context.Context, design *models.ImageUpload) (string, error) {
	if design == nil {
		return "", nil
	}
	url, err := s.images.Upload(ctx, images.FolderDesigns, design)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return "", err
		}
		return "", fmt.Errorf("%w: design upload: %v", common.ErrUpstream, err)
	}
	return url, nil
}

// PlaceDirectOrder records a Pending order and takes the product out of the
// account's cart. An uploaded design is not removed if the order write fails.
func (s *CheckoutService) PlaceDirectOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	if err := validateOrderRequest(&req); err != nil {
		return nil, err
	}

	product, err := s.repomanager.Products(s.db).GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	design, err := s.uploadDesign(ctx, req.Design)
	if err != nil {
		return nil, err
	}

	order, err := s.createOrder(ctx, req, design, models.StatusPending, "")
	if err != nil {
		return nil, err
	}
	order.Product = product

	s.dropFromCart(ctx, req.AccountID, req.ProductID)

	if owner, err := s.repomanager.Users(s.db).GetByID(ctx, req.AccountID); err == nil {
		notifyPlaced(ctx, s.notifier, s.logger, owner, order)
	}

	return order, nil
}

// UnitAmount is the per-item charge in minor currency units: the product
// price times 100, raised to floor when below it.
func UnitAmount(price decimal.Decimal, floor int64) int64 {
	amount := price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if amount < floor {
		return floor
	}
	return amount
}

// PlaceCardOrder opens a hosted checkout session and records the order as
// AwaitingPayment until the payment is confirmed.
func (s *CheckoutService) PlaceCardOrder(ctx context.Context, req models.OrderRequest) (*models.CheckoutResult, error) {
	if req.Method == "" {
		req.Method = models.MethodCardPayment
	}
	if err := validateOrderRequest(&req); err != nil {
		return nil, err
	}
	if req.Method != models.MethodCardPayment {
		return nil, validationErr("card checkout requires method %q", models.MethodCardPayment)
	}

	product, err := s.repomanager.Products(s.db).GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	design, err := s.uploadDesign(ctx, req.Design)
	if err != nil {
		return nil, err
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		Item: payments.LineItem{
			Name:      fmt.Sprintf("%s - Size: %s", product.Name, req.Size),
			ImageURL:  product.Image,
			UnitMinor: UnitAmount(product.Price, s.paymentFloor),
			Quantity:  int64(req.Quantity),
		},
		Currency:        s.currency,
		SuccessURL:      s.successURL,
		CancelURL:       s.cancelURL,
		ClientReference: req.AccountID,
		Metadata: map[string]string{
			"user_id":    req.AccountID,
			"product_id": req.ProductID,
			"size":       req.Size,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstream, err)
	}

	order, err := s.createOrder(ctx, req, design, models.StatusAwaitingPayment, sess.ID)
	if err != nil {
		return nil, err
	}

	s.dropFromCart(ctx, req.AccountID, req.ProductID)

	return &models.CheckoutResult{SessionID: sess.ID, URL: sess.URL, OrderID: order.ID}, nil
}

// ConfirmPayment asks the gateway about sessionID and, once it is paid,
// moves the order from AwaitingPayment to Pending. Calling it again is
// harmless.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, sessionID string) (*models.Order, error) {
	if _, err := required("sessionId", sessionID); err != nil {
		return nil, err
	}

	order, err := s.repomanager.Orders(s.db).GetByPaymentSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess, err := s.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstream, err)
	}
	if !sess.Paid {
		return order, nil
	}

	return s.advance(ctx, order, models.StatusPending)
}

// HandleWebhook verifies and applies a payment provider notification.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return s.HandlePaymentEvent(ctx, ev)
}

// HandlePaymentEvent applies a verified event. Events for unknown sessions
// and unrelated event types are ignored.
func (s *CheckoutService) HandlePaymentEvent(ctx context.Context, ev *payments.Event) error {
	var next models.OrderStatus
	switch {
	case ev.Type == payments.EventSessionCompleted && ev.Session.Paid:
		next = models.StatusPending
	case ev.Type == payments.EventSessionExpired:
		next = models.StatusCancelled
	default:
		return nil
	}

	order, err := s.repomanager.Orders(s.db).GetByPaymentSession(ctx, ev.Session.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "payment event for unknown session", "event_id", ev.ID, "session_id", ev.Session.ID)
			return nil
		}
		return err
	}

	if order.Status != models.StatusAwaitingPayment {
		return nil
	}
	_, err = s.advance(ctx, order, next)
	return err
}

// OrdersForAccount returns the account's orders newest first.
func (s *CheckoutService) OrdersForAccount(ctx context.Context, accountID string) ([]*models.Order, error) {
	return s.repomanager.Orders(s.db).ListForUser(ctx, accountID)
}

// Summary is the account dashboard: orders, money spent on orders that are
// paid or payable on delivery, and the cart size.
func (s *CheckoutService) Summary(ctx context.Context, accountID string) (*models.Summary, error) {
	orders, err := s.OrdersForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, o := range orders {
		if o.Product == nil || !o.Status.Counts() {
			continue
		}
		total = total.Add(o.Product.Price.Mul(decimal.NewFromInt(int64(o.Quantity))))
	}

	n, err := s.repomanager.Carts(s.db).Count(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &models.Summary{Orders: orders, TotalSpent: total, CartItems: n}, nil
}

func (s *CheckoutService) createOrder(ctx context.Context, req models.OrderRequest, design string,
	status models.OrderStatus, sessionID string) (*models.Order, error) {
	productID := req.ProductID
	order, err := s.repomanager.Orders(s.db).Create(ctx, &models.Order{
		UserID:           req.AccountID,
		ProductID:        &productID,
		Size:             req.Size,
		Design:           design,
		Method:           req.Method,
		Address:          req.Address,
		Quantity:         req.Quantity,
		Status:           status,
		PaymentSessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrOrderCreation, err)
	}
	return order, nil
}

func (s *CheckoutService) dropFromCart(ctx context.Context, accountID, productID string) {
	if err := s.repomanager.Carts(s.db).Remove(ctx, accountID, productID); err != nil {
		s.logger.Warn(ctx, "failed to remove ordered product from cart",
			"user_id", accountID, "product_id", productID, "error", err)
	}
}

// advance moves order to next when the transition table allows it and
// tells the notifier. Disallowed moves leave the order untouched.
func (s *CheckoutService) advance(ctx context.Context, order *models.Order, next models.OrderStatus) (*models.Order, error) {
	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransition(next) {
		return order, nil
	}

	repo := s.repomanager.Orders(s.db)
	if err := repo.UpdateStatus(ctx, order.ID, next); err != nil {
		return nil, err
	}
	order.Status = next

	if owner, err := s.repomanager.Users(s.db).GetByID(ctx, order.UserID); err == nil {
		if next == models.StatusPending {
			notifyPlaced(ctx, s.notifier, s.logger, owner, order)
		} else {
			notifyStatus(ctx, s.notifier, s.logger, owner, order)
		}
	}
	return order, nil
}
