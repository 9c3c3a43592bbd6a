package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/printpeak/internal/common"
)

type OrderStatus string

const (
	StatusAwaitingPayment OrderStatus = "AwaitingPayment"
	StatusPending         OrderStatus = "Pending"
	StatusShipped         OrderStatus = "Shipped"
	StatusDelivered       OrderStatus = "Delivered"
	StatusCancelled       OrderStatus = "Cancelled"
)

// transitions lists the statuses reachable from each status. Staying in the
// current status is always allowed and is not listed.
var transitions = map[OrderStatus][]OrderStatus{
	StatusAwaitingPayment: {StatusPending, StatusCancelled},
	StatusPending:         {StatusShipped, StatusCancelled},
	StatusShipped:         {StatusDelivered, StatusCancelled},
	StatusDelivered:       nil,
	StatusCancelled:       nil,
}

// ParseOrderStatus validates s against the closed set of statuses.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("%w: unknown order status %q", common.ErrValidation, s)
	}
	return st, nil
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Counts reports whether an order in this status contributes to an
// account's spend.
func (s OrderStatus) Counts() bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

const (
	MethodHomeDelivery = "Home Delivery"
	MethodCardPayment  = "Card Payment"
)

// ValidDeliveryMethod reports whether m is an accepted delivery method.
func ValidDeliveryMethod(m string) bool {
	return m == MethodHomeDelivery || m == MethodCardPayment
}

// OrderOwner carries the display fields of the ordering account; only the
// admin listing fills it.
type OrderOwner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Order is a placed order. ProductID and Product are nil once the product
// has been removed from the catalog.
type Order struct {
	ID               string      `json:"id"`
	UserID           string      `json:"userId"`
	ProductID        *string     `json:"productId"`
	Size             string      `json:"size"`
	Design           string      `json:"design,omitempty"`
	Method           string      `json:"method"`
	Address          string      `json:"address"`
	Quantity         int         `json:"quantity"`
	Status           OrderStatus `json:"status"`
	PaymentSessionID string      `json:"paymentSessionId,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`

	Product *Product    `json:"product,omitempty"`
	User    *OrderOwner `json:"user,omitempty"`
}
