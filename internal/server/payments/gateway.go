// Package payments opens hosted checkout sessions and reads payment
// outcomes, either by polling a session or from signed webhook events.
package payments

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("payments are not configured")

// LineItem is the single product a checkout session charges for.
type LineItem struct {
	Name      string
	ImageURL  string
	UnitMinor int64 // unit price in minor currency units
	Quantity  int64
}

type CheckoutRequest struct {
	Item       LineItem
	Currency   string
	SuccessURL string
	CancelURL  string
	// ClientReference ties the session back to the paying account.
	ClientReference string
	Metadata        map[string]string
}

type Session struct {
	ID   string
	URL  string
	Paid bool
}

type EventType string

const (
	EventSessionCompleted EventType = "checkout.session.completed"
	EventSessionExpired   EventType = "checkout.session.expired"
)

// Event is a verified webhook notification about a checkout session.
type Event struct {
	ID      string
	Type    EventType
	Session Session
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	// ParseEvent verifies signature against payload before decoding it.
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// Disabled is the Gateway used when no payment provider is configured.
type Disabled struct{}

func (Disabled) CreateCheckoutSession(context.Context, CheckoutRequest) (*Session, error) {
	return nil, ErrNotConfigured
}

func (Disabled) GetSession(context.Context, string) (*Session, error) {
	return nil, ErrNotConfigured
}

func (Disabled) ParseEvent([]byte, string) (*Event, error) {
	return nil, ErrNotConfigured
}
