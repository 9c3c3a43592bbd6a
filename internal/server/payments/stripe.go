package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/webhook"
)

type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeGateway talks to Stripe Checkout with its own API key; the
// package-level stripe.Key is never touched.
type StripeGateway struct {
	sessions      sessionAPI
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{
		sessions:      session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		webhookSecret: webhookSecret,
	}
}

func toSession(s *stripe.CheckoutSession) *Session {
	return &Session{
		ID:   s.ID,
		URL:  s.URL,
		Paid: s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(req.Item.Name),
	}
	if req.Item.ImageURL != "" {
		product.Images = []*string{stripe.String(req.Item.ImageURL)}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(req.Currency),
					UnitAmount:  stripe.Int64(req.Item.UnitMinor),
					ProductData: product,
				},
				Quantity: stripe.Int64(req.Item.Quantity),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.ClientReference != "" {
		params.ClientReferenceID = stripe.String(req.ClientReference)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return toSession(s), nil
}

func (g *StripeGateway) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get checkout session %s: %w", id, err)
	}
	return toSession(s), nil
}

func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("stripe: verify webhook: %w", err)
	}

	out := &Event{ID: ev.ID, Type: EventType(ev.Type)}
	switch out.Type {
	case EventSessionCompleted, EventSessionExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("stripe: decode checkout session: %w", err)
		}
		out.Session = *toSession(&s)
	}
	return out, nil
}
