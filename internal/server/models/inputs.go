package models

import (
	"io"

	"github.com/shopspring/decimal"
)

// ImageUpload is an image received from a client, not yet stored.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProfileUpdate is a partial account update made by the account owner.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Name         *string
	Email        *string
	Address      *string
	ProfileImage *ImageUpload
}

// AccountUpdate is a partial account update made by an admin.
type AccountUpdate struct {
	Name    *string
	Email   *string
	IsAdmin *bool
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       *ImageUpload
}

// ProductUpdate is a partial product update. Nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Image       *ImageUpload
}

// OrderRequest is what a client submits to place an order. Quantity 0 means
// the default of one item.
type OrderRequest struct {
	AccountID string
	ProductID string
	Size      string
	Method    string
	Address   string
	Quantity  int
	Design    *ImageUpload
}

// CheckoutResult is returned after a hosted payment session is opened.
type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	OrderID   string `json:"orderId"`
}

// Summary is the account dashboard view.
type Summary struct {
	Orders     []*Order        `json:"orders"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
	CartItems  int             `json:"cartItems"`
}
