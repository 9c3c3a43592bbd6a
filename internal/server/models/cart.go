package models

import "time"

// CartEntry links an account to a product it intends to buy. Product is
// populated on reads.
type CartEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
	Product   *Product  `json:"product,omitempty"`
}
