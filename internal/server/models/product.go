package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item. Price is in major currency units.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	CreatedAt   time.Time       `json:"createdAt"`
}
