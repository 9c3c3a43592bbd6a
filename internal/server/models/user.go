// Package models defines server-side data models persisted in the database
// and the inputs accepted by the service layer.
package models

import "time"

// User is a storefront account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Address      string    `json:"address"`
	ProfileImage string    `json:"profileImage"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}
