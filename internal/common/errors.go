// Package common defines shared constants and sentinel errors used across
// the storefront server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")

	// Validation errors.
	ErrValidation        = errors.New("validation error")
	ErrInvalidCredential = errors.New("invalid credential")

	// Order lifecycle errors.
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderCreation     = errors.New("order creation failed")

	// Account policy errors.
	ErrLastAdmin = errors.New("cannot remove the last admin")

	// External collaborators (image store, payment gateway).
	ErrUpstream = errors.New("upstream failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
