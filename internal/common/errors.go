// Package common defines shared constants and sentinel errors used across
// cardkeeper packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Credential lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrNoSigningSecret is reported when a sensitive request leaves unsigned.
	ErrNoSigningSecret = errors.New("no signing secret configured")
)
