// Package common defines shared constants and sentinel errors used across
// the Foodgram server layers. Callers should use errors.Is to match these
// values; services may wrap them with details via fmt.Errorf("%w: ...").
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// ErrorRelationNotFound is returned when removing a favorite, cart entry
	// or subscription that does not exist. It also matches ErrorNotFound.
	ErrorRelationNotFound = fmt.Errorf("relation %w", ErrorNotFound)

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorForbidden     = errors.New("forbidden")
	ErrorValidation    = errors.New("validation error")
	ErrorSelfReference = errors.New("self reference")

	// Auth errors (invalid, revoked or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
