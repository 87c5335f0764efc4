// Package common defines sentinel errors shared by the Wheel Vault client
// layers. Callers should match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrIntegrity reports a cache state that should be impossible, e.g. two
	// rows sharing an id that is declared unique.
	ErrIntegrity = errors.New("data integrity violation")

	// ErrStale reports a row that changed after the caller read it.
	ErrStale = errors.New("row changed since read")

	// Backend errors.
	ErrUnavailable  = errors.New("backend unavailable")
	ErrUnauthorized = errors.New("unauthorized")

	// Session errors.
	ErrNoSession     = errors.New("no session")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidEntity = errors.New("invalid entity")
)
