// Package domain defines the idempotency ledger entities and errors.
package domain

import (
	"github.com/allisson/newsletter/internal/errors"
)

// Idempotency-specific error definitions.
var (
	// ErrIdempotencyKeyEmpty indicates a request carried a blank idempotency key.
	ErrIdempotencyKeyEmpty = errors.Wrap(errors.ErrInvalidInput, "idempotency key cannot be empty")

	// ErrIdempotencyKeyTooLong indicates the key exceeds MaxKeyLength characters.
	ErrIdempotencyKeyTooLong = errors.Wrap(errors.ErrInvalidInput, "idempotency key is too long")

	// ErrIdempotencyKeyMalformed indicates the key is not valid UTF-8, holds
	// control characters or has leading or trailing whitespace.
	ErrIdempotencyKeyMalformed = errors.Wrap(
		errors.ErrInvalidInput,
		"idempotency key must be printable UTF-8 without surrounding whitespace",
	)

	// ErrIdempotencyKeyNotFound indicates no completed response is stored for the key.
	ErrIdempotencyKeyNotFound = errors.Wrap(errors.ErrNotFound, "idempotency key not found")

	// ErrResponseAlreadySaved indicates a different claim already completed the key.
	ErrResponseAlreadySaved = errors.Wrap(errors.ErrConflict, "response already saved for idempotency key")

	// ErrClaimInProgress indicates another request still holds the key after the wait budget.
	ErrClaimInProgress = errors.Wrap(errors.ErrConflict, "idempotency key is being processed by another request")

	// ErrIdempotencyKeyReused indicates the key was first used with a different request body.
	ErrIdempotencyKeyReused = errors.Wrap(
		errors.ErrInvalidInput,
		"idempotency key was already used with a different request",
	)

	// ErrIdempotencyKeyRevoked indicates an operator invalidated the key.
	ErrIdempotencyKeyRevoked = errors.Wrap(errors.ErrConflict, "idempotency key has been revoked")
)
