// Package domain defines operators, the authenticated callers of the API.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/errors"
)

// Operator-specific error definitions.
var (
	// ErrOperatorNotFound indicates no operator matches the lookup.
	ErrOperatorNotFound = errors.Wrap(errors.ErrNotFound, "operator not found")

	// ErrOperatorAlreadyExists indicates an operator with the same name exists.
	ErrOperatorAlreadyExists = errors.Wrap(errors.ErrConflict, "operator already exists")

	// ErrInvalidToken indicates the bearer token matches no operator.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid token")

	// ErrOperatorInactive indicates the operator was disabled.
	ErrOperatorInactive = errors.Wrap(errors.ErrForbidden, "operator is inactive")
)

// Operator is an API caller allowed to publish issues. Idempotency keys are
// scoped to the operator. Only the SHA-256 hash of the token is kept.
type Operator struct {
	ID        uuid.UUID
	Name      string
	TokenHash string
	IsActive  bool
	CreatedAt time.Time
}
