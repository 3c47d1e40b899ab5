// Package usecase manages operators and authenticates their bearer tokens.
package usecase

import (
	"context"

	"github.com/allisson/newsletter/internal/operator/domain"
)

// OperatorRepository defines persistence operations for operators.
type OperatorRepository interface {
	Create(ctx context.Context, operator *domain.Operator) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Operator, error)
}

// OperatorUseCase defines operator management and authentication.
type OperatorUseCase interface {
	// Create stores a new active operator and returns it with its plain
	// token. The token is not recoverable afterwards.
	Create(ctx context.Context, name string) (*domain.Operator, string, error)
	// Authenticate resolves a token hash to an active operator.
	Authenticate(ctx context.Context, tokenHash string) (*domain.Operator, error)
}
