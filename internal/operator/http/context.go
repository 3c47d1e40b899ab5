// Package http authenticates operators and limits their request rate.
package http

import (
	"context"

	"github.com/allisson/newsletter/internal/operator/domain"
)

type operatorKey struct{}

// WithOperator stores the authenticated operator in the context.
func WithOperator(ctx context.Context, operator *domain.Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, operator)
}

// GetOperator returns the operator set by AuthenticationMiddleware.
func GetOperator(ctx context.Context) (*domain.Operator, bool) {
	operator, ok := ctx.Value(operatorKey{}).(*domain.Operator)
	return operator, ok && operator != nil
}
