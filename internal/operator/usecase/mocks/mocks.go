// Package mocks provides testify mocks for the operator use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/newsletter/internal/operator/domain"
)

// MockOperatorRepository is a mock implementation of usecase.OperatorRepository.
type MockOperatorRepository struct {
	mock.Mock
}

// Create mocks OperatorRepository.Create.
func (m *MockOperatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	args := m.Called(ctx, operator)
	return args.Error(0)
}

// GetByTokenHash mocks OperatorRepository.GetByTokenHash.
func (m *MockOperatorRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Operator, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operator), args.Error(1)
}

// MockOperatorUseCase is a mock implementation of usecase.OperatorUseCase.
type MockOperatorUseCase struct {
	mock.Mock
}

// Create mocks OperatorUseCase.Create.
func (m *MockOperatorUseCase) Create(ctx context.Context, name string) (*domain.Operator, string, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*domain.Operator), args.String(1), args.Error(2)
}

// Authenticate mocks OperatorUseCase.Authenticate.
func (m *MockOperatorUseCase) Authenticate(ctx context.Context, tokenHash string) (*domain.Operator, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operator), args.Error(1)
}
