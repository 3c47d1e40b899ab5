// Package mocks provides testify mocks for the subscriber use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/newsletter/internal/subscriber/domain"
)

// MockSubscriberRepository is a mock implementation of usecase.SubscriberRepository.
type MockSubscriberRepository struct {
	mock.Mock
}

// Create mocks SubscriberRepository.Create.
func (m *MockSubscriberRepository) Create(ctx context.Context, subscriber *domain.Subscriber) error {
	args := m.Called(ctx, subscriber)
	return args.Error(0)
}

// GetByID mocks SubscriberRepository.GetByID.
func (m *MockSubscriberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscriber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscriber), args.Error(1)
}

// ListConfirmed mocks SubscriberRepository.ListConfirmed.
func (m *MockSubscriberRepository) ListConfirmed(ctx context.Context) ([]*domain.Subscriber, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Subscriber), args.Error(1)
}

// MockSubscriberUseCase is a mock implementation of usecase.SubscriberUseCase.
type MockSubscriberUseCase struct {
	mock.Mock
}

// Add mocks SubscriberUseCase.Add.
func (m *MockSubscriberUseCase) Add(
	ctx context.Context,
	email, name string,
	confirmed bool,
) (*domain.Subscriber, error) {
	args := m.Called(ctx, email, name, confirmed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscriber), args.Error(1)
}
