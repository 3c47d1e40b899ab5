// Package mocks provides testify mocks for the newsletter use cases.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	idempotencyDomain "github.com/allisson/newsletter/internal/idempotency/domain"
	"github.com/allisson/newsletter/internal/newsletter/domain"
	subscriberDomain "github.com/allisson/newsletter/internal/subscriber/domain"
)

// MockIssueRepository is a mock implementation of usecase.IssueRepository.
type MockIssueRepository struct {
	mock.Mock
}

// Create mocks IssueRepository.Create.
func (m *MockIssueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	args := m.Called(ctx, issue)
	return args.Error(0)
}

// GetByID mocks IssueRepository.GetByID.
func (m *MockIssueRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Issue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Issue), args.Error(1)
}

// List mocks IssueRepository.List.
func (m *MockIssueRepository) List(ctx context.Context, offset, limit int) ([]*domain.Issue, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Issue), args.Error(1)
}

// MockSubscriberDirectory is a mock implementation of usecase.SubscriberDirectory.
type MockSubscriberDirectory struct {
	mock.Mock
}

// ListConfirmed mocks SubscriberDirectory.ListConfirmed.
func (m *MockSubscriberDirectory) ListConfirmed(ctx context.Context) ([]*subscriberDomain.Subscriber, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscriberDomain.Subscriber), args.Error(1)
}

// MockDeliveryQueue is a mock implementation of usecase.DeliveryQueue.
type MockDeliveryQueue struct {
	mock.Mock
}

// Enqueue mocks DeliveryQueue.Enqueue.
func (m *MockDeliveryQueue) Enqueue(
	ctx context.Context,
	issueID uuid.UUID,
	subscriberIDs []uuid.UUID,
	now time.Time,
) (int64, error) {
	args := m.Called(ctx, issueID, subscriberIDs, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockPublishUseCase is a mock implementation of usecase.PublishUseCase.
type MockPublishUseCase struct {
	mock.Mock
}

// Publish mocks PublishUseCase.Publish.
func (m *MockPublishUseCase) Publish(
	ctx context.Context,
	operatorID uuid.UUID,
	key string,
	content domain.Content,
) (*idempotencyDomain.SavedResponse, error) {
	args := m.Called(ctx, operatorID, key, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idempotencyDomain.SavedResponse), args.Error(1)
}

// Get mocks PublishUseCase.Get.
func (m *MockPublishUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Issue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Issue), args.Error(1)
}

// List mocks PublishUseCase.List.
func (m *MockPublishUseCase) List(ctx context.Context, offset, limit int) ([]*domain.Issue, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Issue), args.Error(1)
}
