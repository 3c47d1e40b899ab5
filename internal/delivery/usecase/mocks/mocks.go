// Package mocks provides testify mocks for the delivery use cases.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/newsletter/internal/delivery/domain"
	"github.com/allisson/newsletter/internal/email"
	newsletterDomain "github.com/allisson/newsletter/internal/newsletter/domain"
	subscriberDomain "github.com/allisson/newsletter/internal/subscriber/domain"
)

// MockQueueRepository is a mock implementation of usecase.QueueRepository.
type MockQueueRepository struct {
	mock.Mock
}

// Enqueue mocks QueueRepository.Enqueue.
func (m *MockQueueRepository) Enqueue(
	ctx context.Context,
	issueID uuid.UUID,
	subscriberIDs []uuid.UUID,
	now time.Time,
) (int64, error) {
	args := m.Called(ctx, issueID, subscriberIDs, now)
	return args.Get(0).(int64), args.Error(1)
}

// Dequeue mocks QueueRepository.Dequeue.
func (m *MockQueueRepository) Dequeue(ctx context.Context, now time.Time) (*domain.Entry, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

// Delete mocks QueueRepository.Delete.
func (m *MockQueueRepository) Delete(ctx context.Context, entry *domain.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// Reschedule mocks QueueRepository.Reschedule.
func (m *MockQueueRepository) Reschedule(ctx context.Context, entry *domain.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// CountPending mocks QueueRepository.CountPending.
func (m *MockQueueRepository) CountPending(ctx context.Context, issueID uuid.UUID) (int64, error) {
	args := m.Called(ctx, issueID)
	return args.Get(0).(int64), args.Error(1)
}

// MockIssueReader is a mock implementation of usecase.IssueReader.
type MockIssueReader struct {
	mock.Mock
}

// GetByID mocks IssueReader.GetByID.
func (m *MockIssueReader) GetByID(ctx context.Context, id uuid.UUID) (*newsletterDomain.Issue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*newsletterDomain.Issue), args.Error(1)
}

// MockSubscriberReader is a mock implementation of usecase.SubscriberReader.
type MockSubscriberReader struct {
	mock.Mock
}

// GetByID mocks SubscriberReader.GetByID.
func (m *MockSubscriberReader) GetByID(ctx context.Context, id uuid.UUID) (*subscriberDomain.Subscriber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriberDomain.Subscriber), args.Error(1)
}

// MockTransport is a mock implementation of usecase.Transport.
type MockTransport struct {
	mock.Mock
}

// Send mocks Transport.Send.
func (m *MockTransport) Send(ctx context.Context, msg email.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockWorker is a mock implementation of usecase.Worker.
type MockWorker struct {
	mock.Mock
}

// Run mocks Worker.Run.
func (m *MockWorker) Run(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// TryExecuteTask mocks Worker.TryExecuteTask.
func (m *MockWorker) TryExecuteTask(ctx context.Context) (domain.ExecutionOutcome, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.ExecutionOutcome), args.Error(1)
}

// RunUntilEmpty mocks Worker.RunUntilEmpty.
func (m *MockWorker) RunUntilEmpty(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// PendingCount mocks Worker.PendingCount.
func (m *MockWorker) PendingCount(ctx context.Context, issueID uuid.UUID) (int64, error) {
	args := m.Called(ctx, issueID)
	return args.Get(0).(int64), args.Error(1)
}
