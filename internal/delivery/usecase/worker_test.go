package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	databaseMocks "github.com/allisson/newsletter/internal/database/mocks"
	"github.com/allisson/newsletter/internal/delivery/domain"
	"github.com/allisson/newsletter/internal/delivery/usecase/mocks"
	"github.com/allisson/newsletter/internal/email"
	newsletterDomain "github.com/allisson/newsletter/internal/newsletter/domain"
	subscriberDomain "github.com/allisson/newsletter/internal/subscriber/domain"
)

type workerFixture struct {
	txManager   *databaseMocks.MockTxManager
	queue       *mocks.MockQueueRepository
	issues      *mocks.MockIssueReader
	subscribers *mocks.MockSubscriberReader
	transport   *mocks.MockTransport
	worker      *worker
}

func testConfig() Config {
	return Config{
		Concurrency:          1,
		PollInterval:         10 * time.Millisecond,
		ErrorInterval:        time.Millisecond,
		MaxAttempts:          3,
		MaxConsecutiveErrors: 3,
		SendTimeout:          time.Second,
		RetryBaseDelay:       time.Second,
		RetryMaxDelay:        time.Minute,
	}
}

func newWorkerFixture(config Config) *workerFixture {
	f := &workerFixture{
		txManager:   &databaseMocks.MockTxManager{},
		queue:       &mocks.MockQueueRepository{},
		issues:      &mocks.MockIssueReader{},
		subscribers: &mocks.MockSubscriberReader{},
		transport:   &mocks.MockTransport{},
	}
	f.txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
	f.worker = NewWorker(
		config,
		f.txManager,
		f.queue,
		f.issues,
		f.subscribers,
		f.transport,
		nil,
		nil,
	).(*worker)
	return f
}

func testIssue() *newsletterDomain.Issue {
	return &newsletterDomain.Issue{
		ID:          uuid.Must(uuid.NewV7()),
		Title:       "Issue #1",
		TextContent: "Hello",
		HTMLContent: "<p>Hello</p>",
		PublishedAt: time.Now().UTC(),
	}
}

func confirmedSubscriber() *subscriberDomain.Subscriber {
	return &subscriberDomain.Subscriber{
		ID:     uuid.Must(uuid.NewV7()),
		Email:  "reader@example.com",
		Name:   "Reader",
		Status: subscriberDomain.StatusConfirmed,
	}
}

func (f *workerFixture) expectEntry(issue *newsletterDomain.Issue, subscriber *subscriberDomain.Subscriber, retries int) *domain.Entry {
	entry := &domain.Entry{IssueID: issue.ID, SubscriberID: subscriber.ID, NRetries: retries}
	f.queue.On("Dequeue", mock.Anything, mock.Anything).Return(entry, nil).Once()
	f.issues.On("GetByID", mock.Anything, issue.ID).Return(issue, nil).Once()
	f.subscribers.On("GetByID", mock.Anything, subscriber.ID).Return(subscriber, nil).Once()
	return entry
}

func TestWorker_TryExecuteTask(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_EmptyQueue", func(t *testing.T) {
		f := newWorkerFixture(testConfig())
		f.queue.On("Dequeue", mock.Anything, mock.Anything).Return(nil, domain.ErrQueueEmpty).Once()

		outcome, err := f.worker.TryExecuteTask(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.EmptyQueue, outcome)
		f.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("Success_DeliveredEntryIsDeleted", func(t *testing.T) {
		f := newWorkerFixture(testConfig())
		issue, subscriber := testIssue(), confirmedSubscriber()
		entry := f.expectEntry(issue, subscriber, 0)

		f.transport.On("Send", mock.Anything, email.Message{
			To:       "reader@example.com",
			Subject:  "Issue #1",
			HTMLBody: "<p>Hello</p>",
			TextBody: "Hello",
		}).Return(nil).Once()
		f.queue.On("Delete", mock.Anything, entry).Return(nil).Once()

		outcome, err := f.worker.TryExecuteTask(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskCompleted, outcome)
		f.queue.AssertExpectations(t)
		f.transport.AssertExpectations(t)
	})

	t.Run("Success_TransientFailureIsRescheduled", func(t *testing.T) {
		f := newWorkerFixture(testConfig())
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		f.worker.now = func() time.Time { return now }
		issue, subscriber := testIssue(), confirmedSubscriber()
		f.expectEntry(issue, subscriber, 0)

		f.transport.On("Send", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
		f.queue.On("Reschedule", mock.Anything, mock.MatchedBy(func(e *domain.Entry) bool {
			return e.NRetries == 1 && e.ExecuteAfter.After(now)
		})).Return(nil).Once()

		outcome, err := f.worker.TryExecuteTask(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskCompleted, outcome)
		f.queue.AssertExpectations(t)
		f.queue.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Success_TransientFailureAtCeilingIsAbandoned", func(t *testing.T) {
		f := newWorkerFixture(testConfig())
		issue, subscriber := testIssue(), confirmedSubscriber()
		entry := f.expectEntry(issue, subscriber, 2)

		f.transport.On("Send", mock.Anything, mock.Anything).Return(errors.New("timeout")).Once()
		f.queue.On("Delete", mock.Anything, entry).Return(nil).Once()

		_, err := f.worker.TryExecuteTask(ctx)
		require.NoError(t, err)
		f.queue.AssertExpectations(t)
		f.queue.AssertNotCalled(t, "Reschedule", mock.Anything, mock.Anything)
	})

	t.Run("Success_PermanentFailureIsAbandoned", func(t *testing.T) {
		f := newWorkerFixture(testConfig())
		issue, subscriber := testIssue(), confirmedSubscriber()
		entry := f.expectEntry(issue, subscriber, 0)

		f.transport.On("Send", mock.Anything, mock.Anything).
			Return(email.Permanent(errors.New("inactive recipient"))).Once()
		f.queue.On("Delete", mock.Anything, entry).Return(nil).Once()

		_, err := f.worker.TryExecuteTask(ctx)
		require.NoError(t, err)
		f.queue.AssertExpectations(t)
	})

	t.Run("Success_UnconfirmedSubscriberIsNotSent", func(t *testing.T) {
		f := newWorkerFixture(testConfig())
		issue, subscriber := testIssue(), confirmedSubscriber()
		subscriber.Status = subscriberDomain.StatusPendingConfirmation
		entry := f.expectEntry(issue, subscriber, 0)
		f.queue.On("Delete", mock.Anything, entry).Return(nil).Once()

		_, err := f.worker.TryExecuteTask(ctx)
		require.NoError(t, err)
		f.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("Success_InvalidAddressIsNotSent", func(t *testing.T) {
		f := newWorkerFixture(testConfig())
		issue, subscriber := testIssue(), confirmedSubscriber()
		subscriber.Email = "not-an-address"
		entry := f.expectEntry(issue, subscriber, 0)
		f.queue.On("Delete", mock.Anything, entry).Return(nil).Once()

		_, err := f.worker.TryExecuteTask(ctx)
		require.NoError(t, err)
		f.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("Success_MissingSubscriberIsAbandoned", func(t *testing.T) {
		f := newWorkerFixture(testConfig())
		issue := testIssue()
		entry := &domain.Entry{IssueID: issue.ID, SubscriberID: uuid.Must(uuid.NewV7())}
		f.queue.On("Dequeue", mock.Anything, mock.Anything).Return(entry, nil).Once()
		f.issues.On("GetByID", mock.Anything, issue.ID).Return(issue, nil).Once()
		f.subscribers.On("GetByID", mock.Anything, entry.SubscriberID).
			Return(nil, subscriberDomain.ErrSubscriberNotFound).Once()
		f.queue.On("Delete", mock.Anything, entry).Return(nil).Once()

		_, err := f.worker.TryExecuteTask(ctx)
		require.NoError(t, err)
		f.queue.AssertExpectations(t)
	})

	t.Run("Error_StorageFailureLeavesEntry", func(t *testing.T) {
		f := newWorkerFixture(testConfig())
		issue := testIssue()
		entry := &domain.Entry{IssueID: issue.ID, SubscriberID: uuid.Must(uuid.NewV7())}
		f.queue.On("Dequeue", mock.Anything, mock.Anything).Return(entry, nil).Once()
		f.issues.On("GetByID", mock.Anything, issue.ID).Return(nil, assert.AnError).Once()

		_, err := f.worker.TryExecuteTask(ctx)
		assert.ErrorIs(t, err, assert.AnError)
		f.queue.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		f.queue.AssertNotCalled(t, "Reschedule", mock.Anything, mock.Anything)
	})
}

// memoryQueue holds a single entry and ignores execute_after so retries run back to back.
type memoryQueue struct {
	entry *domain.Entry
}

func (q *memoryQueue) Enqueue(context.Context, uuid.UUID, []uuid.UUID, time.Time) (int64, error) {
	return 0, nil
}

func (q *memoryQueue) Dequeue(context.Context, time.Time) (*domain.Entry, error) {
	if q.entry == nil {
		return nil, domain.ErrQueueEmpty
	}
	copied := *q.entry
	return &copied, nil
}

func (q *memoryQueue) Delete(context.Context, *domain.Entry) error {
	q.entry = nil
	return nil
}

func (q *memoryQueue) Reschedule(_ context.Context, entry *domain.Entry) error {
	copied := *entry
	q.entry = &copied
	return nil
}

func (q *memoryQueue) CountPending(context.Context, uuid.UUID) (int64, error) {
	if q.entry == nil {
		return 0, nil
	}
	return 1, nil
}

func TestWorker_RetryCeilingBoundsTransportCalls(t *testing.T) {
	config := testConfig()
	config.MaxAttempts = 4

	issue, subscriber := testIssue(), confirmedSubscriber()
	queue := &memoryQueue{entry: &domain.Entry{IssueID: issue.ID, SubscriberID: subscriber.ID}}

	txManager := &databaseMocks.MockTxManager{}
	txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
	issues := &mocks.MockIssueReader{}
	issues.On("GetByID", mock.Anything, issue.ID).Return(issue, nil)
	subscribers := &mocks.MockSubscriberReader{}
	subscribers.On("GetByID", mock.Anything, subscriber.ID).Return(subscriber, nil)
	transport := &mocks.MockTransport{}
	transport.On("Send", mock.Anything, mock.Anything).Return(errors.New("503 from provider"))

	w := NewWorker(config, txManager, queue, issues, subscribers, transport, nil, nil)

	processed, err := w.RunUntilEmpty(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.MaxAttempts, processed)
	transport.AssertNumberOfCalls(t, "Send", config.MaxAttempts)

	pending, err := w.PendingCount(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestWorker_RetryDelay(t *testing.T) {
	f := newWorkerFixture(testConfig())

	first := f.worker.retryDelay(1)
	assert.GreaterOrEqual(t, first, 500*time.Millisecond)
	assert.LessOrEqual(t, first, 1500*time.Millisecond)

	for failures := 1; failures < 20; failures++ {
		assert.LessOrEqual(t, f.worker.retryDelay(failures), time.Minute+30*time.Second)
	}
}

func TestWorker_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("Success_StopsOnCancel", func(t *testing.T) {
		config := testConfig()
		config.Concurrency = 3
		f := newWorkerFixture(config)
		f.queue.On("Dequeue", mock.Anything, mock.Anything).Return(nil, domain.ErrQueueEmpty)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- f.worker.Run(ctx) }()

		time.Sleep(30 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("worker did not stop after cancellation")
		}
	})

	t.Run("Error_StopsAfterConsecutiveStorageErrors", func(t *testing.T) {
		f := newWorkerFixture(testConfig())
		f.queue.On("Dequeue", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		err := f.worker.Run(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "3 consecutive errors")
		f.queue.AssertNumberOfCalls(t, "Dequeue", 3)
	})
}

func TestNewWorker_NormalizesConfig(t *testing.T) {
	f := newWorkerFixture(Config{})

	assert.Equal(t, 1, f.worker.config.Concurrency)
	assert.Equal(t, 1, f.worker.config.MaxAttempts)
	assert.Equal(t, defaultSendTimeout, f.worker.config.SendTimeout)

	config := testConfig()
	config.SendTimeout = -time.Second
	f = newWorkerFixture(config)
	assert.Equal(t, defaultSendTimeout, f.worker.config.SendTimeout)

	f = newWorkerFixture(testConfig())
	assert.Equal(t, time.Second, f.worker.config.SendTimeout)
}
