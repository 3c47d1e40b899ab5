// Package usecase runs the background delivery of queued newsletter issues.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/delivery/domain"
	"github.com/allisson/newsletter/internal/email"
	newsletterDomain "github.com/allisson/newsletter/internal/newsletter/domain"
	subscriberDomain "github.com/allisson/newsletter/internal/subscriber/domain"
)

// QueueRepository defines persistence operations for the delivery queue.
type QueueRepository interface {
	Enqueue(ctx context.Context, issueID uuid.UUID, subscriberIDs []uuid.UUID, now time.Time) (int64, error)
	Dequeue(ctx context.Context, now time.Time) (*domain.Entry, error)
	Delete(ctx context.Context, entry *domain.Entry) error
	Reschedule(ctx context.Context, entry *domain.Entry) error
	CountPending(ctx context.Context, issueID uuid.UUID) (int64, error)
}

// IssueReader loads the issue being delivered.
type IssueReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*newsletterDomain.Issue, error)
}

// SubscriberReader loads the recipient of a delivery.
type SubscriberReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*subscriberDomain.Subscriber, error)
}

// Transport sends one email. Errors wrapping email.ErrPermanentDelivery are
// not retried.
type Transport interface {
	Send(ctx context.Context, msg email.Message) error
}

// Worker drains the delivery queue.
type Worker interface {
	// Run processes entries until ctx is cancelled, returning nil, or until a
	// loop hits too many consecutive storage errors.
	Run(ctx context.Context) error
	// TryExecuteTask processes at most one ready entry in its own transaction.
	TryExecuteTask(ctx context.Context) (domain.ExecutionOutcome, error)
	// RunUntilEmpty processes entries until none is ready and returns how many were handled.
	RunUntilEmpty(ctx context.Context) (int, error)
	// PendingCount returns how many deliveries of an issue are still queued.
	PendingCount(ctx context.Context, issueID uuid.UUID) (int64, error)
}
