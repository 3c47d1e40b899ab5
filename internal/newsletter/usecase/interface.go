// Package usecase publishes newsletter issues. A publish stores the issue,
// queues one delivery per confirmed subscriber and records the response under
// the caller's idempotency key in a single transaction.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	idempotencyDomain "github.com/allisson/newsletter/internal/idempotency/domain"
	"github.com/allisson/newsletter/internal/newsletter/domain"
	subscriberDomain "github.com/allisson/newsletter/internal/subscriber/domain"
)

// IssueRepository defines persistence operations for newsletter issues.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Issue, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Issue, error)
}

// SubscriberDirectory lists the recipients of a new issue.
type SubscriberDirectory interface {
	ListConfirmed(ctx context.Context) ([]*subscriberDomain.Subscriber, error)
}

// DeliveryQueue records pending deliveries.
type DeliveryQueue interface {
	Enqueue(ctx context.Context, issueID uuid.UUID, subscriberIDs []uuid.UUID, now time.Time) (int64, error)
}

// PublishUseCase defines newsletter publishing and reading.
type PublishUseCase interface {
	// Publish is safe to retry with the same key: every call with a given
	// (operator, key) returns the response of the first successful call and
	// the issue is stored and queued once.
	Publish(
		ctx context.Context,
		operatorID uuid.UUID,
		key string,
		content domain.Content,
	) (*idempotencyDomain.SavedResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Issue, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Issue, error)
}
