// Package domain defines the delivery queue and the outcome of a delivery attempt.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/errors"
)

// ErrQueueEmpty indicates no entry is ready for execution.
var ErrQueueEmpty = errors.Wrap(errors.ErrNotFound, "no delivery ready for execution")

// Entry is one pending (issue, subscriber) delivery. The pair is unique, so a
// subscriber is enqueued at most once per issue.
type Entry struct {
	IssueID      uuid.UUID
	SubscriberID uuid.UUID
	NRetries     int
	ExecuteAfter time.Time
	CreatedAt    time.Time
}

// Outcome classifies a single delivery attempt.
type Outcome int

const (
	// Delivered means the transport accepted the message.
	Delivered Outcome = iota
	// TransientFailure means the attempt may succeed if retried later.
	TransientFailure
	// PermanentFailure means retrying cannot succeed.
	PermanentFailure
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case TransientFailure:
		return "transient_failure"
	case PermanentFailure:
		return "permanent_failure"
	default:
		return "unknown"
	}
}

// ExecutionOutcome reports what one worker iteration did.
type ExecutionOutcome int

const (
	// TaskCompleted means an entry was processed and retired or rescheduled.
	TaskCompleted ExecutionOutcome = iota
	// EmptyQueue means nothing was ready to run.
	EmptyQueue
)
