// Package domain defines the subscriber directory entities.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/errors"
)

// Status is the subscription lifecycle state.
type Status string

const (
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusConfirmed           Status = "confirmed"
)

// Subscriber is a newsletter recipient. Only confirmed subscribers receive issues.
type Subscriber struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Status       Status
	SubscribedAt time.Time
}

// IsConfirmed reports whether the subscriber is eligible for delivery.
func (s *Subscriber) IsConfirmed() bool {
	return s.Status == StatusConfirmed
}

var (
	// ErrSubscriberNotFound indicates no subscriber with the given id exists.
	ErrSubscriberNotFound = errors.Wrap(errors.ErrNotFound, "subscriber not found")

	// ErrSubscriberAlreadyExists indicates the email address is already subscribed.
	ErrSubscriberAlreadyExists = errors.Wrap(errors.ErrConflict, "subscriber already exists")
)
