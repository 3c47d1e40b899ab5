// Package usecase manages the subscriber directory.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/subscriber/domain"
)

// SubscriberRepository defines persistence operations for subscriptions.
type SubscriberRepository interface {
	Create(ctx context.Context, subscriber *domain.Subscriber) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscriber, error)
	ListConfirmed(ctx context.Context) ([]*domain.Subscriber, error)
}

// SubscriberUseCase adds recipients to the directory.
type SubscriberUseCase interface {
	// Add stores a subscriber. Unconfirmed subscribers are kept but receive
	// no issues until confirmed.
	Add(ctx context.Context, email, name string, confirmed bool) (*domain.Subscriber, error)
}
