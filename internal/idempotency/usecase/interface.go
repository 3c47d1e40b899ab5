// Package usecase implements the idempotency ledger, the concurrency gate that
// serializes requests sharing a key, and key administration.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/idempotency/domain"
)

// Repository defines persistence operations for the idempotency ledger.
type Repository interface {
	InsertPlaceholder(ctx context.Context, claim *domain.Claim) (bool, error)
	Get(ctx context.Context, operatorID uuid.UUID, key domain.Key) (*domain.Record, error)
	SaveResponse(ctx context.Context, claim *domain.Claim, response *domain.SavedResponse) (bool, error)
	SetValidity(ctx context.Context, operatorID uuid.UUID, key domain.Key, valid bool) error
	List(ctx context.Context, operatorID uuid.UUID, offset, limit int) ([]*domain.Record, error)
	DeleteOlderThan(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error)
}

// ResponseCache stores and returns the response produced for a key.
type ResponseCache interface {
	// Lookup returns the saved response, or ErrIdempotencyKeyNotFound when the
	// key is unknown or not yet completed. It never mutates state.
	Lookup(ctx context.Context, operatorID uuid.UUID, key domain.Key) (*domain.SavedResponse, error)
	// Find is Lookup returning the whole completed ledger record.
	Find(ctx context.Context, operatorID uuid.UUID, key domain.Key) (*domain.Record, error)
	// Save completes the key held by claim. It fails with ErrResponseAlreadySaved
	// when the key was completed under another claim.
	Save(ctx context.Context, claim *domain.Claim, response *domain.SavedResponse) error
}

// Gate guarantees that at most one request per (operator, key) runs the
// side-effecting path.
type Gate interface {
	// TryClaim must run inside the transaction that performs the side effects.
	// Claim.Acquired is false when another request already owns or completed
	// the key.
	TryClaim(
		ctx context.Context,
		operatorID uuid.UUID,
		key domain.Key,
		fingerprint []byte,
	) (*domain.Claim, error)
	// Wait blocks until the key's owner completes it and returns the record.
	// It fails with ErrClaimInProgress once the wait budget is spent.
	Wait(ctx context.Context, operatorID uuid.UUID, key domain.Key) (*domain.Record, error)
}

// KeyUseCase administers stored idempotency keys.
type KeyUseCase interface {
	List(ctx context.Context, operatorID uuid.UUID, offset, limit int) ([]*domain.Record, error)
	SetValidity(ctx context.Context, operatorID uuid.UUID, key domain.Key, valid bool) error
	DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)
}
