package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/idempotency/domain"
)

type responseCache struct {
	repo Repository
}

// NewResponseCache creates a ResponseCache backed by repo.
func NewResponseCache(repo Repository) ResponseCache {
	return &responseCache{repo: repo}
}

func (c *responseCache) Lookup(
	ctx context.Context,
	operatorID uuid.UUID,
	key domain.Key,
) (*domain.SavedResponse, error) {
	record, err := c.Find(ctx, operatorID, key)
	if err != nil {
		return nil, err
	}
	return record.Response, nil
}

func (c *responseCache) Find(
	ctx context.Context,
	operatorID uuid.UUID,
	key domain.Key,
) (*domain.Record, error) {
	record, err := c.repo.Get(ctx, operatorID, key)
	if err != nil {
		return nil, err
	}
	// A placeholder only exists inside an open claim transaction.
	if !record.Completed() {
		return nil, domain.ErrIdempotencyKeyNotFound
	}
	return record, nil
}

func (c *responseCache) Save(
	ctx context.Context,
	claim *domain.Claim,
	response *domain.SavedResponse,
) error {
	saved, err := c.repo.SaveResponse(ctx, claim, response)
	if err != nil {
		return err
	}
	if !saved {
		return domain.ErrResponseAlreadySaved
	}
	return nil
}
