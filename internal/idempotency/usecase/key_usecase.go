package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/newsletter/internal/errors"
	"github.com/allisson/newsletter/internal/idempotency/domain"
)

type keyUseCase struct {
	repo Repository
}

// NewKeyUseCase creates a KeyUseCase backed by repo.
func NewKeyUseCase(repo Repository) KeyUseCase {
	return &keyUseCase{repo: repo}
}

func (k *keyUseCase) List(
	ctx context.Context,
	operatorID uuid.UUID,
	offset, limit int,
) ([]*domain.Record, error) {
	return k.repo.List(ctx, operatorID, offset, limit)
}

// SetValidity toggles whether a stored key may still be replayed. A revoked
// key makes later publishes with it fail instead of replaying.
func (k *keyUseCase) SetValidity(
	ctx context.Context,
	operatorID uuid.UUID,
	key domain.Key,
	valid bool,
) error {
	return k.repo.SetValidity(ctx, operatorID, key, valid)
}

// DeleteOlderThan purges completed keys created more than days ago.
func (k *keyUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("days must be non-negative, got %d", days))
	}
	olderThan := time.Now().UTC().AddDate(0, 0, -days)
	return k.repo.DeleteOlderThan(ctx, olderThan, dryRun)
}
