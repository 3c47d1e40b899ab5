package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/idempotency/domain"
)

const (
	defaultWaitTimeout  = 10 * time.Second
	defaultPollInterval = 50 * time.Millisecond
)

// GateConfig bounds how long a request waits for a concurrent owner of the same key.
// Non-positive values fall back to 10s and 50ms.
type GateConfig struct {
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// gate arbitrates claims through the ledger's primary key. The placeholder is
// written in the caller's transaction, so the claim disappears with a
// rollback and a crashed owner never leaves the key stuck.
type gate struct {
	repo   Repository
	cache  ResponseCache
	config GateConfig
	logger *slog.Logger
}

// NewGate creates a Gate over repo.
func NewGate(repo Repository, cache ResponseCache, config GateConfig, logger *slog.Logger) Gate {
	// A zero MaxElapsedTime would make the backoff poll forever.
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = defaultWaitTimeout
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollInterval
	}
	return &gate{
		repo:   repo,
		cache:  cache,
		config: config,
		logger: logger,
	}
}

func (g *gate) TryClaim(
	ctx context.Context,
	operatorID uuid.UUID,
	key domain.Key,
	fingerprint []byte,
) (*domain.Claim, error) {
	token, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	claim := &domain.Claim{
		OperatorID:  operatorID,
		Key:         key,
		Token:       token,
		Fingerprint: fingerprint,
	}

	acquired, err := g.repo.InsertPlaceholder(ctx, claim)
	if err != nil {
		return nil, err
	}
	claim.Acquired = acquired
	return claim, nil
}

func (g *gate) Wait(ctx context.Context, operatorID uuid.UUID, key domain.Key) (*domain.Record, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.config.PollInterval
	policy.MaxInterval = g.config.WaitTimeout / 4
	policy.MaxElapsedTime = g.config.WaitTimeout
	if policy.MaxInterval < policy.InitialInterval {
		policy.MaxInterval = policy.InitialInterval
	}

	attempts := 0
	record, err := backoff.RetryWithData(func() (*domain.Record, error) {
		attempts++
		record, err := g.cache.Find(ctx, operatorID, key)
		if err == nil {
			return record, nil
		}
		if errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}, backoff.WithContext(policy, ctx))

	if errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		if g.logger != nil {
			g.logger.Warn("gave up waiting for idempotency key",
				slog.String("operator_id", operatorID.String()),
				slog.String("idempotency_key", key.String()),
				slog.Int("attempts", attempts),
			)
		}
		return nil, domain.ErrClaimInProgress
	}
	return record, err
}
