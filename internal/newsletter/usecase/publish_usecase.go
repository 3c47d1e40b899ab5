package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/database"
	idempotencyDomain "github.com/allisson/newsletter/internal/idempotency/domain"
	idempotencyUseCase "github.com/allisson/newsletter/internal/idempotency/usecase"
	"github.com/allisson/newsletter/internal/newsletter/domain"
)

// maxTxAttempts bounds how often a publish transaction aborted by a deadlock
// or serialization failure is run again.
const maxTxAttempts = 3

// errKeyHeld aborts the publish transaction when another request owns the key.
var errKeyHeld = errors.New("idempotency key held by another request")

type acceptedBody struct {
	IssueID string `json:"issue_id"`
	Message string `json:"message"`
}

type publishUseCase struct {
	txManager     database.TxManager
	issueRepo     IssueRepository
	subscriberDir SubscriberDirectory
	queue         DeliveryQueue
	cache         idempotencyUseCase.ResponseCache
	gate          idempotencyUseCase.Gate
	logger        *slog.Logger
	now           func() time.Time
}

// NewPublishUseCase creates a PublishUseCase.
func NewPublishUseCase(
	txManager database.TxManager,
	issueRepo IssueRepository,
	subscriberDir SubscriberDirectory,
	queue DeliveryQueue,
	cache idempotencyUseCase.ResponseCache,
	gate idempotencyUseCase.Gate,
	logger *slog.Logger,
) PublishUseCase {
	return &publishUseCase{
		txManager:     txManager,
		issueRepo:     issueRepo,
		subscriberDir: subscriberDir,
		queue:         queue,
		cache:         cache,
		gate:          gate,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (p *publishUseCase) Publish(
	ctx context.Context,
	operatorID uuid.UUID,
	rawKey string,
	content domain.Content,
) (*idempotencyDomain.SavedResponse, error) {
	key, err := idempotencyDomain.ParseKey(rawKey)
	if err != nil {
		return nil, err
	}
	if err := content.Validate(); err != nil {
		return nil, err
	}
	fingerprint := idempotencyDomain.Fingerprint(content.Title, content.TextContent, content.HTMLContent)

	record, err := p.cache.Find(ctx, operatorID, key)
	if err == nil {
		return replay(record, fingerprint)
	}
	if !errors.Is(err, idempotencyDomain.ErrIdempotencyKeyNotFound) {
		return nil, err
	}

	var response *idempotencyDomain.SavedResponse
	for attempt := 1; ; attempt++ {
		response, err = p.publishOnce(ctx, operatorID, key, fingerprint, content)
		if err == nil || !database.IsRetryable(err) || attempt == maxTxAttempts || ctx.Err() != nil {
			break
		}
		// Concurrent claims of one key can deadlock on MySQL while the owner
		// commits; the next attempt sees the owner's outcome.
		if p.logger != nil {
			p.logger.Warn("retrying publish transaction",
				slog.String("operator_id", operatorID.String()),
				slog.String("idempotency_key", key.String()),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
		}
	}

	if errors.Is(err, errKeyHeld) {
		if p.logger != nil {
			p.logger.Info("waiting for concurrent request with the same idempotency key",
				slog.String("operator_id", operatorID.String()),
				slog.String("idempotency_key", key.String()),
			)
		}
		record, err := p.gate.Wait(ctx, operatorID, key)
		if err != nil {
			return nil, err
		}
		return replay(record, fingerprint)
	}
	if err != nil {
		return nil, err
	}
	return response, nil
}

// publishOnce claims the key and publishes the issue in one transaction.
func (p *publishUseCase) publishOnce(
	ctx context.Context,
	operatorID uuid.UUID,
	key idempotencyDomain.Key,
	fingerprint []byte,
	content domain.Content,
) (*idempotencyDomain.SavedResponse, error) {
	var response *idempotencyDomain.SavedResponse
	err := p.txManager.WithTx(ctx, func(ctx context.Context) error {
		claim, err := p.gate.TryClaim(ctx, operatorID, key, fingerprint)
		if err != nil {
			return err
		}
		if !claim.Acquired {
			return errKeyHeld
		}

		response, err = p.publishIssue(ctx, content)
		if err != nil {
			return err
		}
		return p.cache.Save(ctx, claim, response)
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// publishIssue runs the side effects of a publish inside the claim's transaction.
func (p *publishUseCase) publishIssue(
	ctx context.Context,
	content domain.Content,
) (*idempotencyDomain.SavedResponse, error) {
	now := p.now()

	issue, err := domain.NewIssue(content, now)
	if err != nil {
		return nil, err
	}
	if err := p.issueRepo.Create(ctx, issue); err != nil {
		return nil, err
	}

	subscribers, err := p.subscriberDir.ListConfirmed(ctx)
	if err != nil {
		return nil, err
	}
	subscriberIDs := make([]uuid.UUID, 0, len(subscribers))
	for _, subscriber := range subscribers {
		subscriberIDs = append(subscriberIDs, subscriber.ID)
	}

	queued, err := p.queue.Enqueue(ctx, issue.ID, subscriberIDs, now)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(acceptedBody{IssueID: issue.ID.String(), Message: domain.AcceptedMessage})
	if err != nil {
		return nil, err
	}

	if p.logger != nil {
		p.logger.Info("newsletter issue published",
			slog.String("issue_id", issue.ID.String()),
			slog.Int64("deliveries_queued", queued),
		)
	}

	return &idempotencyDomain.SavedResponse{
		StatusCode: http.StatusAccepted,
		Headers: []idempotencyDomain.HeaderPair{
			{Name: "Content-Type", Value: []byte("application/json; charset=utf-8")},
			{Name: "Location", Value: []byte("/v1/newsletters/" + issue.ID.String())},
		},
		Body: body,
	}, nil
}

// replay returns the stored response after checking that the key is still
// valid and was first used for the same content.
func replay(record *idempotencyDomain.Record, fingerprint []byte) (*idempotencyDomain.SavedResponse, error) {
	if !record.IsValid {
		return nil, idempotencyDomain.ErrIdempotencyKeyRevoked
	}
	if !record.Matches(fingerprint) {
		return nil, idempotencyDomain.ErrIdempotencyKeyReused
	}
	return record.Response, nil
}

func (p *publishUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Issue, error) {
	return p.issueRepo.GetByID(ctx, id)
}

func (p *publishUseCase) List(ctx context.Context, offset, limit int) ([]*domain.Issue, error) {
	return p.issueRepo.List(ctx, offset, limit)
}
