package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	idempotencyDomain "github.com/allisson/newsletter/internal/idempotency/domain"
	"github.com/allisson/newsletter/internal/metrics"
	"github.com/allisson/newsletter/internal/newsletter/domain"
)

// publishUseCaseWithMetrics decorates PublishUseCase with metrics instrumentation.
type publishUseCaseWithMetrics struct {
	next    PublishUseCase
	metrics metrics.BusinessMetrics
}

// NewPublishUseCaseWithMetrics wraps a PublishUseCase with metrics recording.
func NewPublishUseCaseWithMetrics(useCase PublishUseCase, m metrics.BusinessMetrics) PublishUseCase {
	return &publishUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (p *publishUseCaseWithMetrics) Publish(
	ctx context.Context,
	operatorID uuid.UUID,
	key string,
	content domain.Content,
) (*idempotencyDomain.SavedResponse, error) {
	start := time.Now()
	response, err := p.next.Publish(ctx, operatorID, key, content)
	p.observe(ctx, "publish", start, err)
	return response, err
}

func (p *publishUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*domain.Issue, error) {
	start := time.Now()
	issue, err := p.next.Get(ctx, id)
	p.observe(ctx, "issue_get", start, err)
	return issue, err
}

func (p *publishUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*domain.Issue, error) {
	start := time.Now()
	issues, err := p.next.List(ctx, offset, limit)
	p.observe(ctx, "issue_list", start, err)
	return issues, err
}

func (p *publishUseCaseWithMetrics) observe(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordOperation(ctx, "newsletter", operation, status)
	p.metrics.RecordDuration(ctx, "newsletter", operation, time.Since(start), status)
}
