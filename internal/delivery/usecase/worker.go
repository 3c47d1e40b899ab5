package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/newsletter/internal/database"
	"github.com/allisson/newsletter/internal/delivery/domain"
	"github.com/allisson/newsletter/internal/email"
	apperrors "github.com/allisson/newsletter/internal/errors"
	"github.com/allisson/newsletter/internal/metrics"
	customValidation "github.com/allisson/newsletter/internal/validation"
)

// defaultSendTimeout replaces a non-positive SendTimeout.
const defaultSendTimeout = 10 * time.Second

// Config holds delivery worker configuration.
type Config struct {
	Concurrency          int
	PollInterval         time.Duration
	ErrorInterval        time.Duration
	MaxAttempts          int
	MaxConsecutiveErrors int
	SendTimeout          time.Duration
	RetryBaseDelay       time.Duration
	RetryMaxDelay        time.Duration
}

type worker struct {
	config          Config
	txManager       database.TxManager
	queueRepo       QueueRepository
	issueRepo       IssueReader
	subscriberRepo  SubscriberReader
	transport       Transport
	businessMetrics metrics.BusinessMetrics
	logger          *slog.Logger
	now             func() time.Time
}

// NewWorker creates a delivery Worker.
func NewWorker(
	config Config,
	txManager database.TxManager,
	queueRepo QueueRepository,
	issueRepo IssueReader,
	subscriberRepo SubscriberReader,
	transport Transport,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) Worker {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = defaultSendTimeout
	}
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &worker{
		config:          config,
		txManager:       txManager,
		queueRepo:       queueRepo,
		issueRepo:       issueRepo,
		subscriberRepo:  subscriberRepo,
		transport:       transport,
		businessMetrics: businessMetrics,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (w *worker) Run(ctx context.Context) error {
	if w.logger != nil {
		w.logger.Info("starting delivery worker",
			slog.Int("concurrency", w.config.Concurrency),
			slog.Duration("poll_interval", w.config.PollInterval),
			slog.Int("max_attempts", w.config.MaxAttempts),
		)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for i := range w.config.Concurrency {
		group.Go(func() error {
			return w.loop(groupCtx, i)
		})
	}

	err := group.Wait()
	if w.logger != nil {
		w.logger.Info("delivery worker stopped", slog.Any("error", err))
	}
	return err
}

func (w *worker) loop(ctx context.Context, id int) error {
	consecutiveErrors := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		outcome, err := w.TryExecuteTask(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			consecutiveErrors++
			if w.logger != nil {
				w.logger.Error("delivery iteration failed",
					slog.Int("loop", id),
					slog.Int("consecutive_errors", consecutiveErrors),
					slog.Any("error", err),
				)
			}
			if w.config.MaxConsecutiveErrors > 0 && consecutiveErrors >= w.config.MaxConsecutiveErrors {
				return fmt.Errorf("delivery loop %d stopped after %d consecutive errors: %w", id, consecutiveErrors, err)
			}
			sleep(ctx, w.config.ErrorInterval)
			continue
		}

		consecutiveErrors = 0
		if outcome == domain.EmptyQueue {
			sleep(ctx, w.config.PollInterval)
		}
	}
}

func (w *worker) TryExecuteTask(ctx context.Context) (domain.ExecutionOutcome, error) {
	outcome := domain.EmptyQueue

	err := w.txManager.WithTx(ctx, func(ctx context.Context) error {
		entry, err := w.queueRepo.Dequeue(ctx, w.now())
		if err != nil {
			if errors.Is(err, domain.ErrQueueEmpty) {
				return nil
			}
			return err
		}

		result, err := w.deliver(ctx, entry)
		if err != nil {
			return err
		}
		if err := w.settle(ctx, entry, result); err != nil {
			return err
		}

		outcome = domain.TaskCompleted
		return nil
	})
	if err != nil {
		return domain.EmptyQueue, err
	}
	return outcome, nil
}

func (w *worker) RunUntilEmpty(ctx context.Context) (int, error) {
	processed := 0
	for {
		outcome, err := w.TryExecuteTask(ctx)
		if err != nil {
			return processed, err
		}
		if outcome == domain.EmptyQueue {
			return processed, nil
		}
		processed++
	}
}

func (w *worker) PendingCount(ctx context.Context, issueID uuid.UUID) (int64, error) {
	return w.queueRepo.CountPending(ctx, issueID)
}

// attempt is the classified result of one transport call.
type attempt struct {
	outcome domain.Outcome
	reason  error
}

// deliver attempts the send. The returned error is reserved for storage
// failures, which abort the transaction and leave the entry untouched.
func (w *worker) deliver(ctx context.Context, entry *domain.Entry) (attempt, error) {
	issue, err := w.issueRepo.GetByID(ctx, entry.IssueID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return attempt{domain.PermanentFailure, err}, nil
		}
		return attempt{}, err
	}

	subscriber, err := w.subscriberRepo.GetByID(ctx, entry.SubscriberID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return attempt{domain.PermanentFailure, err}, nil
		}
		return attempt{}, err
	}
	if !subscriber.IsConfirmed() {
		return attempt{domain.PermanentFailure, errors.New("subscriber is no longer confirmed")}, nil
	}
	if err := customValidation.Email.Validate(subscriber.Email); err != nil {
		return attempt{domain.PermanentFailure, fmt.Errorf("invalid subscriber email: %w", err)}, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.config.SendTimeout)
	defer cancel()

	err = w.transport.Send(sendCtx, email.Message{
		To:       subscriber.Email,
		Subject:  issue.Title,
		HTMLBody: issue.HTMLContent,
		TextBody: issue.TextContent,
	})
	switch {
	case err == nil:
		return attempt{outcome: domain.Delivered}, nil
	case email.IsPermanent(err):
		return attempt{domain.PermanentFailure, err}, nil
	default:
		return attempt{domain.TransientFailure, err}, nil
	}
}

// settle retires or reschedules the entry according to the attempt outcome.
func (w *worker) settle(ctx context.Context, entry *domain.Entry, result attempt) error {
	attempts := entry.NRetries + 1

	switch {
	case result.outcome == domain.Delivered:
		if err := w.queueRepo.Delete(ctx, entry); err != nil {
			return err
		}
		w.record(ctx, "delivered")
		if w.logger != nil {
			w.logger.Info("delivery completed",
				slog.String("issue_id", entry.IssueID.String()),
				slog.String("subscriber_id", entry.SubscriberID.String()),
				slog.Int("attempts", attempts),
			)
		}
		return nil

	case result.outcome == domain.TransientFailure && attempts < w.config.MaxAttempts:
		entry.NRetries = attempts
		entry.ExecuteAfter = w.now().Add(w.retryDelay(attempts))
		if err := w.queueRepo.Reschedule(ctx, entry); err != nil {
			return err
		}
		w.record(ctx, "retry")
		if w.logger != nil {
			w.logger.Warn("delivery failed, will retry",
				slog.String("issue_id", entry.IssueID.String()),
				slog.String("subscriber_id", entry.SubscriberID.String()),
				slog.Int("attempts", attempts),
				slog.Time("execute_after", entry.ExecuteAfter),
				slog.Any("error", result.reason),
			)
		}
		return nil

	default:
		if err := w.queueRepo.Delete(ctx, entry); err != nil {
			return err
		}
		w.record(ctx, "abandoned")
		if w.logger != nil {
			w.logger.Error("delivery abandoned",
				slog.String("issue_id", entry.IssueID.String()),
				slog.String("subscriber_id", entry.SubscriberID.String()),
				slog.String("outcome", result.outcome.String()),
				slog.Int("attempts", attempts),
				slog.Any("error", result.reason),
			)
		}
		return nil
	}
}

// retryDelay returns the jittered exponential delay after the given number
// of failed attempts.
func (w *worker) retryDelay(failures int) time.Duration {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.config.RetryBaseDelay
	policy.MaxInterval = w.config.RetryMaxDelay
	policy.MaxElapsedTime = 0
	policy.Reset()

	delay := policy.InitialInterval
	for range failures {
		delay = policy.NextBackOff()
	}
	return delay
}

func (w *worker) record(ctx context.Context, status string) {
	w.businessMetrics.RecordOperation(ctx, "delivery", "deliver", status)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
