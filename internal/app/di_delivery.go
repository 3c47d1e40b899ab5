package app

import (
	"context"
	"errors"
	"fmt"

	deliveryRepository "github.com/allisson/newsletter/internal/delivery/repository"
	deliveryUseCase "github.com/allisson/newsletter/internal/delivery/usecase"
	"github.com/allisson/newsletter/internal/email"
)

// QueueRepository returns the delivery queue based on database driver.
func (c *Container) QueueRepository() (deliveryUseCase.QueueRepository, error) {
	var err error
	c.queueRepositoryInit.Do(func() {
		c.queueRepository, err = c.initQueueRepository()
		if err != nil {
			c.initErrors["queueRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["queueRepository"]; exists {
		return nil, storedErr
	}
	return c.queueRepository, nil
}

// EmailTransport returns the mail transport selected by EMAIL_PROVIDER.
func (c *Container) EmailTransport() (deliveryUseCase.Transport, error) {
	var err error
	c.emailTransportInit.Do(func() {
		c.emailTransport, err = c.initEmailTransport()
		if err != nil {
			c.initErrors["emailTransport"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["emailTransport"]; exists {
		return nil, storedErr
	}
	return c.emailTransport, nil
}

// Worker returns the delivery worker.
func (c *Container) Worker() (deliveryUseCase.Worker, error) {
	var err error
	c.workerInit.Do(func() {
		c.worker, err = c.initWorker()
		if err != nil {
			c.initErrors["worker"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["worker"]; exists {
		return nil, storedErr
	}
	return c.worker, nil
}

func (c *Container) initQueueRepository() (deliveryUseCase.QueueRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for queue repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return deliveryRepository.NewPostgreSQLQueueRepository(db), nil
	case "mysql":
		return deliveryRepository.NewMySQLQueueRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initEmailTransport() (deliveryUseCase.Transport, error) {
	switch c.config.EmailProvider {
	case "log":
		return email.NewLogTransport(c.Logger()), nil
	case "http":
		token, err := email.ResolveAuthToken(
			context.Background(),
			c.config.EmailAuthToken,
			c.config.EmailAuthTokenKeyURI,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve email auth token: %w", err)
		}
		if token == "" {
			return nil, errors.New("EMAIL_AUTH_TOKEN is required for the http email provider")
		}
		return email.NewHTTPClient(
			c.config.EmailBaseURL,
			c.config.EmailSender,
			token,
			c.config.EmailTimeout,
		), nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", c.config.EmailProvider)
	}
}

func (c *Container) initWorker() (deliveryUseCase.Worker, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for delivery worker: %w", err)
	}

	queueRepo, err := c.QueueRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get queue repository for delivery worker: %w", err)
	}

	issueRepo, err := c.IssueRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get issue repository for delivery worker: %w", err)
	}

	subscriberRepo, err := c.SubscriberRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber repository for delivery worker: %w", err)
	}

	transport, err := c.EmailTransport()
	if err != nil {
		return nil, fmt.Errorf("failed to get email transport for delivery worker: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for delivery worker: %w", err)
	}

	workerConfig := deliveryUseCase.Config{
		Concurrency:          c.config.DeliveryWorkerConcurrency,
		PollInterval:         c.config.DeliveryPollInterval,
		ErrorInterval:        c.config.DeliveryErrorInterval,
		MaxAttempts:          c.config.DeliveryMaxAttempts,
		MaxConsecutiveErrors: c.config.DeliveryMaxConsecutiveErrors,
		SendTimeout:          c.config.DeliverySendTimeout,
		RetryBaseDelay:       c.config.DeliveryRetryBaseDelay,
		RetryMaxDelay:        c.config.DeliveryRetryMaxDelay,
	}

	return deliveryUseCase.NewWorker(
		workerConfig,
		txManager,
		queueRepo,
		issueRepo,
		subscriberRepo,
		transport,
		businessMetrics,
		c.Logger(),
	), nil
}
