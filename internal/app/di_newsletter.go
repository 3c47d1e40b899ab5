package app

import (
	"fmt"
	"math"

	idempotencyHTTP "github.com/allisson/newsletter/internal/idempotency/http"
	idempotencyRepository "github.com/allisson/newsletter/internal/idempotency/repository"
	idempotencyUseCase "github.com/allisson/newsletter/internal/idempotency/usecase"
	newsletterHTTP "github.com/allisson/newsletter/internal/newsletter/http"
	newsletterRepository "github.com/allisson/newsletter/internal/newsletter/repository"
	newsletterUseCase "github.com/allisson/newsletter/internal/newsletter/usecase"
)

// IdempotencyRepository returns the idempotency ledger based on database driver.
func (c *Container) IdempotencyRepository() (idempotencyUseCase.Repository, error) {
	var err error
	c.idempotencyRepositoryInit.Do(func() {
		c.idempotencyRepository, err = c.initIdempotencyRepository()
		if err != nil {
			c.initErrors["idempotencyRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["idempotencyRepository"]; exists {
		return nil, storedErr
	}
	return c.idempotencyRepository, nil
}

// ResponseCache returns the saved-response store.
func (c *Container) ResponseCache() (idempotencyUseCase.ResponseCache, error) {
	var err error
	c.responseCacheInit.Do(func() {
		var repo idempotencyUseCase.Repository
		repo, err = c.IdempotencyRepository()
		if err != nil {
			err = fmt.Errorf("failed to get idempotency repository for response cache: %w", err)
			c.initErrors["responseCache"] = err
			return
		}
		c.responseCache = idempotencyUseCase.NewResponseCache(repo)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["responseCache"]; exists {
		return nil, storedErr
	}
	return c.responseCache, nil
}

// Gate returns the idempotency concurrency gate.
func (c *Container) Gate() (idempotencyUseCase.Gate, error) {
	var err error
	c.gateInit.Do(func() {
		c.gate, err = c.initGate()
		if err != nil {
			c.initErrors["gate"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["gate"]; exists {
		return nil, storedErr
	}
	return c.gate, nil
}

// KeyUseCase returns the idempotency key administration use case.
func (c *Container) KeyUseCase() (idempotencyUseCase.KeyUseCase, error) {
	var err error
	c.keyUseCaseInit.Do(func() {
		var repo idempotencyUseCase.Repository
		repo, err = c.IdempotencyRepository()
		if err != nil {
			err = fmt.Errorf("failed to get idempotency repository for key use case: %w", err)
			c.initErrors["keyUseCase"] = err
			return
		}
		c.keyUseCase = idempotencyUseCase.NewKeyUseCase(repo)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyUseCase"]; exists {
		return nil, storedErr
	}
	return c.keyUseCase, nil
}

// KeyHandler returns the idempotency key HTTP handler.
func (c *Container) KeyHandler() (*idempotencyHTTP.KeyHandler, error) {
	var err error
	c.keyHandlerInit.Do(func() {
		var keyUseCase idempotencyUseCase.KeyUseCase
		keyUseCase, err = c.KeyUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get key use case for key handler: %w", err)
			c.initErrors["keyHandler"] = err
			return
		}
		c.keyHandler = idempotencyHTTP.NewKeyHandler(keyUseCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyHandler"]; exists {
		return nil, storedErr
	}
	return c.keyHandler, nil
}

// IssueRepository returns the newsletter issue repository based on database driver.
func (c *Container) IssueRepository() (newsletterUseCase.IssueRepository, error) {
	var err error
	c.issueRepositoryInit.Do(func() {
		c.issueRepository, err = c.initIssueRepository()
		if err != nil {
			c.initErrors["issueRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["issueRepository"]; exists {
		return nil, storedErr
	}
	return c.issueRepository, nil
}

// PublishUseCase returns the newsletter publishing use case.
func (c *Container) PublishUseCase() (newsletterUseCase.PublishUseCase, error) {
	var err error
	c.publishUseCaseInit.Do(func() {
		c.publishUseCase, err = c.initPublishUseCase()
		if err != nil {
			c.initErrors["publishUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["publishUseCase"]; exists {
		return nil, storedErr
	}
	return c.publishUseCase, nil
}

// IssueHandler returns the newsletter HTTP handler.
func (c *Container) IssueHandler() (*newsletterHTTP.IssueHandler, error) {
	var err error
	c.issueHandlerInit.Do(func() {
		c.issueHandler, err = c.initIssueHandler()
		if err != nil {
			c.initErrors["issueHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["issueHandler"]; exists {
		return nil, storedErr
	}
	return c.issueHandler, nil
}

func (c *Container) initIdempotencyRepository() (idempotencyUseCase.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for idempotency repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return idempotencyRepository.NewPostgreSQLIdempotencyRepository(db), nil
	case "mysql":
		return idempotencyRepository.NewMySQLIdempotencyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initGate() (idempotencyUseCase.Gate, error) {
	repo, err := c.IdempotencyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency repository for gate: %w", err)
	}
	cache, err := c.ResponseCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get response cache for gate: %w", err)
	}

	gateConfig := idempotencyUseCase.GateConfig{
		WaitTimeout:  c.config.IdempotencyWaitTimeout,
		PollInterval: c.config.IdempotencyPollInterval,
	}
	return idempotencyUseCase.NewGate(repo, cache, gateConfig, c.Logger()), nil
}

func (c *Container) initIssueRepository() (newsletterUseCase.IssueRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for issue repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return newsletterRepository.NewPostgreSQLIssueRepository(db), nil
	case "mysql":
		return newsletterRepository.NewMySQLIssueRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initPublishUseCase() (newsletterUseCase.PublishUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for publish use case: %w", err)
	}

	issueRepo, err := c.IssueRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get issue repository for publish use case: %w", err)
	}

	subscriberRepo, err := c.SubscriberRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber repository for publish use case: %w", err)
	}

	queueRepo, err := c.QueueRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get queue repository for publish use case: %w", err)
	}

	cache, err := c.ResponseCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get response cache for publish use case: %w", err)
	}

	gate, err := c.Gate()
	if err != nil {
		return nil, fmt.Errorf("failed to get gate for publish use case: %w", err)
	}

	baseUseCase := newsletterUseCase.NewPublishUseCase(
		txManager,
		issueRepo,
		subscriberRepo,
		queueRepo,
		cache,
		gate,
		c.Logger(),
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for publish use case: %w", err)
		}
		return newsletterUseCase.NewPublishUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initIssueHandler() (*newsletterHTTP.IssueHandler, error) {
	publishUseCase, err := c.PublishUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get publish use case for issue handler: %w", err)
	}

	worker, err := c.Worker()
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery worker for issue handler: %w", err)
	}

	// Clients retry a key still held by another request after about one wait budget.
	retryAfter := int(math.Ceil(c.config.IdempotencyWaitTimeout.Seconds()))

	return newsletterHTTP.NewIssueHandler(publishUseCase, worker, retryAfter, c.Logger()), nil
}
