package app

import (
	"fmt"

	operatorRepository "github.com/allisson/newsletter/internal/operator/repository"
	operatorService "github.com/allisson/newsletter/internal/operator/service"
	operatorUseCase "github.com/allisson/newsletter/internal/operator/usecase"
	subscriberRepository "github.com/allisson/newsletter/internal/subscriber/repository"
	subscriberUseCase "github.com/allisson/newsletter/internal/subscriber/usecase"
)

// TokenService returns the operator token service.
func (c *Container) TokenService() operatorService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = operatorService.NewTokenService()
	})
	return c.tokenService
}

// OperatorRepository returns the operator repository based on database driver.
func (c *Container) OperatorRepository() (operatorUseCase.OperatorRepository, error) {
	var err error
	c.operatorRepositoryInit.Do(func() {
		c.operatorRepository, err = c.initOperatorRepository()
		if err != nil {
			c.initErrors["operatorRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["operatorRepository"]; exists {
		return nil, storedErr
	}
	return c.operatorRepository, nil
}

// OperatorUseCase returns the operator use case.
func (c *Container) OperatorUseCase() (operatorUseCase.OperatorUseCase, error) {
	var err error
	c.operatorUseCaseInit.Do(func() {
		c.operatorUseCase, err = c.initOperatorUseCase()
		if err != nil {
			c.initErrors["operatorUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["operatorUseCase"]; exists {
		return nil, storedErr
	}
	return c.operatorUseCase, nil
}

// SubscriberRepository returns the subscriber repository based on database driver.
func (c *Container) SubscriberRepository() (subscriberUseCase.SubscriberRepository, error) {
	var err error
	c.subscriberRepositoryInit.Do(func() {
		c.subscriberRepository, err = c.initSubscriberRepository()
		if err != nil {
			c.initErrors["subscriberRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["subscriberRepository"]; exists {
		return nil, storedErr
	}
	return c.subscriberRepository, nil
}

// SubscriberUseCase returns the subscriber use case.
func (c *Container) SubscriberUseCase() (subscriberUseCase.SubscriberUseCase, error) {
	var err error
	c.subscriberUseCaseInit.Do(func() {
		var repo subscriberUseCase.SubscriberRepository
		repo, err = c.SubscriberRepository()
		if err != nil {
			err = fmt.Errorf("failed to get subscriber repository for subscriber use case: %w", err)
			c.initErrors["subscriberUseCase"] = err
			return
		}
		c.subscriberUseCase = subscriberUseCase.NewSubscriberUseCase(repo)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["subscriberUseCase"]; exists {
		return nil, storedErr
	}
	return c.subscriberUseCase, nil
}

func (c *Container) initOperatorRepository() (operatorUseCase.OperatorRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for operator repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return operatorRepository.NewPostgreSQLOperatorRepository(db), nil
	case "mysql":
		return operatorRepository.NewMySQLOperatorRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initOperatorUseCase() (operatorUseCase.OperatorUseCase, error) {
	repo, err := c.OperatorRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get operator repository for operator use case: %w", err)
	}
	return operatorUseCase.NewOperatorUseCase(repo, c.TokenService()), nil
}

func (c *Container) initSubscriberRepository() (subscriberUseCase.SubscriberRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for subscriber repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return subscriberRepository.NewPostgreSQLSubscriberRepository(db), nil
	case "mysql":
		return subscriberRepository.NewMySQLSubscriberRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}
