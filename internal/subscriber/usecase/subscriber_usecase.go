package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/newsletter/internal/subscriber/domain"
	customValidation "github.com/allisson/newsletter/internal/validation"
)

type subscriberUseCase struct {
	repo SubscriberRepository
}

// NewSubscriberUseCase creates a SubscriberUseCase.
func NewSubscriberUseCase(repo SubscriberRepository) SubscriberUseCase {
	return &subscriberUseCase{repo: repo}
}

func (s *subscriberUseCase) Add(
	ctx context.Context,
	email, name string,
	confirmed bool,
) (*domain.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	err := validation.Errors{
		"email": validation.Validate(email, validation.Required, customValidation.Email),
		"name":  validation.Validate(name, validation.Required, customValidation.NoControlChars),
	}.Filter()
	if err != nil {
		return nil, customValidation.WrapValidationError(err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	status := domain.StatusPendingConfirmation
	if confirmed {
		status = domain.StatusConfirmed
	}

	subscriber := &domain.Subscriber{
		ID:           id,
		Email:        email,
		Name:         name,
		Status:       status,
		SubscribedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, subscriber); err != nil {
		return nil, err
	}
	return subscriber, nil
}
