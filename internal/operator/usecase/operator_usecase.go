package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/newsletter/internal/errors"
	"github.com/allisson/newsletter/internal/operator/domain"
	"github.com/allisson/newsletter/internal/operator/service"
)

type operatorUseCase struct {
	operatorRepo OperatorRepository
	tokenService service.TokenService
}

// NewOperatorUseCase creates an OperatorUseCase.
func NewOperatorUseCase(operatorRepo OperatorRepository, tokenService service.TokenService) OperatorUseCase {
	return &operatorUseCase{
		operatorRepo: operatorRepo,
		tokenService: tokenService,
	}
}

func (o *operatorUseCase) Create(ctx context.Context, name string) (*domain.Operator, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", apperrors.Wrap(apperrors.ErrInvalidInput, "operator name cannot be empty")
	}

	plainToken, tokenHash, err := o.tokenService.GenerateToken()
	if err != nil {
		return nil, "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, "", apperrors.Wrap(err, "failed to generate operator id")
	}

	operator := &domain.Operator{
		ID:        id,
		Name:      name,
		TokenHash: tokenHash,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.operatorRepo.Create(ctx, operator); err != nil {
		return nil, "", err
	}
	return operator, plainToken, nil
}

func (o *operatorUseCase) Authenticate(ctx context.Context, tokenHash string) (*domain.Operator, error) {
	operator, err := o.operatorRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if apperrors.Is(err, domain.ErrOperatorNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if !operator.IsActive {
		return nil, domain.ErrOperatorInactive
	}
	return operator, nil
}
