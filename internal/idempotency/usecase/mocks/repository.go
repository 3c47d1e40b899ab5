// Package mocks provides testify mocks for the idempotency use cases.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/newsletter/internal/idempotency/domain"
)

// MockRepository is a mock implementation of usecase.Repository.
type MockRepository struct {
	mock.Mock
}

// InsertPlaceholder mocks Repository.InsertPlaceholder.
func (m *MockRepository) InsertPlaceholder(ctx context.Context, claim *domain.Claim) (bool, error) {
	args := m.Called(ctx, claim)
	return args.Bool(0), args.Error(1)
}

// Get mocks Repository.Get.
func (m *MockRepository) Get(ctx context.Context, operatorID uuid.UUID, key domain.Key) (*domain.Record, error) {
	args := m.Called(ctx, operatorID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

// SaveResponse mocks Repository.SaveResponse.
func (m *MockRepository) SaveResponse(
	ctx context.Context,
	claim *domain.Claim,
	response *domain.SavedResponse,
) (bool, error) {
	args := m.Called(ctx, claim, response)
	return args.Bool(0), args.Error(1)
}

// SetValidity mocks Repository.SetValidity.
func (m *MockRepository) SetValidity(ctx context.Context, operatorID uuid.UUID, key domain.Key, valid bool) error {
	args := m.Called(ctx, operatorID, key, valid)
	return args.Error(0)
}

// List mocks Repository.List.
func (m *MockRepository) List(
	ctx context.Context,
	operatorID uuid.UUID,
	offset, limit int,
) ([]*domain.Record, error) {
	args := m.Called(ctx, operatorID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Record), args.Error(1)
}

// DeleteOlderThan mocks Repository.DeleteOlderThan.
func (m *MockRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error) {
	args := m.Called(ctx, olderThan, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// MockResponseCache is a mock implementation of usecase.ResponseCache.
type MockResponseCache struct {
	mock.Mock
}

// Lookup mocks ResponseCache.Lookup.
func (m *MockResponseCache) Lookup(
	ctx context.Context,
	operatorID uuid.UUID,
	key domain.Key,
) (*domain.SavedResponse, error) {
	args := m.Called(ctx, operatorID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavedResponse), args.Error(1)
}

// Find mocks ResponseCache.Find.
func (m *MockResponseCache) Find(ctx context.Context, operatorID uuid.UUID, key domain.Key) (*domain.Record, error) {
	args := m.Called(ctx, operatorID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

// Save mocks ResponseCache.Save.
func (m *MockResponseCache) Save(ctx context.Context, claim *domain.Claim, response *domain.SavedResponse) error {
	args := m.Called(ctx, claim, response)
	return args.Error(0)
}

// MockGate is a mock implementation of usecase.Gate.
type MockGate struct {
	mock.Mock
}

// TryClaim mocks Gate.TryClaim.
func (m *MockGate) TryClaim(
	ctx context.Context,
	operatorID uuid.UUID,
	key domain.Key,
	fingerprint []byte,
) (*domain.Claim, error) {
	args := m.Called(ctx, operatorID, key, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Claim), args.Error(1)
}

// Wait mocks Gate.Wait.
func (m *MockGate) Wait(ctx context.Context, operatorID uuid.UUID, key domain.Key) (*domain.Record, error) {
	args := m.Called(ctx, operatorID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

// MockKeyUseCase is a mock implementation of usecase.KeyUseCase.
type MockKeyUseCase struct {
	mock.Mock
}

// List mocks KeyUseCase.List.
func (m *MockKeyUseCase) List(
	ctx context.Context,
	operatorID uuid.UUID,
	offset, limit int,
) ([]*domain.Record, error) {
	args := m.Called(ctx, operatorID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Record), args.Error(1)
}

// SetValidity mocks KeyUseCase.SetValidity.
func (m *MockKeyUseCase) SetValidity(ctx context.Context, operatorID uuid.UUID, key domain.Key, valid bool) error {
	args := m.Called(ctx, operatorID, key, valid)
	return args.Error(0)
}

// DeleteOlderThan mocks KeyUseCase.DeleteOlderThan.
func (m *MockKeyUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	args := m.Called(ctx, days, dryRun)
	return args.Get(0).(int64), args.Error(1)
}
