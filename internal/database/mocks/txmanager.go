// Package mocks provides testify mocks for the database package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTxManager runs the unit of work in place of a real transaction. Tests
// register WithTx with mock.Anything and the function is executed with the
// caller's context; the returned error is the function's unless the
// expectation overrides it with a non-nil error.
type MockTxManager struct {
	mock.Mock
}

// WithTx mocks TxManager.WithTx.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}
