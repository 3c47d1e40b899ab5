package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTx(t *testing.T) {
	t.Run("Success_Commit", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectBegin()
		mock.ExpectCommit()

		err = NewTxManager(db).WithTx(context.Background(), func(ctx context.Context) error {
			assert.True(t, InTx(ctx))
			assert.IsType(t, &sql.Tx{}, GetTx(ctx, db))
			return nil
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_RollbackOnFailure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err = NewTxManager(db).WithTx(context.Background(), func(ctx context.Context) error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_NestedCallJoinsOuterTransaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectBegin()
		mock.ExpectCommit()

		txManager := NewTxManager(db)
		err = txManager.WithTx(context.Background(), func(ctx context.Context) error {
			outer := GetTx(ctx, db)
			return txManager.WithTx(ctx, func(inner context.Context) error {
				assert.Same(t, outer, GetTx(inner, db))
				return nil
			})
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_BeginFails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectBegin().WillReturnError(assert.AnError)

		called := false
		err = NewTxManager(db).WithTx(context.Background(), func(ctx context.Context) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.False(t, called)
	})
}

func TestGetTx_WithoutTransaction(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.False(t, InTx(context.Background()))
	assert.Equal(t, db, GetTx(context.Background(), db))
}
