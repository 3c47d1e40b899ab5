package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/newsletter/internal/delivery/domain"
)

func TestPostgreSQLQueueRepository_Enqueue(t *testing.T) {
	issueID := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	t.Run("Success_OneRowPerSubscriber", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		first := uuid.Must(uuid.NewV7())
		second := uuid.Must(uuid.NewV7())

		mock.ExpectExec("INSERT INTO issue_delivery_queue .* VALUES \\(\\$1, \\$2, 0, \\$3, \\$4\\), \\(\\$5, \\$6, 0, \\$7, \\$8\\) .* ON CONFLICT").
			WithArgs(issueID.String(), first.String(), now, now, issueID.String(), second.String(), now, now).
			WillReturnResult(sqlmock.NewResult(0, 2))

		count, err := NewPostgreSQLQueueRepository(db).Enqueue(context.Background(), issueID, []uuid.UUID{first, second}, now)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_NoSubscribers", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		count, err := NewPostgreSQLQueueRepository(db).Enqueue(context.Background(), issueID, nil, now)
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_SplitsLargeFanOut", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		subscribers := make([]uuid.UUID, enqueueBatchSize+1)
		for i := range subscribers {
			subscribers[i] = uuid.Must(uuid.NewV7())
		}
		mock.ExpectExec("INSERT INTO issue_delivery_queue").WillReturnResult(sqlmock.NewResult(0, enqueueBatchSize))
		mock.ExpectExec("INSERT INTO issue_delivery_queue").WillReturnResult(sqlmock.NewResult(0, 1))

		count, err := NewPostgreSQLQueueRepository(db).Enqueue(context.Background(), issueID, subscribers, now)
		require.NoError(t, err)
		assert.Equal(t, int64(enqueueBatchSize+1), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLQueueRepository_Dequeue(t *testing.T) {
	now := time.Now().UTC()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		issueID := uuid.Must(uuid.NewV7())
		subscriberID := uuid.Must(uuid.NewV7())
		mock.ExpectQuery("SELECT .* FROM issue_delivery_queue .* FOR UPDATE SKIP LOCKED").
			WithArgs(now).
			WillReturnRows(sqlmock.NewRows([]string{
				"newsletter_issue_id", "subscriber_id", "n_retries", "execute_after", "created_at",
			}).AddRow(issueID.String(), subscriberID.String(), 2, now, now))

		entry, err := NewPostgreSQLQueueRepository(db).Dequeue(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, issueID, entry.IssueID)
		assert.Equal(t, subscriberID, entry.SubscriberID)
		assert.Equal(t, 2, entry.NRetries)
	})

	t.Run("Error_Empty", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("SELECT .* FROM issue_delivery_queue").WillReturnError(sql.ErrNoRows)

		_, err = NewPostgreSQLQueueRepository(db).Dequeue(context.Background(), now)
		assert.ErrorIs(t, err, domain.ErrQueueEmpty)
	})
}

func TestPostgreSQLQueueRepository_RescheduleAndDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	entry := &domain.Entry{
		IssueID:      uuid.Must(uuid.NewV7()),
		SubscriberID: uuid.Must(uuid.NewV7()),
		NRetries:     1,
		ExecuteAfter: time.Now().UTC().Add(time.Minute),
	}
	repo := NewPostgreSQLQueueRepository(db)

	mock.ExpectExec("UPDATE issue_delivery_queue SET n_retries").
		WithArgs(1, entry.ExecuteAfter, entry.IssueID.String(), entry.SubscriberID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM issue_delivery_queue").
		WithArgs(entry.IssueID.String(), entry.SubscriberID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Reschedule(context.Background(), entry))
	require.NoError(t, repo.Delete(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLQueueRepository_CountPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	issueID := uuid.Must(uuid.NewV7())
	rawIssueID, err := issueID.MarshalBinary()
	require.NoError(t, err)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM issue_delivery_queue").
		WithArgs(rawIssueID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := NewMySQLQueueRepository(db).CountPending(context.Background(), issueID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
