// Package repository stores the issue delivery queue in PostgreSQL or MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/database"
	"github.com/allisson/newsletter/internal/delivery/domain"
	apperrors "github.com/allisson/newsletter/internal/errors"
)

// enqueueBatchSize bounds the number of rows in one multi-row INSERT.
const enqueueBatchSize = 500

// PostgreSQLQueueRepository persists delivery queue entries in PostgreSQL.
type PostgreSQLQueueRepository struct {
	db *sql.DB
}

// NewPostgreSQLQueueRepository creates a new PostgreSQLQueueRepository.
func NewPostgreSQLQueueRepository(db *sql.DB) *PostgreSQLQueueRepository {
	return &PostgreSQLQueueRepository{db: db}
}

// Enqueue adds one entry per subscriber, ready immediately. Pairs already
// queued are left untouched. It returns the number of new entries.
func (p *PostgreSQLQueueRepository) Enqueue(
	ctx context.Context,
	issueID uuid.UUID,
	subscriberIDs []uuid.UUID,
	now time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var total int64
	for start := 0; start < len(subscriberIDs); start += enqueueBatchSize {
		end := min(start+enqueueBatchSize, len(subscriberIDs))
		batch := subscriberIDs[start:end]

		values := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*4)
		for i, subscriberID := range batch {
			n := i * 4
			values = append(values, fmt.Sprintf("($%d, $%d, 0, $%d, $%d)", n+1, n+2, n+3, n+4))
			args = append(args, issueID, subscriberID, now, now)
		}

		query := `INSERT INTO issue_delivery_queue (newsletter_issue_id, subscriber_id, n_retries, execute_after, created_at)
			  VALUES ` + strings.Join(values, ", ") + `
			  ON CONFLICT (newsletter_issue_id, subscriber_id) DO NOTHING`

		result, err := querier.ExecContext(ctx, query, args...)
		if err != nil {
			return total, apperrors.Wrap(err, "failed to enqueue deliveries")
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return total, apperrors.Wrap(err, "failed to read affected rows")
		}
		total += rows
	}
	return total, nil
}

// Dequeue locks the oldest ready entry for the caller's transaction. Entries
// locked by other workers are skipped, and the lock is released on commit or
// rollback.
func (p *PostgreSQLQueueRepository) Dequeue(ctx context.Context, now time.Time) (*domain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT newsletter_issue_id, subscriber_id, n_retries, execute_after, created_at
			  FROM issue_delivery_queue
			  WHERE execute_after <= $1
			  ORDER BY execute_after ASC
			  LIMIT 1
			  FOR UPDATE SKIP LOCKED`

	var entry domain.Entry
	err := querier.QueryRowContext(ctx, query, now).Scan(
		&entry.IssueID,
		&entry.SubscriberID,
		&entry.NRetries,
		&entry.ExecuteAfter,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrQueueEmpty
		}
		return nil, apperrors.Wrap(err, "failed to dequeue delivery")
	}
	return &entry, nil
}

// Delete retires an entry.
func (p *PostgreSQLQueueRepository) Delete(ctx context.Context, entry *domain.Entry) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM issue_delivery_queue WHERE newsletter_issue_id = $1 AND subscriber_id = $2`

	if _, err := querier.ExecContext(ctx, query, entry.IssueID, entry.SubscriberID); err != nil {
		return apperrors.Wrap(err, "failed to delete delivery")
	}
	return nil
}

// Reschedule stores the entry's retry count and next execution time.
func (p *PostgreSQLQueueRepository) Reschedule(ctx context.Context, entry *domain.Entry) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE issue_delivery_queue SET n_retries = $1, execute_after = $2
			  WHERE newsletter_issue_id = $3 AND subscriber_id = $4`

	_, err := querier.ExecContext(ctx, query, entry.NRetries, entry.ExecuteAfter, entry.IssueID, entry.SubscriberID)
	if err != nil {
		return apperrors.Wrap(err, "failed to reschedule delivery")
	}
	return nil
}

// CountPending returns the number of queued entries for an issue.
func (p *PostgreSQLQueueRepository) CountPending(ctx context.Context, issueID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	query := `SELECT COUNT(*) FROM issue_delivery_queue WHERE newsletter_issue_id = $1`
	if err := querier.QueryRowContext(ctx, query, issueID).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count pending deliveries")
	}
	return count, nil
}
