package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/database"
	"github.com/allisson/newsletter/internal/delivery/domain"
	apperrors "github.com/allisson/newsletter/internal/errors"
)

// MySQLQueueRepository persists delivery queue entries in MySQL 8, which
// supports SKIP LOCKED.
type MySQLQueueRepository struct {
	db *sql.DB
}

// NewMySQLQueueRepository creates a new MySQLQueueRepository.
func NewMySQLQueueRepository(db *sql.DB) *MySQLQueueRepository {
	return &MySQLQueueRepository{db: db}
}

// Enqueue adds one entry per subscriber, ready immediately. Pairs already
// queued are left untouched. It returns the number of new entries.
func (m *MySQLQueueRepository) Enqueue(
	ctx context.Context,
	issueID uuid.UUID,
	subscriberIDs []uuid.UUID,
	now time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	rawIssueID, err := issueID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal issue id")
	}

	var total int64
	for start := 0; start < len(subscriberIDs); start += enqueueBatchSize {
		end := min(start+enqueueBatchSize, len(subscriberIDs))
		batch := subscriberIDs[start:end]

		values := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*4)
		for _, subscriberID := range batch {
			rawSubscriberID, err := subscriberID.MarshalBinary()
			if err != nil {
				return total, apperrors.Wrap(err, "failed to marshal subscriber id")
			}
			values = append(values, "(?, ?, 0, ?, ?)")
			args = append(args, rawIssueID, rawSubscriberID, now, now)
		}

		query := `INSERT INTO issue_delivery_queue (newsletter_issue_id, subscriber_id, n_retries, execute_after, created_at)
			  VALUES ` + strings.Join(values, ", ") + `
			  ON DUPLICATE KEY UPDATE newsletter_issue_id = newsletter_issue_id`

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

// Dequeue locks the oldest ready entry for the caller's transaction.
func (m *MySQLQueueRepository) Dequeue(ctx context.Context, now time.Time) (*domain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT newsletter_issue_id, subscriber_id, n_retries, execute_after, created_at
			  FROM issue_delivery_queue
			  WHERE execute_after <= ?
			  ORDER BY execute_after ASC
			  LIMIT 1
			  FOR UPDATE SKIP LOCKED`

	var entry domain.Entry
	var issueID, subscriberID []byte
	err := querier.QueryRowContext(ctx, query, now).Scan(
		&issueID,
		&subscriberID,
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

	if err := entry.IssueID.UnmarshalBinary(issueID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal issue id")
	}
	if err := entry.SubscriberID.UnmarshalBinary(subscriberID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal subscriber id")
	}
	return &entry, nil
}

// Delete retires an entry.
func (m *MySQLQueueRepository) Delete(ctx context.Context, entry *domain.Entry) error {
	querier := database.GetTx(ctx, m.db)

	issueID, subscriberID, err := marshalEntryKey(entry)
	if err != nil {
		return err
	}

	query := `DELETE FROM issue_delivery_queue WHERE newsletter_issue_id = ? AND subscriber_id = ?`
	if _, err := querier.ExecContext(ctx, query, issueID, subscriberID); err != nil {
		return apperrors.Wrap(err, "failed to delete delivery")
	}
	return nil
}

// Reschedule stores the entry's retry count and next execution time.
func (m *MySQLQueueRepository) Reschedule(ctx context.Context, entry *domain.Entry) error {
	querier := database.GetTx(ctx, m.db)

	issueID, subscriberID, err := marshalEntryKey(entry)
	if err != nil {
		return err
	}

	query := `UPDATE issue_delivery_queue SET n_retries = ?, execute_after = ?
			  WHERE newsletter_issue_id = ? AND subscriber_id = ?`

	_, err = querier.ExecContext(ctx, query, entry.NRetries, entry.ExecuteAfter, issueID, subscriberID)
	if err != nil {
		return apperrors.Wrap(err, "failed to reschedule delivery")
	}
	return nil
}

// CountPending returns the number of queued entries for an issue.
func (m *MySQLQueueRepository) CountPending(ctx context.Context, issueID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	rawIssueID, err := issueID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal issue id")
	}

	var count int64
	query := `SELECT COUNT(*) FROM issue_delivery_queue WHERE newsletter_issue_id = ?`
	if err := querier.QueryRowContext(ctx, query, rawIssueID).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count pending deliveries")
	}
	return count, nil
}

func marshalEntryKey(entry *domain.Entry) ([]byte, []byte, error) {
	issueID, err := entry.IssueID.MarshalBinary()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal issue id")
	}
	subscriberID, err := entry.SubscriberID.MarshalBinary()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal subscriber id")
	}
	return issueID, subscriberID, nil
}
