package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/database"
	apperrors "github.com/allisson/newsletter/internal/errors"
	"github.com/allisson/newsletter/internal/subscriber/domain"
)

// MySQLSubscriberRepository reads and writes subscriptions in MySQL.
type MySQLSubscriberRepository struct {
	db *sql.DB
}

// NewMySQLSubscriberRepository creates a new MySQLSubscriberRepository.
func NewMySQLSubscriberRepository(db *sql.DB) *MySQLSubscriberRepository {
	return &MySQLSubscriberRepository{db: db}
}

// Create inserts a subscriber.
func (m *MySQLSubscriberRepository) Create(ctx context.Context, subscriber *domain.Subscriber) error {
	querier := database.GetTx(ctx, m.db)

	id, err := subscriber.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subscriber id")
	}

	query := `INSERT INTO subscriptions (id, email, name, status, subscribed_at) VALUES (?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		subscriber.Email,
		subscriber.Name,
		string(subscriber.Status),
		subscriber.SubscribedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrSubscriberAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create subscriber")
	}
	return nil
}

// GetByID returns a subscriber regardless of status.
func (m *MySQLSubscriberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscriber, error) {
	querier := database.GetTx(ctx, m.db)

	rawID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal subscriber id")
	}

	query := `SELECT id, email, name, status, subscribed_at FROM subscriptions WHERE id = ?`

	subscriber, err := scanMySQLSubscriber(querier.QueryRowContext(ctx, query, rawID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubscriberNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get subscriber")
	}
	return subscriber, nil
}

// ListConfirmed returns every confirmed subscriber.
func (m *MySQLSubscriberRepository) ListConfirmed(ctx context.Context) ([]*domain.Subscriber, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, email, name, status, subscribed_at FROM subscriptions WHERE status = ? ORDER BY subscribed_at`

	rows, err := querier.QueryContext(ctx, query, string(domain.StatusConfirmed))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list confirmed subscribers")
	}
	defer rows.Close() //nolint:errcheck

	subscribers := make([]*domain.Subscriber, 0)
	for rows.Next() {
		subscriber, err := scanMySQLSubscriber(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan subscriber")
		}
		subscribers = append(subscribers, subscriber)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate subscribers")
	}
	return subscribers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMySQLSubscriber(row rowScanner) (*domain.Subscriber, error) {
	var subscriber domain.Subscriber
	var id []byte
	var status string

	if err := row.Scan(&id, &subscriber.Email, &subscriber.Name, &status, &subscriber.SubscribedAt); err != nil {
		return nil, err
	}
	if err := subscriber.ID.UnmarshalBinary(id); err != nil {
		return nil, err
	}
	subscriber.Status = domain.Status(status)
	return &subscriber, nil
}
