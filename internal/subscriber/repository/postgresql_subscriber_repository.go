// Package repository provides the subscriber directory for PostgreSQL and MySQL.
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

// PostgreSQLSubscriberRepository reads and writes subscriptions in PostgreSQL.
type PostgreSQLSubscriberRepository struct {
	db *sql.DB
}

// NewPostgreSQLSubscriberRepository creates a new PostgreSQLSubscriberRepository.
func NewPostgreSQLSubscriberRepository(db *sql.DB) *PostgreSQLSubscriberRepository {
	return &PostgreSQLSubscriberRepository{db: db}
}

// Create inserts a subscriber.
func (p *PostgreSQLSubscriberRepository) Create(ctx context.Context, subscriber *domain.Subscriber) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO subscriptions (id, email, name, status, subscribed_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(
		ctx,
		query,
		subscriber.ID,
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
func (p *PostgreSQLSubscriberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscriber, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, name, status, subscribed_at FROM subscriptions WHERE id = $1`

	var subscriber domain.Subscriber
	var status string
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&subscriber.ID,
		&subscriber.Email,
		&subscriber.Name,
		&status,
		&subscriber.SubscribedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubscriberNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get subscriber")
	}
	subscriber.Status = domain.Status(status)
	return &subscriber, nil
}

// ListConfirmed returns every confirmed subscriber. Called inside the publish
// transaction, it observes the set committed at that point.
func (p *PostgreSQLSubscriberRepository) ListConfirmed(ctx context.Context) ([]*domain.Subscriber, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, name, status, subscribed_at FROM subscriptions WHERE status = $1 ORDER BY subscribed_at`

	rows, err := querier.QueryContext(ctx, query, string(domain.StatusConfirmed))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list confirmed subscribers")
	}
	defer rows.Close() //nolint:errcheck

	subscribers := make([]*domain.Subscriber, 0)
	for rows.Next() {
		var subscriber domain.Subscriber
		var status string
		if err := rows.Scan(
			&subscriber.ID,
			&subscriber.Email,
			&subscriber.Name,
			&status,
			&subscriber.SubscribedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan subscriber")
		}
		subscriber.Status = domain.Status(status)
		subscribers = append(subscribers, &subscriber)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate subscribers")
	}
	return subscribers, nil
}
