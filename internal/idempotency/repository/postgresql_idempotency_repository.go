package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/database"
	apperrors "github.com/allisson/newsletter/internal/errors"
	"github.com/allisson/newsletter/internal/idempotency/domain"
)

// PostgreSQLIdempotencyRepository stores the idempotency ledger in PostgreSQL.
type PostgreSQLIdempotencyRepository struct {
	db *sql.DB
}

// NewPostgreSQLIdempotencyRepository creates a new PostgreSQLIdempotencyRepository.
func NewPostgreSQLIdempotencyRepository(db *sql.DB) *PostgreSQLIdempotencyRepository {
	return &PostgreSQLIdempotencyRepository{db: db}
}

// InsertPlaceholder claims the key by inserting a row without a response.
// When another transaction holds an uncommitted row for the same key the
// insert blocks until that transaction ends. It returns false when the key
// already exists.
func (p *PostgreSQLIdempotencyRepository) InsertPlaceholder(
	ctx context.Context,
	claim *domain.Claim,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO idempotency (operator_id, idempotency_key, claim_token, request_fingerprint, is_valid, created_at)
			  VALUES ($1, $2, $3, $4, TRUE, $5)
			  ON CONFLICT (operator_id, idempotency_key) DO NOTHING`

	result, err := querier.ExecContext(
		ctx,
		query,
		claim.OperatorID,
		claim.Key.String(),
		claim.Token,
		claim.Fingerprint,
		time.Now().UTC(),
	)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to insert idempotency placeholder")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read affected rows")
	}
	return rows == 1, nil
}

// Get returns the ledger row for the key, completed or not.
func (p *PostgreSQLIdempotencyRepository) Get(
	ctx context.Context,
	operatorID uuid.UUID,
	key domain.Key,
) (*domain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT operator_id, idempotency_key, claim_token, request_fingerprint,
			  response_status_code, response_headers, response_body, is_valid, created_at, completed_at
			  FROM idempotency
			  WHERE operator_id = $1 AND idempotency_key = $2`

	var record domain.Record
	var rawKey string
	var statusCode sql.NullInt32
	var headers, body []byte

	err := querier.QueryRowContext(ctx, query, operatorID, key.String()).Scan(
		&record.OperatorID,
		&rawKey,
		&record.ClaimToken,
		&record.Fingerprint,
		&statusCode,
		&headers,
		&body,
		&record.IsValid,
		&record.CreatedAt,
		&record.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdempotencyKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get idempotency key")
	}

	record.Key = domain.Key(rawKey)
	record.Response, err = decodeResponse(statusCode, headers, body)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode saved response")
	}
	return &record, nil
}

// SaveResponse completes a placeholder owned by token. It returns false when
// the row is already completed or belongs to another claim.
func (p *PostgreSQLIdempotencyRepository) SaveResponse(
	ctx context.Context,
	claim *domain.Claim,
	response *domain.SavedResponse,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	headers, err := encodeHeaders(response.Headers)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to encode response headers")
	}

	query := `UPDATE idempotency
			  SET response_status_code = $1, response_headers = $2, response_body = $3, completed_at = $4
			  WHERE operator_id = $5 AND idempotency_key = $6 AND claim_token = $7
			  AND response_status_code IS NULL`

	result, err := querier.ExecContext(
		ctx,
		query,
		response.StatusCode,
		string(headers),
		response.Body,
		time.Now().UTC(),
		claim.OperatorID,
		claim.Key.String(),
		claim.Token,
	)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to save idempotent response")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read affected rows")
	}
	return rows == 1, nil
}

// SetValidity marks a completed key as valid or revoked.
func (p *PostgreSQLIdempotencyRepository) SetValidity(
	ctx context.Context,
	operatorID uuid.UUID,
	key domain.Key,
	valid bool,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE idempotency SET is_valid = $1 WHERE operator_id = $2 AND idempotency_key = $3`

	result, err := querier.ExecContext(ctx, query, valid, operatorID, key.String())
	if err != nil {
		return apperrors.Wrap(err, "failed to update idempotency key validity")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if rows == 0 {
		return domain.ErrIdempotencyKeyNotFound
	}
	return nil
}

// List returns the operator's keys, newest first, without response bodies.
func (p *PostgreSQLIdempotencyRepository) List(
	ctx context.Context,
	operatorID uuid.UUID,
	offset, limit int,
) ([]*domain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT operator_id, idempotency_key, claim_token, response_status_code, is_valid, created_at, completed_at
			  FROM idempotency
			  WHERE operator_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, operatorID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list idempotency keys")
	}
	defer rows.Close() //nolint:errcheck

	records := make([]*domain.Record, 0)
	for rows.Next() {
		var record domain.Record
		var rawKey string
		var statusCode sql.NullInt32

		if err := rows.Scan(
			&record.OperatorID,
			&rawKey,
			&record.ClaimToken,
			&statusCode,
			&record.IsValid,
			&record.CreatedAt,
			&record.CompletedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan idempotency key")
		}

		record.Key = domain.Key(rawKey)
		if statusCode.Valid {
			record.Response = &domain.SavedResponse{StatusCode: int(statusCode.Int32)}
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate idempotency keys")
	}
	return records, nil
}

// DeleteOlderThan removes completed keys created before olderThan. With
// dryRun it only counts them.
func (p *PostgreSQLIdempotencyRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM idempotency WHERE created_at < $1 AND response_status_code IS NOT NULL`
		if err := querier.QueryRowContext(ctx, query, olderThan).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count idempotency keys")
		}
		return count, nil
	}

	query := `DELETE FROM idempotency WHERE created_at < $1 AND response_status_code IS NOT NULL`
	result, err := querier.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete idempotency keys")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read affected rows")
	}
	return count, nil
}
