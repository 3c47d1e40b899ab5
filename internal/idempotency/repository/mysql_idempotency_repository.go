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

// MySQLIdempotencyRepository stores the idempotency ledger in MySQL. UUIDs are
// stored as BINARY(16).
type MySQLIdempotencyRepository struct {
	db *sql.DB
}

// NewMySQLIdempotencyRepository creates a new MySQLIdempotencyRepository.
func NewMySQLIdempotencyRepository(db *sql.DB) *MySQLIdempotencyRepository {
	return &MySQLIdempotencyRepository{db: db}
}

// InsertPlaceholder claims the key. The no-op ON DUPLICATE KEY UPDATE reports
// zero affected rows for an existing key and, unlike INSERT IGNORE, does not
// swallow unrelated errors.
func (m *MySQLIdempotencyRepository) InsertPlaceholder(
	ctx context.Context,
	claim *domain.Claim,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	operatorID, err := claim.OperatorID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal operator id")
	}
	token, err := claim.Token.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal claim token")
	}

	query := `INSERT INTO idempotency (operator_id, idempotency_key, claim_token, request_fingerprint, is_valid, created_at)
			  VALUES (?, ?, ?, ?, TRUE, ?)
			  ON DUPLICATE KEY UPDATE operator_id = operator_id`

	result, err := querier.ExecContext(
		ctx,
		query,
		operatorID,
		claim.Key.String(),
		token,
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
func (m *MySQLIdempotencyRepository) Get(
	ctx context.Context,
	operatorID uuid.UUID,
	key domain.Key,
) (*domain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	rawOperatorID, err := operatorID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal operator id")
	}

	query := `SELECT operator_id, idempotency_key, claim_token, request_fingerprint,
			  response_status_code, response_headers, response_body, is_valid, created_at, completed_at
			  FROM idempotency
			  WHERE operator_id = ? AND idempotency_key = ?`

	var record domain.Record
	var rawKey string
	var scannedOperatorID, token []byte
	var statusCode sql.NullInt32
	var headers, body []byte

	err = querier.QueryRowContext(ctx, query, rawOperatorID, key.String()).Scan(
		&scannedOperatorID,
		&rawKey,
		&token,
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

	if err := record.OperatorID.UnmarshalBinary(scannedOperatorID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal operator id")
	}
	if err := record.ClaimToken.UnmarshalBinary(token); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal claim token")
	}

	record.Key = domain.Key(rawKey)
	record.Response, err = decodeResponse(statusCode, headers, body)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode saved response")
	}
	return &record, nil
}

// SaveResponse completes a placeholder owned by the claim.
func (m *MySQLIdempotencyRepository) SaveResponse(
	ctx context.Context,
	claim *domain.Claim,
	response *domain.SavedResponse,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	headers, err := encodeHeaders(response.Headers)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to encode response headers")
	}
	operatorID, err := claim.OperatorID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal operator id")
	}
	token, err := claim.Token.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal claim token")
	}

	query := `UPDATE idempotency
			  SET response_status_code = ?, response_headers = ?, response_body = ?, completed_at = ?
			  WHERE operator_id = ? AND idempotency_key = ? AND claim_token = ?
			  AND response_status_code IS NULL`

	result, err := querier.ExecContext(
		ctx,
		query,
		response.StatusCode,
		headers,
		response.Body,
		time.Now().UTC(),
		operatorID,
		claim.Key.String(),
		token,
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

// SetValidity marks a key as valid or revoked. MySQL reports zero affected
// rows when the value does not change, so existence is checked separately.
func (m *MySQLIdempotencyRepository) SetValidity(
	ctx context.Context,
	operatorID uuid.UUID,
	key domain.Key,
	valid bool,
) error {
	querier := database.GetTx(ctx, m.db)

	rawOperatorID, err := operatorID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal operator id")
	}

	var exists int
	err = querier.QueryRowContext(
		ctx,
		`SELECT 1 FROM idempotency WHERE operator_id = ? AND idempotency_key = ?`,
		rawOperatorID,
		key.String(),
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrIdempotencyKeyNotFound
		}
		return apperrors.Wrap(err, "failed to check idempotency key")
	}

	query := `UPDATE idempotency SET is_valid = ? WHERE operator_id = ? AND idempotency_key = ?`
	if _, err := querier.ExecContext(ctx, query, valid, rawOperatorID, key.String()); err != nil {
		return apperrors.Wrap(err, "failed to update idempotency key validity")
	}
	return nil
}

// List returns the operator's keys, newest first, without response bodies.
func (m *MySQLIdempotencyRepository) List(
	ctx context.Context,
	operatorID uuid.UUID,
	offset, limit int,
) ([]*domain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	rawOperatorID, err := operatorID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal operator id")
	}

	query := `SELECT idempotency_key, claim_token, response_status_code, is_valid, created_at, completed_at
			  FROM idempotency
			  WHERE operator_id = ?
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, rawOperatorID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list idempotency keys")
	}
	defer rows.Close() //nolint:errcheck

	records := make([]*domain.Record, 0)
	for rows.Next() {
		record := domain.Record{OperatorID: operatorID}
		var rawKey string
		var token []byte
		var statusCode sql.NullInt32

		if err := rows.Scan(
			&rawKey,
			&token,
			&statusCode,
			&record.IsValid,
			&record.CreatedAt,
			&record.CompletedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan idempotency key")
		}
		if err := record.ClaimToken.UnmarshalBinary(token); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal claim token")
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
func (m *MySQLIdempotencyRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM idempotency WHERE created_at < ? AND response_status_code IS NOT NULL`
		if err := querier.QueryRowContext(ctx, query, olderThan).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count idempotency keys")
		}
		return count, nil
	}

	query := `DELETE FROM idempotency WHERE created_at < ? AND response_status_code IS NOT NULL`
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
