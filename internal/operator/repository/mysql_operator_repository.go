package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/newsletter/internal/database"
	apperrors "github.com/allisson/newsletter/internal/errors"
	"github.com/allisson/newsletter/internal/operator/domain"
)

// MySQLOperatorRepository stores operators in MySQL with BINARY(16) ids.
type MySQLOperatorRepository struct {
	db *sql.DB
}

// NewMySQLOperatorRepository creates a new MySQLOperatorRepository.
func NewMySQLOperatorRepository(db *sql.DB) *MySQLOperatorRepository {
	return &MySQLOperatorRepository{db: db}
}

// Create inserts an operator.
func (m *MySQLOperatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	querier := database.GetTx(ctx, m.db)

	id, err := operator.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal operator id")
	}

	query := `INSERT INTO operators (id, name, token_hash, is_active, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		operator.Name,
		operator.TokenHash,
		operator.IsActive,
		operator.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrOperatorAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create operator")
	}
	return nil
}

// GetByTokenHash returns the operator owning the token hash.
func (m *MySQLOperatorRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Operator, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, token_hash, is_active, created_at FROM operators WHERE token_hash = ?`

	var operator domain.Operator
	var id []byte
	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&id,
		&operator.Name,
		&operator.TokenHash,
		&operator.IsActive,
		&operator.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOperatorNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get operator")
	}
	if err := operator.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal operator id")
	}
	return &operator, nil
}
