// Package repository persists operators in PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/newsletter/internal/database"
	apperrors "github.com/allisson/newsletter/internal/errors"
	"github.com/allisson/newsletter/internal/operator/domain"
)

// PostgreSQLOperatorRepository stores operators in PostgreSQL.
type PostgreSQLOperatorRepository struct {
	db *sql.DB
}

// NewPostgreSQLOperatorRepository creates a new PostgreSQLOperatorRepository.
func NewPostgreSQLOperatorRepository(db *sql.DB) *PostgreSQLOperatorRepository {
	return &PostgreSQLOperatorRepository{db: db}
}

// Create inserts an operator.
func (p *PostgreSQLOperatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO operators (id, name, token_hash, is_active, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(
		ctx,
		query,
		operator.ID,
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
func (p *PostgreSQLOperatorRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Operator, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, token_hash, is_active, created_at FROM operators WHERE token_hash = $1`

	var operator domain.Operator
	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&operator.ID,
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
	return &operator, nil
}
