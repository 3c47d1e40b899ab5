// Package repository stores newsletter issues in PostgreSQL or MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/database"
	apperrors "github.com/allisson/newsletter/internal/errors"
	"github.com/allisson/newsletter/internal/newsletter/domain"
)

// PostgreSQLIssueRepository persists newsletter issues in PostgreSQL.
type PostgreSQLIssueRepository struct {
	db *sql.DB
}

// NewPostgreSQLIssueRepository creates a new PostgreSQLIssueRepository.
func NewPostgreSQLIssueRepository(db *sql.DB) *PostgreSQLIssueRepository {
	return &PostgreSQLIssueRepository{db: db}
}

// Create inserts an issue.
func (p *PostgreSQLIssueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO newsletter_issues (id, title, text_content, html_content, published_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(
		ctx,
		query,
		issue.ID,
		issue.Title,
		issue.TextContent,
		issue.HTMLContent,
		issue.PublishedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create newsletter issue")
	}
	return nil
}

// GetByID returns a stored issue.
func (p *PostgreSQLIssueRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Issue, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, title, text_content, html_content, published_at FROM newsletter_issues WHERE id = $1`

	var issue domain.Issue
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&issue.ID,
		&issue.Title,
		&issue.TextContent,
		&issue.HTMLContent,
		&issue.PublishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIssueNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get newsletter issue")
	}
	return &issue, nil
}

// List returns issues, most recently published first.
func (p *PostgreSQLIssueRepository) List(ctx context.Context, offset, limit int) ([]*domain.Issue, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, title, text_content, html_content, published_at
			  FROM newsletter_issues
			  ORDER BY published_at DESC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list newsletter issues")
	}
	defer rows.Close() //nolint:errcheck

	issues := make([]*domain.Issue, 0)
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(
			&issue.ID,
			&issue.Title,
			&issue.TextContent,
			&issue.HTMLContent,
			&issue.PublishedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan newsletter issue")
		}
		issues = append(issues, &issue)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate newsletter issues")
	}
	return issues, nil
}
