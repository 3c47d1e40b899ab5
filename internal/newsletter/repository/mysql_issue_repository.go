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

// MySQLIssueRepository persists newsletter issues in MySQL.
type MySQLIssueRepository struct {
	db *sql.DB
}

// NewMySQLIssueRepository creates a new MySQLIssueRepository.
func NewMySQLIssueRepository(db *sql.DB) *MySQLIssueRepository {
	return &MySQLIssueRepository{db: db}
}

// Create inserts an issue.
func (m *MySQLIssueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	querier := database.GetTx(ctx, m.db)

	id, err := issue.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal issue id")
	}

	query := `INSERT INTO newsletter_issues (id, title, text_content, html_content, published_at)
			  VALUES (?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query, id, issue.Title, issue.TextContent, issue.HTMLContent, issue.PublishedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create newsletter issue")
	}
	return nil
}

// GetByID returns a stored issue.
func (m *MySQLIssueRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Issue, error) {
	querier := database.GetTx(ctx, m.db)

	rawID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal issue id")
	}

	query := `SELECT id, title, text_content, html_content, published_at FROM newsletter_issues WHERE id = ?`

	issue, err := scanMySQLIssue(querier.QueryRowContext(ctx, query, rawID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIssueNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get newsletter issue")
	}
	return issue, nil
}

// List returns issues, most recently published first.
func (m *MySQLIssueRepository) List(ctx context.Context, offset, limit int) ([]*domain.Issue, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, title, text_content, html_content, published_at
			  FROM newsletter_issues
			  ORDER BY published_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list newsletter issues")
	}
	defer rows.Close() //nolint:errcheck

	issues := make([]*domain.Issue, 0)
	for rows.Next() {
		issue, err := scanMySQLIssue(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan newsletter issue")
		}
		issues = append(issues, issue)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate newsletter issues")
	}
	return issues, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMySQLIssue(row rowScanner) (*domain.Issue, error) {
	var issue domain.Issue
	var id []byte

	if err := row.Scan(&id, &issue.Title, &issue.TextContent, &issue.HTMLContent, &issue.PublishedAt); err != nil {
		return nil, err
	}
	if err := issue.ID.UnmarshalBinary(id); err != nil {
		return nil, err
	}
	return &issue, nil
}
