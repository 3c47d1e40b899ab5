// Package domain defines newsletter issues and the content submitted to publish them.
package domain

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/newsletter/internal/errors"
	customValidation "github.com/allisson/newsletter/internal/validation"
)

// MaxTitleLength is the longest accepted issue title, in characters.
const MaxTitleLength = 255

// AcceptedMessage is returned to the operator once an issue is queued for delivery.
const AcceptedMessage = "The newsletter issue has been accepted - emails will be delivered shortly."

// ErrIssueNotFound indicates no issue exists with the given id.
var ErrIssueNotFound = errors.Wrap(errors.ErrNotFound, "newsletter issue not found")

// Issue is a published newsletter. Issues are immutable once stored.
type Issue struct {
	ID          uuid.UUID
	Title       string
	TextContent string
	HTMLContent string
	PublishedAt time.Time
}

// Content is the body of a publish request.
type Content struct {
	Title       string
	TextContent string
	HTMLContent string
}

// Validate checks that every part of the content is present.
func (c *Content) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Title,
			validation.Required,
			customValidation.NotBlank,
			validation.RuneLength(1, MaxTitleLength),
		),
		validation.Field(&c.TextContent, validation.Required, customValidation.NotBlank),
		validation.Field(&c.HTMLContent, validation.Required, customValidation.NotBlank),
	)
	return customValidation.WrapValidationError(err)
}

// NewIssue stamps content with a fresh id and the publication time.
func NewIssue(content Content, publishedAt time.Time) (*Issue, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	return &Issue{
		ID:          id,
		Title:       content.Title,
		TextContent: content.TextContent,
		HTMLContent: content.HTMLContent,
		PublishedAt: publishedAt,
	}, nil
}
