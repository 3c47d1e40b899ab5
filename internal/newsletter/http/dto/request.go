// Package dto provides data transfer objects for the newsletter endpoints.
package dto

import (
	"github.com/allisson/newsletter/internal/newsletter/domain"
)

// PublishRequest is the body of POST /v1/newsletters. The idempotency key may
// come from the Idempotency-Key header instead of the body.
type PublishRequest struct {
	Title          string `json:"title"`
	TextContent    string `json:"text_content"`
	HTMLContent    string `json:"html_content"`
	IdempotencyKey string `json:"idempotency_key"`
}

// Content returns the issue content carried by the request.
func (r *PublishRequest) Content() domain.Content {
	return domain.Content{
		Title:       r.Title,
		TextContent: r.TextContent,
		HTMLContent: r.HTMLContent,
	}
}
