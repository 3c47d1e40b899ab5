package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/newsletter/domain"
)

// IssueResponse represents a published issue.
type IssueResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	TextContent string    `json:"text_content"`
	HTMLContent string    `json:"html_content"`
	PublishedAt time.Time `json:"published_at"`
}

// ListIssuesResponse is a page of issues, newest first.
type ListIssuesResponse struct {
	Data []IssueResponse `json:"data"`
}

// DeliveryStatusResponse reports the deliveries of an issue still queued.
type DeliveryStatusResponse struct {
	IssueID string `json:"issue_id"`
	Pending int64  `json:"pending"`
}

// MapIssueToResponse converts a domain issue.
func MapIssueToResponse(issue *domain.Issue) IssueResponse {
	return IssueResponse{
		ID:          issue.ID.String(),
		Title:       issue.Title,
		TextContent: issue.TextContent,
		HTMLContent: issue.HTMLContent,
		PublishedAt: issue.PublishedAt,
	}
}

// MapIssuesToListResponse converts a page of domain issues.
func MapIssuesToListResponse(issues []*domain.Issue) ListIssuesResponse {
	data := make([]IssueResponse, 0, len(issues))
	for _, issue := range issues {
		data = append(data, MapIssueToResponse(issue))
	}
	return ListIssuesResponse{Data: data}
}

// MapDeliveryStatus builds the delivery status of an issue.
func MapDeliveryStatus(issueID uuid.UUID, pending int64) DeliveryStatusResponse {
	return DeliveryStatusResponse{IssueID: issueID.String(), Pending: pending}
}
