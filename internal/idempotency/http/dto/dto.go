// Package dto provides data transfer objects for the idempotency key endpoints.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	"github.com/allisson/newsletter/internal/idempotency/domain"
)

// SetValidityRequest is the body of PATCH /v1/idempotency-keys/:key.
type SetValidityRequest struct {
	Valid *bool `json:"valid"`
}

// Validate checks that the validity flag is present.
func (r *SetValidityRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Valid, validation.NotNil),
	)
}

// KeyResponse describes a stored idempotency key without its response body.
type KeyResponse struct {
	Key         string     `json:"key"`
	IsValid     bool       `json:"is_valid"`
	StatusCode  *int       `json:"status_code,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ListKeysResponse is a page of stored keys.
type ListKeysResponse struct {
	Data []KeyResponse `json:"data"`
}

// MapRecordsToListResponse converts ledger records.
func MapRecordsToListResponse(records []*domain.Record) ListKeysResponse {
	data := make([]KeyResponse, 0, len(records))
	for _, record := range records {
		item := KeyResponse{
			Key:         record.Key.String(),
			IsValid:     record.IsValid,
			CreatedAt:   record.CreatedAt,
			CompletedAt: record.CompletedAt,
		}
		if record.Response != nil {
			statusCode := record.Response.StatusCode
			item.StatusCode = &statusCode
		}
		data = append(data, item)
	}
	return ListKeysResponse{Data: data}
}
