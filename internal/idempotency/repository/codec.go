// Package repository persists the idempotency ledger in PostgreSQL or MySQL.
package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/allisson/newsletter/internal/idempotency/domain"
)

// encodeHeaders serializes header pairs for the response_headers JSON column.
func encodeHeaders(headers []domain.HeaderPair) ([]byte, error) {
	if headers == nil {
		headers = []domain.HeaderPair{}
	}
	return json.Marshal(headers)
}

// decodeResponse rebuilds the saved response from nullable columns. A NULL
// status code means the key is still a placeholder.
func decodeResponse(
	statusCode sql.NullInt32,
	headers []byte,
	body []byte,
) (*domain.SavedResponse, error) {
	if !statusCode.Valid {
		return nil, nil
	}

	response := &domain.SavedResponse{
		StatusCode: int(statusCode.Int32),
		Headers:    []domain.HeaderPair{},
		Body:       body,
	}
	if response.Body == nil {
		response.Body = []byte{}
	}
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &response.Headers); err != nil {
			return nil, err
		}
	}
	return response, nil
}
