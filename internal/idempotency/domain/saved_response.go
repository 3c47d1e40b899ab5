package domain

import (
	"net/http"
)

// HeaderPair is one response header. Order and duplicates are preserved.
type HeaderPair struct {
	Name  string `json:"name"`
	Value []byte `json:"value"`
}

// SavedResponse is the complete response replayed for a repeated request.
type SavedResponse struct {
	StatusCode int
	Headers    []HeaderPair
	Body       []byte
}

// HeadersFrom flattens an http.Header, keeping every value of multi-valued headers.
func HeadersFrom(header http.Header) []HeaderPair {
	pairs := make([]HeaderPair, 0, len(header))
	for name, values := range header {
		for _, value := range values {
			pairs = append(pairs, HeaderPair{Name: name, Value: []byte(value)})
		}
	}
	return pairs
}

// Header rebuilds an http.Header from the saved pairs.
func (r *SavedResponse) Header() http.Header {
	header := make(http.Header, len(r.Headers))
	for _, pair := range r.Headers {
		header.Add(pair.Name, string(pair.Value))
	}
	return header
}
