package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCreateCORSMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.Nil(t, createCORSMiddleware(false, "https://editor.example.com", logger))
	assert.Nil(t, createCORSMiddleware(true, "", logger))
	assert.Nil(t, createCORSMiddleware(true, " , ", logger))
	assert.NotNil(t, createCORSMiddleware(true, "https://editor.example.com, https://admin.example.com", logger))
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{
			name:     "comma separated",
			input:    "https://editor.example.com,https://admin.example.com",
			expected: []string{"https://editor.example.com", "https://admin.example.com"},
		},
		{
			name:     "whitespace and blanks",
			input:    " https://editor.example.com , ,https://admin.example.com ",
			expected: []string{"https://editor.example.com", "https://admin.example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origins := parseOrigins(tt.input)
			if tt.expected == nil {
				assert.Empty(t, origins)
				return
			}
			assert.Equal(t, tt.expected, origins)
		})
	}
}

func corsRouter(enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if middleware := createCORSMiddleware(enabled, "https://editor.example.com", logger); middleware != nil {
		router.Use(middleware)
	}
	router.POST("/v1/newsletters", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	return router
}

func TestCORS_PreflightAllowsIdempotencyKey(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/newsletters", nil)
	req.Header.Set("Origin", "https://editor.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	corsRouter(true).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://editor.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
}

func TestCORS_NoHeadersWhenDisabled(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/newsletters", nil)
	req.Header.Set("Origin", "https://editor.example.com")
	corsRouter(false).ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
