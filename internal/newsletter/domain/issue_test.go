package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/newsletter/internal/errors"
)

func TestContent_Validate(t *testing.T) {
	valid := Content{Title: "Issue #1", TextContent: "Hello", HTMLContent: "<p>Hello</p>"}

	t.Run("Success", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	tests := []struct {
		name   string
		mutate func(c *Content)
	}{
		{"missing title", func(c *Content) { c.Title = "" }},
		{"blank title", func(c *Content) { c.Title = "   " }},
		{"title too long", func(c *Content) { c.Title = strings.Repeat("t", MaxTitleLength+1) }},
		{"missing text", func(c *Content) { c.TextContent = "" }},
		{"missing html", func(c *Content) { c.HTMLContent = "" }},
	}
	for _, tt := range tests {
		t.Run("Error_"+tt.name, func(t *testing.T) {
			content := valid
			tt.mutate(&content)
			err := content.Validate()
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		})
	}
}

func TestNewIssue(t *testing.T) {
	publishedAt := time.Now().UTC()
	issue, err := NewIssue(Content{Title: "t", TextContent: "x", HTMLContent: "<p>x</p>"}, publishedAt)

	require.NoError(t, err)
	assert.NotEqual(t, [16]byte{}, [16]byte(issue.ID))
	assert.Equal(t, "t", issue.Title)
	assert.Equal(t, publishedAt, issue.PublishedAt)
}
