package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/newsletter/internal/errors"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		email     string
		shouldErr bool
	}{
		{"reader@example.com", false},
		{"first.last+news@mail.example.com", false},
		{"readerexample.com", true},
		{"reader@", true},
		{"@example.com", true},
		{"reader@example", true},
		{"reader @example.com", true},
		{"Reader <reader@example.com>", true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := Email.Validate(tt.email)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotBlank(t *testing.T) {
	assert.NoError(t, NotBlank.Validate("Weekly digest"))
	assert.Error(t, NotBlank.Validate("   "))
	assert.Error(t, NotBlank.Validate(" \t\n "))
}

func TestNoWhitespace(t *testing.T) {
	assert.NoError(t, NoWhitespace.Validate("key-1"))
	assert.NoError(t, NoWhitespace.Validate("key 1"))
	assert.Error(t, NoWhitespace.Validate(" key-1"))
	assert.Error(t, NoWhitespace.Validate("key-1 "))
}

func TestNoControlChars(t *testing.T) {
	assert.NoError(t, NoControlChars.Validate("2f9c-retry"))
	assert.Error(t, NoControlChars.Validate("key\r\nX-Injected: 1"))
	assert.Error(t, NoControlChars.Validate("key\x00"))
}

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))

	err := WrapValidationError(assert.AnError)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), assert.AnError.Error())
}
