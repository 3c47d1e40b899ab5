package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/newsletter/internal/errors"
)

func TestParseKey(t *testing.T) {
	t.Run("Success_ValidKey", func(t *testing.T) {
		key, err := ParseKey("0b1a6c2e-publish-1")
		require.NoError(t, err)
		assert.Equal(t, "0b1a6c2e-publish-1", key.String())
	})

	t.Run("Success_MaxLength", func(t *testing.T) {
		_, err := ParseKey(strings.Repeat("k", MaxKeyLength))
		assert.NoError(t, err)
	})

	t.Run("Error_Empty", func(t *testing.T) {
		_, err := ParseKey("")
		assert.ErrorIs(t, err, ErrIdempotencyKeyEmpty)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("Error_OnlyWhitespace", func(t *testing.T) {
		_, err := ParseKey("  \t ")
		assert.ErrorIs(t, err, ErrIdempotencyKeyEmpty)
	})

	t.Run("Error_TooLong", func(t *testing.T) {
		_, err := ParseKey(strings.Repeat("k", MaxKeyLength+1))
		assert.ErrorIs(t, err, ErrIdempotencyKeyTooLong)
	})

	t.Run("Success_MultiByteCharacters", func(t *testing.T) {
		key, err := ParseKey("édition-été-2026")
		require.NoError(t, err)
		assert.Equal(t, "édition-été-2026", key.String())
	})

	t.Run("Success_MaxLengthCountsCharacters", func(t *testing.T) {
		_, err := ParseKey(strings.Repeat("é", MaxKeyLength))
		assert.NoError(t, err)
	})

	malformed := []struct {
		name string
		raw  string
	}{
		{"InvalidUTF8", "\xff\xfe"},
		{"InvalidUTF8Suffix", "key-\xc3"},
		{"NULByte", "a\x00b"},
		{"TrailingNewline", "K1\n"},
		{"EmbeddedCarriageReturn", "K1\rK2"},
		{"DeleteCharacter", "K1\x7f"},
		{"TrailingSpace", "K1 "},
		{"LeadingSpace", " K1"},
		{"LeadingTab", "\tK1"},
	}
	for _, tc := range malformed {
		t.Run("Error_Malformed_"+tc.name, func(t *testing.T) {
			_, err := ParseKey(tc.raw)
			assert.ErrorIs(t, err, ErrIdempotencyKeyMalformed)
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		})
	}
}
