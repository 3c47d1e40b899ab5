package domain

import (
	"strings"
	"unicode/utf8"

	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/newsletter/internal/validation"
)

// MaxKeyLength is the largest idempotency key accepted, in characters.
const MaxKeyLength = 255

// Key is a caller-supplied token identifying one logical publish request.
type Key string

// ParseKey validates a raw key. Keys are compared byte for byte, so surrounding
// whitespace is rejected instead of trimmed: MySQL's PAD SPACE collations
// would otherwise treat "k" and "k " as the same key.
func ParseKey(raw string) (Key, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrIdempotencyKeyEmpty
	}
	if !utf8.ValidString(raw) {
		return "", ErrIdempotencyKeyMalformed
	}
	if utf8.RuneCountInString(raw) > MaxKeyLength {
		return "", ErrIdempotencyKeyTooLong
	}
	if err := validation.Validate(raw, customValidation.NoControlChars, customValidation.NoWhitespace); err != nil {
		return "", ErrIdempotencyKeyMalformed
	}
	return Key(raw), nil
}

// String returns the raw key.
func (k Key) String() string {
	return string(k)
}
