// Package validation provides custom validation rules for the application.
package validation

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/newsletter/internal/errors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email validates the address format. Display-name forms such as
// "Ursula <u@example.com>" are rejected.
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		if !emailRegex.MatchString(s) {
			return false
		}
		addr, err := mail.ParseAddress(s)
		return err == nil && addr.Address == s
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoControlChars rejects strings containing control characters such as CR
// and LF, which would corrupt header values and log lines.
var NoControlChars = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.IndexFunc(s, unicode.IsControl) < 0
	},
	validation.NewError("validation_no_control_chars", "must not contain control characters"),
)
