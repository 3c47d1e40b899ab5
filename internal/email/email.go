// Package email provides the mail transports used by the delivery worker.
package email

import (
	"errors"
	"fmt"
)

// ErrPermanentDelivery marks failures that retrying cannot fix, such as a
// rejected recipient address. Any other Send error is treated as transient.
var ErrPermanentDelivery = errors.New("permanent delivery failure")

// Message is one email addressed to a single recipient.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Permanent wraps err so IsPermanent reports true.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanentDelivery, err)
}

// IsPermanent reports whether err is a permanent delivery failure.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanentDelivery)
}
