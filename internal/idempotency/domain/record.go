package domain

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Record is one row of the idempotency ledger. Response is nil while the key
// is claimed but not yet completed, which is only observable inside the
// claiming transaction.
type Record struct {
	OperatorID  uuid.UUID
	Key         Key
	ClaimToken  uuid.UUID
	Fingerprint []byte
	Response    *SavedResponse
	IsValid     bool
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Completed reports whether a response has been saved for the key.
func (r *Record) Completed() bool {
	return r.Response != nil
}

// Matches reports whether fingerprint identifies the same request that first
// used the key. Records written without a fingerprint match anything.
func (r *Record) Matches(fingerprint []byte) bool {
	if len(r.Fingerprint) == 0 || len(fingerprint) == 0 {
		return true
	}
	return bytes.Equal(r.Fingerprint, fingerprint)
}

// Claim is the result of a claim attempt. Token identifies the gate
// generation that owns the key and must be presented when saving.
type Claim struct {
	OperatorID  uuid.UUID
	Key         Key
	Token       uuid.UUID
	Fingerprint []byte
	Acquired    bool
}
