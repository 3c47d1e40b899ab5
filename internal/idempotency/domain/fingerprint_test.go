package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	first := Fingerprint("Weekly", "text", "<p>html</p>")

	assert.Len(t, first, 32)
	assert.Equal(t, first, Fingerprint("Weekly", "text", "<p>html</p>"))
	assert.NotEqual(t, first, Fingerprint("Weekly", "text", "<p>other</p>"))
	assert.NotEqual(t, Fingerprint("ab", "c"), Fingerprint("a", "bc"))
}
