package domain

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint hashes the fields of a request so a replay can be told apart
// from a different request that reuses the same key. Each part is length
// prefixed, so ("ab", "c") and ("a", "bc") hash differently.
func Fingerprint(parts ...string) []byte {
	hash, _ := blake2b.New256(nil) // only fails for keys longer than 64 bytes
	var size [8]byte
	for _, part := range parts {
		binary.BigEndian.PutUint64(size[:], uint64(len(part)))
		_, _ = hash.Write(size[:])
		_, _ = hash.Write([]byte(part))
	}
	return hash.Sum(nil)
}
