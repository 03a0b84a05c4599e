// Package hasher computes content identifiers for attested payloads.
package hasher

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// DigestHexLen is the length of every identifier returned by ContentHash.
const DigestHexLen = 64

// ContentHash returns the BLAKE3-256 digest of content as lowercase hex.
// It is defined for every input, including the empty one.
func ContentHash(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}
