// Package checksum computes content-addressable digests for fetched
// document bytes. Digests are SHA-256 rendered as 64 lowercase hex
// characters and are stored on document records both as the immutable
// original checksum and the drift-detection current checksum.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// HexLength is the length of a rendered digest.
const HexLength = 64

// Sum returns the SHA-256 digest of data as lowercase hex.
func Sum(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// Valid reports whether value looks like a digest produced by Sum.
func Valid(value string) bool {
	if len(value) != HexLength {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
