// Package cas computes the content digests that identify gabc sources.
// BLAKE3 is the primary identity; SHA-256 is recorded alongside for tools
// that only speak SHA-256.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/zeebo/blake3"
)

// MinPrefix is the shortest digest prefix accepted for lookups.
const MinPrefix = 4

var prefixPattern = regexp.MustCompile(fmt.Sprintf(`^[a-f0-9]{%d,64}$`, MinPrefix))

// Digests holds both hashes of one source.
type Digests struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// Sum computes both digests of data.
func Sum(data []byte) Digests {
	return Digests{SHA256: Hash(data), BLAKE3: Blake3Hash(data)}
}

// Hash computes the SHA-256 hash of data as lowercase hex.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Blake3Hash computes the BLAKE3 hash of data as lowercase hex.
func Blake3Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// IsPrefix reports whether s can abbreviate a digest: lowercase hex,
// between MinPrefix and 64 characters.
func IsPrefix(s string) bool {
	return prefixPattern.MatchString(s)
}
