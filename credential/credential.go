// Package credential digests FDW credentials for comparison against the
// upstream record format.
package credential

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// ErrEmptyCredential is returned when there is nothing to hash. An empty
// credential must never silently digest to a valid-looking value.
var ErrEmptyCredential = fmt.Errorf("credential is empty")

// Hash returns the hex sha1 digest of a raw credential. The upstream FDW
// store keeps sha1 hex digests, so the algorithm is pinned for interop.
func Hash(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", ErrEmptyCredential
	}
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Equal compares two hex digests in constant time.
func Equal(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
