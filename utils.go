package marketd

import (
	"regexp"

	"github.com/cosmos/cosmos-sdk/types/bech32"
)

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

// IsValidUsername reports whether a username is acceptable for signup:
// 30 characters or fewer, letters, digits and @/./+/-/_ only.
func IsValidUsername(username string) bool {
	return username != "" && len(username) <= 30 && usernameRe.MatchString(username)
}

// IsFingerprint reports whether s looks like a key fingerprint.
func IsFingerprint(s string) bool {
	hrp, _, err := bech32.DecodeAndConvert(s)
	return err == nil && hrp == FingerprintHRP
}
