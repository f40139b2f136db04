package auth

import (
	"crypto/sha1" //nolint:gosec // the credential pipeline stores sha1 digests
	"encoding/hex"
)

// SHA1Hex is the digest under which the authorization pipeline stores client
// secrets. It is a compatibility requirement of the external store, not a
// cryptographic choice made here.
func SHA1Hex(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
