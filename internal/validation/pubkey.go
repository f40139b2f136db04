// Package validation holds the structural sanity checks applied to uploaded
// request material.
package validation

import (
	"encoding/base64"
	"fmt"
	"strings"

	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
)

// An uploaded public key's type field must carry this prefix.
const sshKeyPrefix = "ssh-"

// CheckPublicKey does a basic structural check on an uploaded SSH public key:
// the string must contain at least one space, the part before the first space
// must start with "ssh-", and the part between the first and second space (or
// to the end of the string) must be valid base64. It does not verify that the
// decoded bytes form a real key for the claimed algorithm.
func CheckPublicKey(key string) error {
	firstSpace := strings.IndexByte(key, ' ')
	if firstSpace < 0 {
		return fmt.Errorf("%w: no space in key", apperrors.ErrInvalidKeyFormat)
	}

	keyType := key[:firstSpace]
	if !strings.HasPrefix(keyType, sshKeyPrefix) {
		return fmt.Errorf("%w: key type does not start with %q", apperrors.ErrInvalidKeyFormat, sshKeyPrefix)
	}

	encoded := key[firstSpace+1:]
	if secondSpace := strings.IndexByte(encoded, ' '); secondSpace >= 0 {
		encoded = encoded[:secondSpace]
	}

	// Padding on the encoded part is optional in practice.
	if _, err := base64.StdEncoding.DecodeString(encoded); err != nil {
		if _, err := base64.RawStdEncoding.DecodeString(encoded); err != nil {
			return fmt.Errorf("%w: key part is not base64", apperrors.ErrInvalidKeyFormat)
		}
	}
	return nil
}
