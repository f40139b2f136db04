package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
	"github.com/rcauth-eu/keyportal/internal/validation"
)

func TestCheckPublicKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		ok   bool
	}{
		{name: "plain rsa key", key: "ssh-rsa AAAAB3NzaC1yc2E=", ok: true},
		{name: "key with comment", key: "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5 user@host", ok: true},
		{name: "unpadded base64", key: "ssh-rsa AAAAB3NzaC1yc2E", ok: true},
		{name: "no space", key: "not-a-key", ok: false},
		{name: "wrong prefix", key: "ecdsa-sha2 AAAAB3NzaC1yc2E=", ok: false},
		{name: "not base64", key: "ssh-rsa not_base64!!", ok: false},
		{name: "empty string", key: "", ok: false},
		{name: "prefix only", key: "ssh- AAAA", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.CheckPublicKey(tt.key)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidKeyFormat)
		})
	}
}
