package testutil

import (
	"hydro-go/internal/encryption"
	"hydro-go/internal/hydro"
)

// NewTestEncryptor creates the deterministic header encryptor.
func NewTestEncryptor() hydro.Encryptor {
	return encryption.NewTestEncryptor()
}
