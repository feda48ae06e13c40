package hydro

import "io"

// Snapshot item names stored in a vault.
const (
	SnapshotDatabase   = "db"
	SnapshotPublicKey  = "public_key"
	SnapshotPrivateKey = "private_key"
)

// Vault stores encrypted snapshots of an installation's database off the device.
// All operations stream through io.Reader/io.Writer.
type Vault interface {
	// PutSnapshot stores a named item for an installation, replacing the previous one.
	// size is the number of bytes that will be read from r.
	// version is stored alongside for consistency checks; it is the local operation id.
	PutSnapshot(installID string, name string, r io.Reader, size int64, version int64) error

	// GetSnapshot retrieves a named item and writes it to w.
	GetSnapshot(installID string, name string, w io.Writer) error

	// GetSnapshotVersion returns the version stored with a named item.
	// Returns 0 if nothing has been stored for this installation/name.
	GetSnapshotVersion(installID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}

// Encryptor encrypts snapshots with a public key and unlocks a private key
// for restores. Encryption never needs the passphrase.
type Encryptor interface {
	// Setup generates a key pair, storing the public key in plaintext and
	// the private key encrypted with passphrase. Called during `hydro config init`.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key and returns a context that can decrypt
	// snapshots. Returns an error if the passphrase is incorrect.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured returns true if both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for one restore.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
