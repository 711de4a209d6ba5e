package snapshot

import "errors"

var (
	// ErrEmptyPassphrase indicates a seal/open call without a passphrase.
	ErrEmptyPassphrase = errors.New("snapshot: passphrase is required")

	// ErrDecryptionFailed indicates the envelope could not be decrypted
	// (wrong passphrase or corrupted data).
	ErrDecryptionFailed = errors.New("snapshot: decryption failed")

	// ErrChecksumMismatch indicates the decrypted body failed its
	// integrity check.
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")

	// ErrBadEnvelope indicates data that is not a sealed snapshot.
	ErrBadEnvelope = errors.New("snapshot: malformed envelope")

	// ErrStoreNotEmpty indicates a restore attempted into a store that
	// already holds registry state.
	ErrStoreNotEmpty = errors.New("snapshot: store is not empty")
)
