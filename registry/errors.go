package registry

import "errors"

var (
	// ErrUnauthorized indicates the caller lacks the required role
	// (owner, administrator, or key-manager membership).
	ErrUnauthorized = errors.New("registry: caller not authorized")

	// ErrNotFound indicates the referenced file identifier was never issued.
	ErrNotFound = errors.New("registry: file not found")

	// ErrInvalidInput indicates a malformed argument or a violated
	// precondition (null principal, inactive file, self-referential
	// grant or transfer).
	ErrInvalidInput = errors.New("registry: invalid input")

	// ErrInvalidKey indicates key material of the wrong length or the
	// all-zero sentinel value.
	ErrInvalidKey = errors.New("registry: invalid key material")

	// ErrInvalidHash indicates a file digest of the wrong length or the
	// all-zero sentinel value.
	ErrInvalidHash = errors.New("registry: invalid file hash")

	// ErrInvalidRotation indicates a no-op key rotation or a rotation
	// attempted inside the cool-down window.
	ErrInvalidRotation = errors.New("registry: invalid key rotation")

	// ErrReasonTooLong indicates the rotation reason exceeds the bound.
	ErrReasonTooLong = errors.New("registry: rotation reason too long")

	// ErrQuotaExceeded indicates the owner has reached the per-owner
	// file ceiling.
	ErrQuotaExceeded = errors.New("registry: file quota exceeded")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("registry: store is closed")

	// ErrReadOnlyTx indicates a write attempted inside a View transaction.
	ErrReadOnlyTx = errors.New("registry: write in read-only transaction")
)
