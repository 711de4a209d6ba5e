package registry

import (
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
)

// PrincipalSize is the length of a principal identity in bytes.
const PrincipalSize = 20

// Principal is an opaque caller/account identity: the HASH160 of a
// compressed public key, the form the surrounding ledger uses for
// account addresses. The zero value is the reserved null/burn identity
// and never authorized for anything.
type Principal [PrincipalSize]byte

// NullPrincipal is the reserved null/burn identity.
var NullPrincipal Principal

// PrincipalFromPublicKey derives the principal identity for a public key:
// HASH160(compressed pubkey) = RIPEMD160(SHA256(compressed pubkey)).
func PrincipalFromPublicKey(pub *ec.PublicKey) Principal {
	var p Principal
	copy(p[:], bsvhash.Hash160(pub.Compressed()))
	return p
}

// PrincipalFromHex parses a 40-character hex string into a Principal.
func PrincipalFromHex(s string) (Principal, error) {
	var p Principal
	b, err := hex.DecodeString(s)
	if err != nil {
		return p, fmt.Errorf("%w: principal hex: %v", ErrInvalidInput, err)
	}
	if len(b) != PrincipalSize {
		return p, fmt.Errorf("%w: principal must be %d bytes, got %d", ErrInvalidInput, PrincipalSize, len(b))
	}
	copy(p[:], b)
	return p, nil
}

// Hex returns the lowercase hex encoding of the principal.
func (p Principal) Hex() string {
	return hex.EncodeToString(p[:])
}

// IsNull reports whether p is the reserved null/burn identity.
func (p Principal) IsNull() bool {
	return p == NullPrincipal
}
