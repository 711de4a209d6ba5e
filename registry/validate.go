package registry

// Pure input predicates. They report shape only; callers map failures to
// the appropriate error kind.

// ValidKey reports whether k is usable key material: not the all-zero
// sentinel. Length is enforced by the array type.
func ValidKey(k [KeySize]byte) bool {
	return k != [KeySize]byte{}
}

// ValidHash reports whether h is a usable content digest: not the
// all-zero sentinel.
func ValidHash(h [HashSize]byte) bool {
	return h != [HashSize]byte{}
}

// ValidReason reports whether s is an acceptable rotation reason:
// non-empty and at most MaxReasonLen bytes.
func ValidReason(s string) bool {
	return len(s) >= 1 && len(s) <= MaxReasonLen
}

// ValidPrincipal reports whether p is a usable identity: anything but
// the reserved null/burn principal.
func ValidPrincipal(p Principal) bool {
	return !p.IsNull()
}

// validFileID reports whether id was previously issued, given the
// current next-identifier scalar.
func validFileID(id, nextID uint64) bool {
	return id >= FirstFileID && id < nextID
}
