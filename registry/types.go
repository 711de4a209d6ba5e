package registry

const (
	// KeySize is the exact length of file public key material in bytes.
	KeySize = 64

	// HashSize is the exact length of a file content digest in bytes.
	HashSize = 32

	// MaxReasonLen is the maximum length of a rotation reason in bytes.
	MaxReasonLen = 100

	// DefaultMaxFilesPerOwner is the per-owner ceiling on registered files.
	DefaultMaxFilesPerOwner = 1000

	// DefaultRotationCooldown is the minimum number of height units that
	// must elapse between successive rotations of the same file.
	DefaultRotationCooldown = 10

	// FirstFileID is the identifier assigned to the first registered file.
	// Identifiers are dense, strictly increasing, and never reused.
	FirstFileID = 1
)

// FileRecord is the authoritative metadata for a registered file.
// Records are never deleted; deactivation is a one-way flag.
type FileRecord struct {
	Hash          [HashSize]byte // content digest, never all-zero
	Owner         Principal
	PublicKey     [KeySize]byte // current key material, never all-zero
	CreatedAt     uint64        // height at registration
	LastRotatedAt uint64        // height of last rotation, >= CreatedAt
	RotationCount uint64
	IsActive      bool
}

// AccessGrant records delegated read/write permission for one
// (file, user) pair. A new grant fully replaces any previous one.
type AccessGrant struct {
	CanRead   bool
	CanWrite  bool
	GrantedAt uint64 // height at grant
	GrantedBy Principal
}

// RotationEvent is one immutable entry in a file's append-only rotation
// history. Seq equals the file's RotationCount before the increment, so
// sequence numbers per file are dense and start at 0.
type RotationEvent struct {
	OldKey    [KeySize]byte
	NewKey    [KeySize]byte
	RotatedAt uint64 // height at rotation
	RotatedBy Principal
	Reason    string
}
