package registry

import "sync"

// Store persists registry state. Every public registry operation runs
// inside exactly one Update or View, so a Store must apply all writes of
// a successful Update atomically and discard all writes of a failed one.
type Store interface {
	// Update runs fn in a read-write transaction. If fn returns an
	// error the transaction is rolled back and no write is visible.
	Update(fn func(tx Tx) error) error

	// View runs fn in a read-only transaction.
	View(fn func(tx Tx) error) error

	// Close releases the underlying resources.
	Close() error
}

// Tx exposes the registry's state maps inside a transaction: file
// records by identifier, access grants by (file, user), rotation events
// by (file, sequence), per-owner file counts, the key-manager set, and
// the next-identifier scalar.
//
// Lookups return (nil, nil) — or (0, nil), (false, nil) — when the key
// is absent; errors are reserved for storage failures.
type Tx interface {
	NextFileID() (uint64, error)
	SetNextFileID(id uint64) error

	File(id uint64) (*FileRecord, error)
	PutFile(id uint64, rec *FileRecord) error
	ForEachFile(fn func(id uint64, rec *FileRecord) error) error

	Grant(id uint64, user Principal) (*AccessGrant, error)
	PutGrant(id uint64, user Principal, g *AccessGrant) error
	DeleteGrant(id uint64, user Principal) error
	ForEachGrant(fn func(id uint64, user Principal, g *AccessGrant) error) error

	Rotation(id, seq uint64) (*RotationEvent, error)
	PutRotation(id, seq uint64, ev *RotationEvent) error
	ForEachRotation(fn func(id, seq uint64, ev *RotationEvent) error) error

	FileCount(owner Principal) (uint64, error)
	SetFileCount(owner Principal, n uint64) error
	ForEachFileCount(fn func(owner Principal, n uint64) error) error

	IsKeyManager(p Principal) (bool, error)
	PutKeyManager(p Principal) error
	DeleteKeyManager(p Principal) error
	ForEachKeyManager(fn func(p Principal) error) error
}

// grantKey identifies one (file, user) grant. Array fields give the
// composite structural equality the grant table is keyed by.
type grantKey struct {
	ID   uint64
	User Principal
}

// rotationKey identifies one (file, sequence) rotation event.
type rotationKey struct {
	ID  uint64
	Seq uint64
}

// MemStore is an in-memory Store for tests and embedding. Writes are
// staged per transaction and applied only when the Update callback
// succeeds, matching the rollback semantics of the durable store.
type MemStore struct {
	mu         sync.RWMutex
	nextFileID uint64
	files      map[uint64]*FileRecord
	grants     map[grantKey]*AccessGrant
	rotations  map[rotationKey]*RotationEvent
	counts     map[Principal]uint64
	managers   map[Principal]bool
	closed     bool
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		nextFileID: FirstFileID,
		files:      make(map[uint64]*FileRecord),
		grants:     make(map[grantKey]*AccessGrant),
		rotations:  make(map[rotationKey]*RotationEvent),
		counts:     make(map[Principal]uint64),
		managers:   make(map[Principal]bool),
	}
}

// Update runs fn with staged writes, committing them only on success.
func (s *MemStore) Update(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	tx := newMemTx(s)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// View runs fn read-only. Writes through the Tx are rejected.
func (s *MemStore) View(fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	tx := newMemTx(s)
	tx.readonly = true
	return fn(tx)
}

// Close marks the store closed. Further transactions fail.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// memTx stages writes in overlay maps; deletions are tombstones.
type memTx struct {
	s        *MemStore
	readonly bool

	nextFileID *uint64
	files      map[uint64]*FileRecord
	grants     map[grantKey]*AccessGrant // nil value = tombstone
	rotations  map[rotationKey]*RotationEvent
	counts     map[Principal]uint64
	managers   map[Principal]bool // false value = tombstone
}

func newMemTx(s *MemStore) *memTx {
	return &memTx{
		s:         s,
		files:     make(map[uint64]*FileRecord),
		grants:    make(map[grantKey]*AccessGrant),
		rotations: make(map[rotationKey]*RotationEvent),
		counts:    make(map[Principal]uint64),
		managers:  make(map[Principal]bool),
	}
}

// commit applies staged writes to the base maps. Caller holds the lock.
func (t *memTx) commit() {
	if t.nextFileID != nil {
		t.s.nextFileID = *t.nextFileID
	}
	for id, rec := range t.files {
		t.s.files[id] = rec
	}
	for k, g := range t.grants {
		if g == nil {
			delete(t.s.grants, k)
		} else {
			t.s.grants[k] = g
		}
	}
	for k, ev := range t.rotations {
		t.s.rotations[k] = ev
	}
	for owner, n := range t.counts {
		if n == 0 {
			delete(t.s.counts, owner)
		} else {
			t.s.counts[owner] = n
		}
	}
	for p, member := range t.managers {
		if member {
			t.s.managers[p] = true
		} else {
			delete(t.s.managers, p)
		}
	}
}

func (t *memTx) write() error {
	if t.readonly {
		return ErrReadOnlyTx
	}
	return nil
}

func (t *memTx) NextFileID() (uint64, error) {
	if t.nextFileID != nil {
		return *t.nextFileID, nil
	}
	return t.s.nextFileID, nil
}

func (t *memTx) SetNextFileID(id uint64) error {
	if err := t.write(); err != nil {
		return err
	}
	t.nextFileID = &id
	return nil
}

func (t *memTx) File(id uint64) (*FileRecord, error) {
	if rec, ok := t.files[id]; ok {
		return cloneRecord(rec), nil
	}
	return cloneRecord(t.s.files[id]), nil
}

func (t *memTx) PutFile(id uint64, rec *FileRecord) error {
	if err := t.write(); err != nil {
		return err
	}
	t.files[id] = cloneRecord(rec)
	return nil
}

func (t *memTx) ForEachFile(fn func(id uint64, rec *FileRecord) error) error {
	for id, rec := range t.s.files {
		if staged, ok := t.files[id]; ok {
			rec = staged
		}
		if err := fn(id, cloneRecord(rec)); err != nil {
			return err
		}
	}
	for id, rec := range t.files {
		if _, ok := t.s.files[id]; ok {
			continue
		}
		if err := fn(id, cloneRecord(rec)); err != nil {
			return err
		}
	}
	return nil
}

func (t *memTx) Grant(id uint64, user Principal) (*AccessGrant, error) {
	k := grantKey{ID: id, User: user}
	if g, ok := t.grants[k]; ok {
		return cloneGrant(g), nil // nil for tombstone
	}
	return cloneGrant(t.s.grants[k]), nil
}

func (t *memTx) PutGrant(id uint64, user Principal, g *AccessGrant) error {
	if err := t.write(); err != nil {
		return err
	}
	t.grants[grantKey{ID: id, User: user}] = cloneGrant(g)
	return nil
}

func (t *memTx) DeleteGrant(id uint64, user Principal) error {
	if err := t.write(); err != nil {
		return err
	}
	t.grants[grantKey{ID: id, User: user}] = nil
	return nil
}

func (t *memTx) ForEachGrant(fn func(id uint64, user Principal, g *AccessGrant) error) error {
	for k, g := range t.s.grants {
		if staged, ok := t.grants[k]; ok {
			if staged == nil {
				continue
			}
			g = staged
		}
		if err := fn(k.ID, k.User, cloneGrant(g)); err != nil {
			return err
		}
	}
	for k, g := range t.grants {
		if g == nil {
			continue
		}
		if _, ok := t.s.grants[k]; ok {
			continue
		}
		if err := fn(k.ID, k.User, cloneGrant(g)); err != nil {
			return err
		}
	}
	return nil
}

func (t *memTx) Rotation(id, seq uint64) (*RotationEvent, error) {
	k := rotationKey{ID: id, Seq: seq}
	if ev, ok := t.rotations[k]; ok {
		return cloneEvent(ev), nil
	}
	return cloneEvent(t.s.rotations[k]), nil
}

func (t *memTx) PutRotation(id, seq uint64, ev *RotationEvent) error {
	if err := t.write(); err != nil {
		return err
	}
	t.rotations[rotationKey{ID: id, Seq: seq}] = cloneEvent(ev)
	return nil
}

func (t *memTx) ForEachRotation(fn func(id, seq uint64, ev *RotationEvent) error) error {
	for k, ev := range t.s.rotations {
		if staged, ok := t.rotations[k]; ok {
			ev = staged
		}
		if err := fn(k.ID, k.Seq, cloneEvent(ev)); err != nil {
			return err
		}
	}
	for k, ev := range t.rotations {
		if _, ok := t.s.rotations[k]; ok {
			continue
		}
		if err := fn(k.ID, k.Seq, cloneEvent(ev)); err != nil {
			return err
		}
	}
	return nil
}

func (t *memTx) FileCount(owner Principal) (uint64, error) {
	if n, ok := t.counts[owner]; ok {
		return n, nil
	}
	return t.s.counts[owner], nil
}

func (t *memTx) SetFileCount(owner Principal, n uint64) error {
	if err := t.write(); err != nil {
		return err
	}
	t.counts[owner] = n
	return nil
}

func (t *memTx) ForEachFileCount(fn func(owner Principal, n uint64) error) error {
	for owner, n := range t.s.counts {
		if staged, ok := t.counts[owner]; ok {
			n = staged
		}
		if n == 0 {
			continue
		}
		if err := fn(owner, n); err != nil {
			return err
		}
	}
	for owner, n := range t.counts {
		if _, ok := t.s.counts[owner]; ok {
			continue
		}
		if n == 0 {
			continue
		}
		if err := fn(owner, n); err != nil {
			return err
		}
	}
	return nil
}

func (t *memTx) IsKeyManager(p Principal) (bool, error) {
	if member, ok := t.managers[p]; ok {
		return member, nil
	}
	return t.s.managers[p], nil
}

func (t *memTx) PutKeyManager(p Principal) error {
	if err := t.write(); err != nil {
		return err
	}
	t.managers[p] = true
	return nil
}

func (t *memTx) DeleteKeyManager(p Principal) error {
	if err := t.write(); err != nil {
		return err
	}
	t.managers[p] = false
	return nil
}

func (t *memTx) ForEachKeyManager(fn func(p Principal) error) error {
	for p, member := range t.s.managers {
		if staged, ok := t.managers[p]; ok {
			member = staged
		}
		if !member {
			continue
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	for p, member := range t.managers {
		if !member {
			continue
		}
		if _, ok := t.s.managers[p]; ok {
			continue
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

// cloneRecord returns a copy so callers cannot mutate stored state
// outside a transaction.
func cloneRecord(rec *FileRecord) *FileRecord {
	if rec == nil {
		return nil
	}
	cp := *rec
	return &cp
}

func cloneGrant(g *AccessGrant) *AccessGrant {
	if g == nil {
		return nil
	}
	cp := *g
	return &cp
}

func cloneEvent(ev *RotationEvent) *RotationEvent {
	if ev == nil {
		return nil
	}
	cp := *ev
	return &cp
}
