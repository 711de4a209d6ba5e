package registry

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var (
	bucketMeta      = []byte("meta")
	bucketFiles     = []byte("files")
	bucketGrants    = []byte("grants")
	bucketRotations = []byte("rotations")
	bucketCounts    = []byte("file_counts")
	bucketManagers  = []byte("key_managers")

	keyNextFileID = []byte("next_file_id")
)

// BoltStore is the durable Store, one bbolt bucket per state map. Each
// Update maps onto a single bbolt read-write transaction, which gives
// the all-or-nothing multi-key commit the registry operations rely on.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("registry: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("registry: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketFiles, bucketGrants, bucketRotations, bucketCounts, bucketManagers} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registry: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Update runs fn in a single bbolt read-write transaction.
func (s *BoltStore) Update(fn func(tx Tx) error) error {
	return s.db.Update(func(btx *bbolt.Tx) error {
		return fn(&boltTx{tx: btx})
	})
}

// View runs fn in a single bbolt read-only transaction.
func (s *BoltStore) View(fn func(tx Tx) error) error {
	return s.db.View(func(btx *bbolt.Tx) error {
		return fn(&boltTx{tx: btx})
	})
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// idKey encodes a file identifier as an 8-byte big-endian key so bucket
// iteration order matches identifier order.
func idKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

// grantDBKey is the composite id||principal key for the grants bucket.
func grantDBKey(id uint64, user Principal) []byte {
	k := make([]byte, 8+PrincipalSize)
	binary.BigEndian.PutUint64(k, id)
	copy(k[8:], user[:])
	return k
}

// rotationDBKey is the composite id||seq key for the rotations bucket.
// Big-endian on both halves keeps a file's history contiguous and in
// sequence order under cursor iteration.
func rotationDBKey(id, seq uint64) []byte {
	k := make([]byte, 16)
	binary.BigEndian.PutUint64(k, id)
	binary.BigEndian.PutUint64(k[8:], seq)
	return k
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// boltTx adapts a bbolt transaction to the Tx interface.
type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) NextFileID() (uint64, error) {
	v := t.tx.Bucket(bucketMeta).Get(keyNextFileID)
	if v == nil {
		return FirstFileID, nil
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("boltstore: corrupt next_file_id (%d bytes)", len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

func (t *boltTx) SetNextFileID(id uint64) error {
	if err := t.tx.Bucket(bucketMeta).Put(keyNextFileID, idKey(id)); err != nil {
		return fmt.Errorf("boltstore: put next_file_id: %w", err)
	}
	return nil
}

func (t *boltTx) File(id uint64) (*FileRecord, error) {
	data := t.tx.Bucket(bucketFiles).Get(idKey(id))
	if data == nil {
		return nil, nil
	}
	var rec FileRecord
	if err := decodeGob(data, &rec); err != nil {
		return nil, fmt.Errorf("boltstore: decode file record: %w", err)
	}
	return &rec, nil
}

func (t *boltTx) PutFile(id uint64, rec *FileRecord) error {
	data, err := encodeGob(rec)
	if err != nil {
		return fmt.Errorf("boltstore: encode file record: %w", err)
	}
	if err := t.tx.Bucket(bucketFiles).Put(idKey(id), data); err != nil {
		return fmt.Errorf("boltstore: put file record: %w", err)
	}
	return nil
}

func (t *boltTx) ForEachFile(fn func(id uint64, rec *FileRecord) error) error {
	return t.tx.Bucket(bucketFiles).ForEach(func(k, v []byte) error {
		var rec FileRecord
		if err := decodeGob(v, &rec); err != nil {
			return fmt.Errorf("boltstore: decode file record: %w", err)
		}
		return fn(binary.BigEndian.Uint64(k), &rec)
	})
}

func (t *boltTx) Grant(id uint64, user Principal) (*AccessGrant, error) {
	data := t.tx.Bucket(bucketGrants).Get(grantDBKey(id, user))
	if data == nil {
		return nil, nil
	}
	var g AccessGrant
	if err := decodeGob(data, &g); err != nil {
		return nil, fmt.Errorf("boltstore: decode access grant: %w", err)
	}
	return &g, nil
}

func (t *boltTx) PutGrant(id uint64, user Principal, g *AccessGrant) error {
	data, err := encodeGob(g)
	if err != nil {
		return fmt.Errorf("boltstore: encode access grant: %w", err)
	}
	if err := t.tx.Bucket(bucketGrants).Put(grantDBKey(id, user), data); err != nil {
		return fmt.Errorf("boltstore: put access grant: %w", err)
	}
	return nil
}

func (t *boltTx) DeleteGrant(id uint64, user Principal) error {
	if err := t.tx.Bucket(bucketGrants).Delete(grantDBKey(id, user)); err != nil {
		return fmt.Errorf("boltstore: delete access grant: %w", err)
	}
	return nil
}

func (t *boltTx) ForEachGrant(fn func(id uint64, user Principal, g *AccessGrant) error) error {
	return t.tx.Bucket(bucketGrants).ForEach(func(k, v []byte) error {
		if len(k) != 8+PrincipalSize {
			return fmt.Errorf("boltstore: corrupt grant key (%d bytes)", len(k))
		}
		var user Principal
		copy(user[:], k[8:])
		var g AccessGrant
		if err := decodeGob(v, &g); err != nil {
			return fmt.Errorf("boltstore: decode access grant: %w", err)
		}
		return fn(binary.BigEndian.Uint64(k[:8]), user, &g)
	})
}

func (t *boltTx) Rotation(id, seq uint64) (*RotationEvent, error) {
	data := t.tx.Bucket(bucketRotations).Get(rotationDBKey(id, seq))
	if data == nil {
		return nil, nil
	}
	var ev RotationEvent
	if err := decodeGob(data, &ev); err != nil {
		return nil, fmt.Errorf("boltstore: decode rotation event: %w", err)
	}
	return &ev, nil
}

func (t *boltTx) PutRotation(id, seq uint64, ev *RotationEvent) error {
	data, err := encodeGob(ev)
	if err != nil {
		return fmt.Errorf("boltstore: encode rotation event: %w", err)
	}
	if err := t.tx.Bucket(bucketRotations).Put(rotationDBKey(id, seq), data); err != nil {
		return fmt.Errorf("boltstore: put rotation event: %w", err)
	}
	return nil
}

func (t *boltTx) ForEachRotation(fn func(id, seq uint64, ev *RotationEvent) error) error {
	return t.tx.Bucket(bucketRotations).ForEach(func(k, v []byte) error {
		if len(k) != 16 {
			return fmt.Errorf("boltstore: corrupt rotation key (%d bytes)", len(k))
		}
		var ev RotationEvent
		if err := decodeGob(v, &ev); err != nil {
			return fmt.Errorf("boltstore: decode rotation event: %w", err)
		}
		return fn(binary.BigEndian.Uint64(k[:8]), binary.BigEndian.Uint64(k[8:]), &ev)
	})
}

func (t *boltTx) FileCount(owner Principal) (uint64, error) {
	v := t.tx.Bucket(bucketCounts).Get(owner[:])
	if v == nil {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("boltstore: corrupt file count (%d bytes)", len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

func (t *boltTx) SetFileCount(owner Principal, n uint64) error {
	b := t.tx.Bucket(bucketCounts)
	if n == 0 {
		if err := b.Delete(owner[:]); err != nil {
			return fmt.Errorf("boltstore: delete file count: %w", err)
		}
		return nil
	}
	if err := b.Put(owner[:], idKey(n)); err != nil {
		return fmt.Errorf("boltstore: put file count: %w", err)
	}
	return nil
}

func (t *boltTx) ForEachFileCount(fn func(owner Principal, n uint64) error) error {
	return t.tx.Bucket(bucketCounts).ForEach(func(k, v []byte) error {
		if len(k) != PrincipalSize || len(v) != 8 {
			return fmt.Errorf("boltstore: corrupt file count entry")
		}
		var owner Principal
		copy(owner[:], k)
		return fn(owner, binary.BigEndian.Uint64(v))
	})
}

func (t *boltTx) IsKeyManager(p Principal) (bool, error) {
	return t.tx.Bucket(bucketManagers).Get(p[:]) != nil, nil
}

func (t *boltTx) PutKeyManager(p Principal) error {
	if err := t.tx.Bucket(bucketManagers).Put(p[:], []byte{}); err != nil {
		return fmt.Errorf("boltstore: put key manager: %w", err)
	}
	return nil
}

func (t *boltTx) DeleteKeyManager(p Principal) error {
	if err := t.tx.Bucket(bucketManagers).Delete(p[:]); err != nil {
		return fmt.Errorf("boltstore: delete key manager: %w", err)
	}
	return nil
}

func (t *boltTx) ForEachKeyManager(fn func(p Principal) error) error {
	return t.tx.Bucket(bucketManagers).ForEach(func(k, _ []byte) error {
		if len(k) != PrincipalSize {
			return fmt.Errorf("boltstore: corrupt key manager entry")
		}
		var p Principal
		copy(p[:], k)
		return fn(p)
	})
}
