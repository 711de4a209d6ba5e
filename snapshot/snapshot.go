// Package snapshot exports and restores full registry state for
// backup, and seals snapshots into an encrypted envelope.
package snapshot

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/filereg-org/libfilereg-go/registry"
)

// GrantEntry is one access grant in a snapshot.
type GrantEntry struct {
	FileID uint64
	User   registry.Principal
	Grant  registry.AccessGrant
}

// RotationEntry is one rotation event in a snapshot.
type RotationEntry struct {
	FileID uint64
	Seq    uint64
	Event  registry.RotationEvent
}

// CountEntry is one per-owner file count in a snapshot.
type CountEntry struct {
	Owner registry.Principal
	Count uint64
}

// State is a full copy of the registry's persisted state.
type State struct {
	NextFileID  uint64
	Files       map[uint64]registry.FileRecord
	Grants      []GrantEntry
	Rotations   []RotationEntry
	Counts      []CountEntry
	KeyManagers []registry.Principal
}

// Export reads the entire registry state through one consistent view.
func Export(store registry.Store) (*State, error) {
	st := &State{Files: make(map[uint64]registry.FileRecord)}

	err := store.View(func(tx registry.Tx) error {
		next, err := tx.NextFileID()
		if err != nil {
			return err
		}
		st.NextFileID = next

		if err := tx.ForEachFile(func(id uint64, rec *registry.FileRecord) error {
			st.Files[id] = *rec
			return nil
		}); err != nil {
			return err
		}
		if err := tx.ForEachGrant(func(id uint64, user registry.Principal, g *registry.AccessGrant) error {
			st.Grants = append(st.Grants, GrantEntry{FileID: id, User: user, Grant: *g})
			return nil
		}); err != nil {
			return err
		}
		if err := tx.ForEachRotation(func(id, seq uint64, ev *registry.RotationEvent) error {
			st.Rotations = append(st.Rotations, RotationEntry{FileID: id, Seq: seq, Event: *ev})
			return nil
		}); err != nil {
			return err
		}
		if err := tx.ForEachFileCount(func(owner registry.Principal, n uint64) error {
			st.Counts = append(st.Counts, CountEntry{Owner: owner, Count: n})
			return nil
		}); err != nil {
			return err
		}
		return tx.ForEachKeyManager(func(p registry.Principal) error {
			st.KeyManagers = append(st.KeyManagers, p)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: export: %w", err)
	}
	return st, nil
}

// Restore writes a snapshot into an empty store as one atomic commit.
// Restoring into a store that already holds state is refused.
func Restore(store registry.Store, st *State) error {
	return store.Update(func(tx registry.Tx) error {
		next, err := tx.NextFileID()
		if err != nil {
			return err
		}
		if next != registry.FirstFileID {
			return ErrStoreNotEmpty
		}
		// The key-manager set can be populated before any file is
		// issued, so the counter alone does not prove emptiness.
		managed := false
		if err := tx.ForEachKeyManager(func(registry.Principal) error {
			managed = true
			return nil
		}); err != nil {
			return err
		}
		if managed {
			return ErrStoreNotEmpty
		}

		if err := tx.SetNextFileID(st.NextFileID); err != nil {
			return err
		}
		for id, rec := range st.Files {
			cp := rec
			if err := tx.PutFile(id, &cp); err != nil {
				return err
			}
		}
		for _, e := range st.Grants {
			g := e.Grant
			if err := tx.PutGrant(e.FileID, e.User, &g); err != nil {
				return err
			}
		}
		for _, e := range st.Rotations {
			ev := e.Event
			if err := tx.PutRotation(e.FileID, e.Seq, &ev); err != nil {
				return err
			}
		}
		for _, e := range st.Counts {
			if err := tx.SetFileCount(e.Owner, e.Count); err != nil {
				return err
			}
		}
		for _, p := range st.KeyManagers {
			if err := tx.PutKeyManager(p); err != nil {
				return err
			}
		}
		return nil
	})
}

// encodeState serializes a snapshot body using gob.
func encodeState(st *State) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(st); err != nil {
		return nil, fmt.Errorf("snapshot: encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeState deserializes a snapshot body.
func decodeState(data []byte) (*State, error) {
	var st State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return nil, fmt.Errorf("snapshot: decode state: %w", err)
	}
	return &st, nil
}
