package registry

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoltStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")
	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

// --- BoltStore tests ---

func TestBoltStore_RoundTrip(t *testing.T) {
	s, _ := newTestBoltStore(t)
	owner := makePrincipal(0x01)
	user := makePrincipal(0x02)

	rec := &FileRecord{
		Hash:          makeHash(0x10),
		Owner:         owner,
		PublicKey:     makeKey(0x20),
		CreatedAt:     100,
		LastRotatedAt: 120,
		RotationCount: 1,
		IsActive:      true,
	}
	grant := &AccessGrant{CanRead: true, GrantedAt: 105, GrantedBy: owner}
	ev := &RotationEvent{OldKey: makeKey(0x20), NewKey: makeKey(0x21), RotatedAt: 120, RotatedBy: owner, Reason: "scheduled"}

	err := s.Update(func(tx Tx) error {
		require.NoError(t, tx.SetNextFileID(2))
		require.NoError(t, tx.PutFile(1, rec))
		require.NoError(t, tx.PutGrant(1, user, grant))
		require.NoError(t, tx.PutRotation(1, 0, ev))
		require.NoError(t, tx.SetFileCount(owner, 1))
		require.NoError(t, tx.PutKeyManager(user))
		return nil
	})
	require.NoError(t, err)

	err = s.View(func(tx Tx) error {
		next, err := tx.NextFileID()
		require.NoError(t, err)
		assert.Equal(t, uint64(2), next)

		got, err := tx.File(1)
		require.NoError(t, err)
		assert.Equal(t, rec, got)

		g, err := tx.Grant(1, user)
		require.NoError(t, err)
		assert.Equal(t, grant, g)

		e, err := tx.Rotation(1, 0)
		require.NoError(t, err)
		assert.Equal(t, ev, e)

		n, err := tx.FileCount(owner)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)

		manager, err := tx.IsKeyManager(user)
		require.NoError(t, err)
		assert.True(t, manager)
		return nil
	})
	require.NoError(t, err)
}

func TestBoltStore_AbsentReturnsNil(t *testing.T) {
	s, _ := newTestBoltStore(t)

	err := s.View(func(tx Tx) error {
		next, err := tx.NextFileID()
		require.NoError(t, err)
		assert.Equal(t, uint64(FirstFileID), next)

		rec, err := tx.File(1)
		require.NoError(t, err)
		assert.Nil(t, rec)

		g, err := tx.Grant(1, makePrincipal(0x01))
		require.NoError(t, err)
		assert.Nil(t, g)

		ev, err := tx.Rotation(1, 0)
		require.NoError(t, err)
		assert.Nil(t, ev)

		n, err := tx.FileCount(makePrincipal(0x01))
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	})
	require.NoError(t, err)
}

func TestBoltStore_FailedUpdateRollsBack(t *testing.T) {
	s, _ := newTestBoltStore(t)
	boom := errors.New("boom")

	err := s.Update(func(tx Tx) error {
		require.NoError(t, tx.PutFile(1, &FileRecord{Hash: makeHash(0x01)}))
		require.NoError(t, tx.SetNextFileID(2))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = s.View(func(tx Tx) error {
		rec, err := tx.File(1)
		require.NoError(t, err)
		assert.Nil(t, rec)

		next, err := tx.NextFileID()
		require.NoError(t, err)
		assert.Equal(t, uint64(FirstFileID), next)
		return nil
	})
	require.NoError(t, err)
}

func TestBoltStore_DeleteGrantAndCount(t *testing.T) {
	s, _ := newTestBoltStore(t)
	owner := makePrincipal(0x01)
	user := makePrincipal(0x02)

	err := s.Update(func(tx Tx) error {
		require.NoError(t, tx.PutGrant(1, user, &AccessGrant{CanRead: true}))
		require.NoError(t, tx.SetFileCount(owner, 3))
		return nil
	})
	require.NoError(t, err)

	err = s.Update(func(tx Tx) error {
		require.NoError(t, tx.DeleteGrant(1, user))
		require.NoError(t, tx.SetFileCount(owner, 0))
		// Idempotent deletes.
		require.NoError(t, tx.DeleteGrant(1, user))
		require.NoError(t, tx.DeleteKeyManager(user))
		return nil
	})
	require.NoError(t, err)

	err = s.View(func(tx Tx) error {
		g, err := tx.Grant(1, user)
		require.NoError(t, err)
		assert.Nil(t, g)

		n, err := tx.FileCount(owner)
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	})
	require.NoError(t, err)
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	s, err := OpenBoltStore(path)
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	clock := NewTickClock(100)
	r, err := New(s, clock, Options{Admin: testAdmin, Logger: log})
	require.NoError(t, err)

	owner := makePrincipal(0x01)
	id, err := r.RegisterFile(owner, makeHash(0x10), makeKey(0x20))
	require.NoError(t, err)
	clock.Advance(DefaultRotationCooldown + 1)
	require.NoError(t, r.RotateKey(owner, id, makeKey(0x21), "scheduled"))
	require.NoError(t, r.Close())

	s2, err := OpenBoltStore(path)
	require.NoError(t, err)
	r2, err := New(s2, clock, Options{Admin: testAdmin, Logger: log})
	require.NoError(t, err)
	defer r2.Close()

	rec, err := r2.GetFileMetadata(id)
	require.NoError(t, err)
	assert.Equal(t, makeKey(0x21), rec.PublicKey)
	assert.Equal(t, uint64(1), rec.RotationCount)

	ev, err := r2.GetRotationHistory(id, 0)
	require.NoError(t, err)
	assert.Equal(t, "scheduled", ev.Reason)

	next, err := r2.GetNextFileID()
	require.NoError(t, err)
	assert.Equal(t, id+1, next)
}

func TestBoltStore_ForEachIteratesAll(t *testing.T) {
	s, _ := newTestBoltStore(t)

	err := s.Update(func(tx Tx) error {
		for id := uint64(1); id <= 3; id++ {
			require.NoError(t, tx.PutFile(id, &FileRecord{Hash: makeHash(byte(id))}))
			require.NoError(t, tx.PutRotation(id, 0, &RotationEvent{Reason: "r"}))
		}
		return nil
	})
	require.NoError(t, err)

	var fileIDs, rotIDs []uint64
	err = s.View(func(tx Tx) error {
		if err := tx.ForEachFile(func(id uint64, rec *FileRecord) error {
			fileIDs = append(fileIDs, id)
			return nil
		}); err != nil {
			return err
		}
		return tx.ForEachRotation(func(id, seq uint64, ev *RotationEvent) error {
			rotIDs = append(rotIDs, id)
			return nil
		})
	})
	require.NoError(t, err)

	// Big-endian keys iterate in identifier order.
	assert.Equal(t, []uint64{1, 2, 3}, fileIDs)
	assert.Equal(t, []uint64{1, 2, 3}, rotIDs)
}
