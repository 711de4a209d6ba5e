package registry

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// RotateKey replaces the file's key material and appends an immutable
// event to the rotation history. Allowed for the owner, any member of
// the key-manager set, and the administrator. Rejected when the new key
// equals the current one, or when fewer than cool-down height units
// have elapsed since the last rotation.
func (r *Registry) RotateKey(caller Principal, id uint64, newKey [KeySize]byte, reason string) error {
	if !ValidPrincipal(caller) {
		return fmt.Errorf("%w: null caller", ErrInvalidInput)
	}
	if !ValidKey(newKey) {
		return ErrInvalidKey
	}
	if len(reason) > MaxReasonLen {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrReasonTooLong, len(reason), MaxReasonLen)
	}
	if !ValidReason(reason) {
		return fmt.Errorf("%w: empty rotation reason", ErrInvalidInput)
	}

	var seq uint64
	err := r.store.Update(func(tx Tx) error {
		rec, err := r.activeFile(tx, id)
		if err != nil {
			return err
		}

		if rec.Owner != caller && caller != r.admin {
			manager, err := tx.IsKeyManager(caller)
			if err != nil {
				return err
			}
			if !manager {
				return fmt.Errorf("%w: caller is neither owner nor key manager", ErrUnauthorized)
			}
		}

		if newKey == rec.PublicKey {
			return fmt.Errorf("%w: new key equals current key", ErrInvalidRotation)
		}

		now := r.clock.Height()
		if now <= rec.LastRotatedAt+r.cooldown {
			return fmt.Errorf("%w: cool-down until height %d (now %d)",
				ErrInvalidRotation, rec.LastRotatedAt+r.cooldown, now)
		}

		seq = rec.RotationCount
		ev := &RotationEvent{
			OldKey:    rec.PublicKey,
			NewKey:    newKey,
			RotatedAt: now,
			RotatedBy: caller,
			Reason:    reason,
		}
		if err := tx.PutRotation(id, seq, ev); err != nil {
			return err
		}

		rec.PublicKey = newKey
		rec.LastRotatedAt = now
		rec.RotationCount++
		return tx.PutFile(id, rec)
	})
	if err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{
		"op":     "rotate_key",
		"file":   id,
		"seq":    seq,
		"caller": caller.Hex(),
	}).Debug("key rotated")
	return nil
}

// GetRotationHistory returns the rotation event at the given sequence
// number, or ErrNotFound when none exists. For a file with rotation
// count n the valid sequence numbers are 0..n-1.
func (r *Registry) GetRotationHistory(id, seq uint64) (*RotationEvent, error) {
	var ev *RotationEvent
	err := r.store.View(func(tx Tx) error {
		if _, err := r.issuedFile(tx, id); err != nil {
			return err
		}
		var err error
		ev, err = tx.Rotation(id, seq)
		if err != nil {
			return err
		}
		if ev == nil {
			return fmt.Errorf("%w: file %d has no rotation %d", ErrNotFound, id, seq)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}
