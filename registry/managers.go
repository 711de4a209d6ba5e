package registry

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// AddKeyManager admits p to the process-wide set of principals allowed
// to rotate keys for files they do not own. Administrator-only. Adding
// the administrator itself is rejected since the administrator is
// implicitly always authorized.
func (r *Registry) AddKeyManager(caller, p Principal) error {
	if caller != r.admin {
		return fmt.Errorf("%w: only the administrator may manage key managers", ErrUnauthorized)
	}
	if !ValidPrincipal(p) {
		return fmt.Errorf("%w: null principal", ErrInvalidInput)
	}
	if p == r.admin {
		return fmt.Errorf("%w: administrator is implicitly a key manager", ErrInvalidInput)
	}

	err := r.store.Update(func(tx Tx) error {
		return tx.PutKeyManager(p)
	})
	if err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{
		"op":      "add_key_manager",
		"manager": p.Hex(),
	}).Debug("key manager added")
	return nil
}

// RemoveKeyManager removes p from the key-manager set.
// Administrator-only and idempotent.
func (r *Registry) RemoveKeyManager(caller, p Principal) error {
	if caller != r.admin {
		return fmt.Errorf("%w: only the administrator may manage key managers", ErrUnauthorized)
	}
	if !ValidPrincipal(p) {
		return fmt.Errorf("%w: null principal", ErrInvalidInput)
	}

	err := r.store.Update(func(tx Tx) error {
		return tx.DeleteKeyManager(p)
	})
	if err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{
		"op":      "remove_key_manager",
		"manager": p.Hex(),
	}).Debug("key manager removed")
	return nil
}

// IsKeyManager reports whether p is in the key-manager set. Pure
// lookup, default false; the administrator's implicit authority is not
// reflected here.
func (r *Registry) IsKeyManager(p Principal) bool {
	member := false
	err := r.store.View(func(tx Tx) error {
		var err error
		member, err = tx.IsKeyManager(p)
		return err
	})
	return err == nil && member
}
