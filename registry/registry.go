// Package registry implements the permissioned file registry: per-file
// encryption metadata, ownership, delegated access grants, and a
// tamper-evident key rotation history.
//
// The surrounding ledger substrate serializes all calls and supplies
// the monotonic height counter, so the registry holds no locks of its
// own. Every public operation validates all of its preconditions
// against current state, then applies all of its writes inside a single
// store transaction; a failed operation leaves state untouched.
package registry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/filereg-org/libfilereg-go/config"
)

// Options configure a Registry.
type Options struct {
	// Admin is the fixed administrator identity established at system
	// initialization. It is the only principal allowed to manage the
	// key-manager set, and it may rotate any file's key. Required.
	Admin Principal

	// MaxFilesPerOwner overrides the per-owner file ceiling.
	// Zero means DefaultMaxFilesPerOwner.
	MaxFilesPerOwner uint64

	// RotationCooldown overrides the rotation rate-limit window.
	// Zero means DefaultRotationCooldown.
	RotationCooldown uint64

	// Logger receives structured operation logs. Nil means the logrus
	// standard logger.
	Logger *logrus.Logger
}

// Registry is the file registry and access-control state machine.
type Registry struct {
	store    Store
	clock    Clock
	admin    Principal
	maxFiles uint64
	cooldown uint64
	log      *logrus.Logger

	// logFile is the log destination opened by Open, closed with the
	// registry. Nil when the logger writes elsewhere.
	logFile io.Closer
}

// New creates a Registry over the given store and clock.
func New(store Store, clock Clock, opts Options) (*Registry, error) {
	if store == nil || clock == nil {
		return nil, fmt.Errorf("%w: store and clock are required", ErrInvalidInput)
	}
	if !ValidPrincipal(opts.Admin) {
		return nil, fmt.Errorf("%w: admin principal is required", ErrInvalidInput)
	}
	r := &Registry{
		store:    store,
		clock:    clock,
		admin:    opts.Admin,
		maxFiles: opts.MaxFilesPerOwner,
		cooldown: opts.RotationCooldown,
		log:      opts.Logger,
	}
	if r.maxFiles == 0 {
		r.maxFiles = DefaultMaxFilesPerOwner
	}
	if r.cooldown == 0 {
		r.cooldown = DefaultRotationCooldown
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	return r, nil
}

// Open wires a Registry from a configuration: bbolt store at
// {DataDir}/registry.db, administrator parsed from the config, logrus
// configured per the config's log settings. Close releases the store.
func Open(cfg config.Config, clock Clock) (*Registry, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	admin, err := PrincipalFromHex(cfg.AdminPrincipal)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q", ErrInvalidInput, cfg.LogLevel)
	}
	log.SetLevel(level)
	var logFile *os.File
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("registry: open log file: %w", err)
		}
		log.SetOutput(f)
		logFile = f
	}

	store, err := OpenBoltStore(filepath.Join(cfg.DataDir, "registry.db"))
	if err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, err
	}

	r, err := New(store, clock, Options{
		Admin:            admin,
		MaxFilesPerOwner: cfg.MaxFilesPerOwner,
		RotationCooldown: cfg.RotationCooldown,
		Logger:           log,
	})
	if err != nil {
		_ = store.Close()
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, err
	}
	if logFile != nil {
		r.logFile = logFile
	}
	return r, nil
}

// Close releases the underlying store and any log file Open attached.
func (r *Registry) Close() error {
	err := r.store.Close()
	if r.logFile != nil {
		if cerr := r.logFile.Close(); err == nil {
			err = cerr
		}
		r.logFile = nil
	}
	return err
}

// Admin returns the fixed administrator identity.
func (r *Registry) Admin() Principal { return r.admin }

// RegisterFile records a new file owned by the caller and returns its
// identifier. Identifiers start at FirstFileID, strictly increase, and
// are never reused, so stale references can never alias another file.
func (r *Registry) RegisterFile(caller Principal, hash [HashSize]byte, key [KeySize]byte) (uint64, error) {
	if !ValidPrincipal(caller) {
		return 0, fmt.Errorf("%w: null caller", ErrInvalidInput)
	}
	if !ValidHash(hash) {
		return 0, ErrInvalidHash
	}
	if !ValidKey(key) {
		return 0, ErrInvalidKey
	}

	var id uint64
	err := r.store.Update(func(tx Tx) error {
		count, err := tx.FileCount(caller)
		if err != nil {
			return err
		}
		if count >= r.maxFiles {
			return fmt.Errorf("%w: owner %s holds %d files", ErrQuotaExceeded, caller.Hex(), count)
		}
		id, err = tx.NextFileID()
		if err != nil {
			return err
		}

		now := r.clock.Height()
		rec := &FileRecord{
			Hash:          hash,
			Owner:         caller,
			PublicKey:     key,
			CreatedAt:     now,
			LastRotatedAt: now,
			RotationCount: 0,
			IsActive:      true,
		}
		if err := tx.PutFile(id, rec); err != nil {
			return err
		}
		if err := tx.SetNextFileID(id + 1); err != nil {
			return err
		}
		return tx.SetFileCount(caller, count+1)
	})
	if err != nil {
		return 0, err
	}

	r.log.WithFields(logrus.Fields{
		"op":    "register_file",
		"file":  id,
		"owner": caller.Hex(),
	}).Debug("file registered")
	return id, nil
}

// DeactivateFile flips the file's active flag off. Owner-only and
// irreversible: there is no reactivation path.
func (r *Registry) DeactivateFile(caller Principal, id uint64) error {
	if !ValidPrincipal(caller) {
		return fmt.Errorf("%w: null caller", ErrInvalidInput)
	}

	err := r.store.Update(func(tx Tx) error {
		rec, err := r.activeFile(tx, id)
		if err != nil {
			return err
		}
		if rec.Owner != caller {
			return fmt.Errorf("%w: only the owner may deactivate", ErrUnauthorized)
		}
		rec.IsActive = false
		return tx.PutFile(id, rec)
	})
	if err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{
		"op":   "deactivate_file",
		"file": id,
	}).Debug("file deactivated")
	return nil
}

// TransferOwnership moves the file to newOwner and shifts the quota
// count from the old owner to the new one. The former owner loses
// implicit full access and falls back to any explicit grant; existing
// grants are left untouched.
func (r *Registry) TransferOwnership(caller Principal, id uint64, newOwner Principal) error {
	if !ValidPrincipal(caller) {
		return fmt.Errorf("%w: null caller", ErrInvalidInput)
	}
	if !ValidPrincipal(newOwner) {
		return fmt.Errorf("%w: null new owner", ErrInvalidInput)
	}
	if newOwner == caller {
		return fmt.Errorf("%w: cannot transfer to self", ErrInvalidInput)
	}

	err := r.store.Update(func(tx Tx) error {
		rec, err := r.activeFile(tx, id)
		if err != nil {
			return err
		}
		if rec.Owner != caller {
			return fmt.Errorf("%w: only the owner may transfer", ErrUnauthorized)
		}
		newCount, err := tx.FileCount(newOwner)
		if err != nil {
			return err
		}
		if newCount >= r.maxFiles {
			return fmt.Errorf("%w: new owner %s holds %d files", ErrQuotaExceeded, newOwner.Hex(), newCount)
		}
		oldCount, err := tx.FileCount(caller)
		if err != nil {
			return err
		}

		rec.Owner = newOwner
		if err := tx.PutFile(id, rec); err != nil {
			return err
		}
		if err := tx.SetFileCount(caller, oldCount-1); err != nil {
			return err
		}
		return tx.SetFileCount(newOwner, newCount+1)
	})
	if err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{
		"op":   "transfer_ownership",
		"file": id,
		"from": caller.Hex(),
		"to":   newOwner.Hex(),
	}).Debug("ownership transferred")
	return nil
}

// GetFileMetadata returns the file record, or ErrNotFound if the
// identifier was never issued.
func (r *Registry) GetFileMetadata(id uint64) (*FileRecord, error) {
	var rec *FileRecord
	err := r.store.View(func(tx Tx) error {
		var err error
		rec, err = r.issuedFile(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetNextFileID returns the identifier the next registration will be
// assigned.
func (r *Registry) GetNextFileID() (uint64, error) {
	var next uint64
	err := r.store.View(func(tx Tx) error {
		var err error
		next, err = tx.NextFileID()
		return err
	})
	return next, err
}

// FileCount returns the number of files currently owned by p.
func (r *Registry) FileCount(p Principal) (uint64, error) {
	var n uint64
	err := r.store.View(func(tx Tx) error {
		var err error
		n, err = tx.FileCount(p)
		return err
	})
	return n, err
}

// issuedFile loads the record for a previously issued identifier, or
// returns ErrNotFound. Records are never deleted, so an issued
// identifier always resolves.
func (r *Registry) issuedFile(tx Tx, id uint64) (*FileRecord, error) {
	next, err := tx.NextFileID()
	if err != nil {
		return nil, err
	}
	if !validFileID(id, next) {
		return nil, fmt.Errorf("%w: file %d", ErrNotFound, id)
	}
	rec, err := tx.File(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("registry: issued file %d missing from store", id)
	}
	return rec, nil
}

// activeFile loads an issued record and requires it to be active.
func (r *Registry) activeFile(tx Tx, id uint64) (*FileRecord, error) {
	rec, err := r.issuedFile(tx, id)
	if err != nil {
		return nil, err
	}
	if !rec.IsActive {
		return nil, fmt.Errorf("%w: file %d is inactive", ErrInvalidInput, id)
	}
	return rec, nil
}
