package store

import (
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/ordtools/inscribe/errs"
)

var taprootDataBucket = []byte("taproot_reveal_state")

const dbFilePermission = 0600

// Store is the embedded single-table key-value store holding
// TaprootRevealState, keyed by commit address string (§4.6). It is
// the `inscription.redb`-equivalent named in the interface contract,
// realized here as a bbolt.DB file.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) the reveal-state database at
// path and ensures its single bucket exists.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, dbFilePermission, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, fmt.Errorf(
			"opening reveal state db %s: %w", path, err))
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(taprootDataBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errs.Wrap(errs.Persistence, fmt.Errorf(
			"initializing reveal state bucket: %w", err))
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put persists state under address, overwriting any prior entry for
// the same key. The write transaction is committed before Put
// returns, satisfying the "durable before Phase 1 returns" ordering
// guarantee (§5).
func (s *Store) Put(address string, state *State) error {
	data, err := encodeState(state)
	if err != nil {
		return errs.Wrap(errs.Persistence, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(taprootDataBucket).Put([]byte(address), data)
	})
	if err != nil {
		return errs.Wrap(errs.Persistence, fmt.Errorf(
			"persisting reveal state for %s: %w", address, err))
	}

	return nil
}

// Get loads the reveal state for address. It returns
// (nil, nil) if no state is persisted under that key; Phase 2 treats
// that as "no pending reveal for this address" (§4.7).
func (s *Store) Get(address string) (*State, error) {
	var data []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(taprootDataBucket).Get([]byte(address))
		if v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, err)
	}

	if data == nil {
		return nil, nil
	}

	state, err := decodeState(data)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, err)
	}

	return state, nil
}

// Delete advisedly removes the entry for address once a reveal has
// broadcast successfully; failing to call it leaks no funds, since
// the ephemeral key is single-use (§3 Lifecycle).
func (s *Store) Delete(address string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(taprootDataBucket).Delete([]byte(address))
	})
	if err != nil {
		return errs.Wrap(errs.Persistence, err)
	}

	return nil
}
