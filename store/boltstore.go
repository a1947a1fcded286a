package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/bitfsorg/libvest-go/codec"
	"github.com/bitfsorg/libvest-go/ledger"
)

var (
	bucketState  = []byte("state")
	bucketEvents = []byte("events")

	keyCurrent = []byte("current")
)

// BoltStore keeps the ledger state and journal in a bbolt database.
type BoltStore struct {
	db *bbolt.DB
}

var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketState, bucketEvents} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("store: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.db.Path() }

// seqKey encodes a sequence number as an 8-byte big-endian key so cursor
// order is journal order.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

// LoadState returns the last committed state.
func (s *BoltStore) LoadState() (ledger.State, error) {
	var st ledger.State
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketState).Get(keyCurrent)
		if data == nil {
			return ErrStateNotFound
		}
		return decodeState(data, &st)
	})
	if err != nil {
		return ledger.State{}, err
	}
	return st, nil
}

// Commit replaces the state and appends events in a single transaction.
func (s *BoltStore) Commit(state ledger.State, events []ledger.Event) error {
	data, err := codec.Marshal(state)
	if err != nil {
		return fmt.Errorf("store: encode state: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketState).Put(keyCurrent, data); err != nil {
			return fmt.Errorf("store: put state: %w", err)
		}
		eb := tx.Bucket(bucketEvents)
		for _, e := range events {
			seq, err := eb.NextSequence()
			if err != nil {
				return fmt.Errorf("store: next sequence: %w", err)
			}
			enc, err := codec.Marshal(e)
			if err != nil {
				return fmt.Errorf("store: encode event: %w", err)
			}
			if err := eb.Put(seqKey(seq), enc); err != nil {
				return fmt.Errorf("store: put event %d: %w", seq, err)
			}
		}
		return nil
	})
}

// ListEvents returns records after the given sequence.
func (s *BoltStore) ListEvents(after uint64, limit int) ([]Record, error) {
	var out []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.Seek(seqKey(after + 1)); k != nil; k, v = c.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var e ledger.Event
			if err := codec.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("%w: event %x: %w", ErrCorruptRecord, k, err)
			}
			out = append(out, Record{Seq: binary.BigEndian.Uint64(k), Event: e})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EventCount returns the number of journaled events.
func (s *BoltStore) EventCount() (uint64, error) {
	var count uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = uint64(tx.Bucket(bucketEvents).Stats().KeyN)
		return nil
	})
	return count, err
}

func decodeState(data []byte, st *ledger.State) error {
	if err := codec.Unmarshal(data, st); err != nil {
		return fmt.Errorf("%w: state: %w", ErrCorruptRecord, err)
	}
	return nil
}
