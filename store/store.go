// Package store persists ledger snapshots and the event journal.
//
// A commit writes the post-operation ledger state together with the events
// the operation produced, so the journal never runs ahead of or behind the
// state it describes.
package store

import (
	"sync"

	"github.com/bitfsorg/libvest-go/codec"
	"github.com/bitfsorg/libvest-go/ledger"
)

// Record is one journaled event with its sequence number. Sequences start
// at 1 and increase by one per event.
type Record struct {
	Seq   uint64
	Event ledger.Event
}

// Store persists ledger state and its event journal.
type Store interface {
	// LoadState returns the last committed state, or ErrStateNotFound.
	LoadState() (ledger.State, error)

	// Commit replaces the stored state and appends events in one step.
	Commit(state ledger.State, events []ledger.Event) error

	// ListEvents returns up to limit records with Seq > after, in order.
	// A limit of zero or less means no limit.
	ListEvents(after uint64, limit int) ([]Record, error)

	// EventCount returns the number of journaled events.
	EventCount() (uint64, error)

	// Close releases resources held by the store.
	Close() error
}

// MemStore is an in-memory Store for tests. State round-trips through the
// same encoding as BoltStore so callers never share slices with it.
type MemStore struct {
	mu     sync.RWMutex
	state  []byte
	events []Record
	closed bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

var _ Store = (*MemStore)(nil)

// LoadState returns the last committed state.
func (s *MemStore) LoadState() (ledger.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st ledger.State
	if s.closed {
		return st, ErrClosed
	}
	if s.state == nil {
		return st, ErrStateNotFound
	}
	if err := decodeState(s.state, &st); err != nil {
		return ledger.State{}, err
	}
	return st, nil
}

// Commit replaces the state and appends events.
func (s *MemStore) Commit(state ledger.State, events []ledger.Event) error {
	data, err := codec.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.state = data
	for _, e := range events {
		s.events = append(s.events, Record{Seq: uint64(len(s.events)) + 1, Event: e})
	}
	return nil
}

// ListEvents returns records after the given sequence.
func (s *MemStore) ListEvents(after uint64, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if after >= uint64(len(s.events)) {
		return nil, nil
	}
	out := s.events[after:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	result := make([]Record, len(out))
	copy(result, out)
	return result, nil
}

// EventCount returns the number of journaled events.
func (s *MemStore) EventCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return uint64(len(s.events)), nil
}

// Close marks the store closed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
