package store

import "errors"

var (
	// ErrStateNotFound indicates no ledger state has been committed yet.
	ErrStateNotFound = errors.New("store: ledger state not found")

	// ErrCorruptRecord indicates a stored record that fails to decode.
	ErrCorruptRecord = errors.New("store: corrupt record")

	// ErrClosed indicates use of a store after Close.
	ErrClosed = errors.New("store: closed")
)
