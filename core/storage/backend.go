package storage

import "errors"

// ErrNotFound is returned by Read when no document has been written yet.
var ErrNotFound = errors.New("ledger document not found")

// Backend holds the single persisted ledger document. Write replaces the
// whole document; there is no append and no compare-and-swap.
type Backend interface {
	Read() ([]byte, error)
	Write(data []byte) error
}
