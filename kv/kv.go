// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the key-value store the ledger persists through.
package kv

// Getter reads keys. A missing key surfaces as an error recognizable
// through IsNotFound.
type Getter interface {
	Get(key []byte) (value []byte, err error)
	Has(key []byte) (bool, error)
	IsNotFound(error) bool

	NewIterator(r Range) Iterator
}

// Putter writes and deletes keys, one at a time or batched.
type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error

	NewBatch() Batch
}

// GetPutter combines read and write access.
type GetPutter interface {
	Getter
	Putter
}

// GetPutCloser is a GetPutter that owns its backing resources.
type GetPutCloser interface {
	GetPutter
	Close() error
}

// Batch buffers writes until Write applies them in one shot.
type Batch interface {
	Putter

	Len() int
	Write() error
}

// Iterator walks keys in ascending order. Release must be called when done.
type Iterator interface {
	Next() bool
	Release()
	Error() error

	Key() []byte
	Value() []byte
}

// Range bounds an iteration to the half-open interval [From, To).
type Range struct {
	From []byte
	To   []byte
}
