// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"sync"
)

// Store persists one Record per token id. Get on an unknown id yields a
// fresh zero-value record.
type Store interface {
	Get(tokenID uint64) (*Record, error)
	Set(tokenID uint64, rec *Record) error
}

// memStore is a map-backed Store.
type memStore struct {
	mu      sync.RWMutex
	records map[uint64]Record
}

// NewMemStore creates an in-memory Store.
func NewMemStore() Store {
	return &memStore{records: make(map[uint64]Record)}
}

func (s *memStore) Get(tokenID uint64) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := s.records[tokenID]
	return &rec, nil
}

func (s *memStore) Set(tokenID uint64, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[tokenID] = *rec
	return nil
}
