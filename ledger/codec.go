// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ERFANEKHADEMI/EvolvableSlumber/kv"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/slumber"
)

// key layout: one prefixed slot per token record plus two scalar slots.
var (
	recordPrefix = []byte("r")
	keyNextID    = []byte("nextID")
	keyFunds     = []byte("funds")
)

const recordLen = slumber.AddressLength + 8 + 8 + 1

func recordKey(tokenID uint64) []byte {
	key := make([]byte, len(recordPrefix)+8)
	copy(key, recordPrefix)
	binary.BigEndian.PutUint64(key[len(recordPrefix):], tokenID)
	return key
}

func encodeRecord(rec *record) []byte {
	buf := make([]byte, recordLen)
	copy(buf, rec.owner[:])
	binary.BigEndian.PutUint64(buf[slumber.AddressLength:], rec.createdAt)
	binary.BigEndian.PutUint64(buf[slumber.AddressLength+8:], rec.lastTransferAt)
	if rec.autoStake {
		buf[slumber.AddressLength+16] = 1
	}
	return buf
}

func decodeRecord(buf []byte) (*record, error) {
	if len(buf) != recordLen {
		return nil, errors.Errorf("bad record length %d", len(buf))
	}
	var rec record
	copy(rec.owner[:], buf[:slumber.AddressLength])
	rec.createdAt = binary.BigEndian.Uint64(buf[slumber.AddressLength:])
	rec.lastTransferAt = binary.BigEndian.Uint64(buf[slumber.AddressLength+8:])
	rec.autoStake = buf[slumber.AddressLength+16] == 1
	return &rec, nil
}

// persist writes the changed records and scalars in one batch. No-op
// without a backing store.
func (l *Ledger) persist(updated map[uint64]*record, nextID, funds uint64) error {
	if l.store == nil {
		return nil
	}
	batch := l.store.NewBatch()
	for id, rec := range updated {
		if err := batch.Put(recordKey(id), encodeRecord(rec)); err != nil {
			return err
		}
	}
	var scalar [8]byte
	binary.BigEndian.PutUint64(scalar[:], nextID)
	if err := batch.Put(keyNextID, scalar[:]); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(scalar[:], funds)
	if err := batch.Put(keyFunds, scalar[:]); err != nil {
		return err
	}
	return errors.Wrap(batch.Write(), "write ledger batch")
}

func (l *Ledger) load() error {
	if v, err := l.store.Get(keyNextID); err == nil {
		l.nextID = binary.BigEndian.Uint64(v)
	} else if !l.store.IsNotFound(err) {
		return err
	}
	if v, err := l.store.Get(keyFunds); err == nil {
		l.funds = binary.BigEndian.Uint64(v)
	} else if !l.store.IsNotFound(err) {
		return err
	}

	// record keys are prefix+uint64, the upper bound is prefix+1
	iter := l.store.NewIterator(kv.Range{From: recordPrefix, To: []byte{recordPrefix[0] + 1}})
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()
		if len(key) != len(recordPrefix)+8 {
			continue
		}
		id := binary.BigEndian.Uint64(key[len(recordPrefix):])
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return errors.Wrapf(err, "token %d", id)
		}
		l.records[id] = rec
	}
	return iter.Error()
}
