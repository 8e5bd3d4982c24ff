// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakedb persists stake records in sqlite.
package stakedb

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/ERFANEKHADEMI/EvolvableSlumber/stake"
)

var _ stake.Store = (*StakeDB)(nil)

type StakeDB struct {
	path string
	db   *sql.DB
}

// New create or open stake db at given path.
func New(path string) (stakeDB *StakeDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if stakeDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(recordTableSchema); err != nil {
		return nil, err
	}
	return &StakeDB{
		path,
		db,
	}, nil
}

// NewMem create a stake db in ram.
func NewMem() (*StakeDB, error) {
	return New(":memory:")
}

// Close close the stake db.
func (s *StakeDB) Close() {
	s.db.Close()
}

func (s *StakeDB) Path() string {
	return s.path
}

// Get loads the record for the token, a zero record if none was stored yet.
func (s *StakeDB) Get(tokenID uint64) (*stake.Record, error) {
	row := s.db.QueryRow(
		"SELECT staked, firstStakedAt, lastStakedAt, accumulated FROM stake_record WHERE tokenID = ?",
		int64(tokenID))

	var (
		staked int
		rec    stake.Record
	)
	err := row.Scan(&staked, &rec.FirstStakedAt, &rec.LastStakedAt, &rec.Accumulated)
	if err == sql.ErrNoRows {
		return &stake.Record{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query record")
	}
	rec.Staked = staked != 0
	return &rec, nil
}

// Set stores the record for the token.
func (s *StakeDB) Set(tokenID uint64, rec *stake.Record) error {
	staked := 0
	if rec.Staked {
		staked = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO stake_record(tokenID, staked, firstStakedAt, lastStakedAt, accumulated)
			VALUES(?,?,?,?,?)
			ON CONFLICT(tokenID) DO UPDATE SET
				staked=excluded.staked,
				firstStakedAt=excluded.firstStakedAt,
				lastStakedAt=excluded.lastStakedAt,
				accumulated=excluded.accumulated`,
		int64(tokenID), staked, rec.FirstStakedAt, rec.LastStakedAt, rec.Accumulated)
	return errors.Wrap(err, "upsert record")
}
