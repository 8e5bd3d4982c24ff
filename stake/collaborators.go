// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"github.com/ERFANEKHADEMI/EvolvableSlumber/slumber"
)

// TokenLedger is the ownership ledger the engine consults. The engine never
// re-implements authorization, only branches on it.
type TokenLedger interface {
	// OwnerOf returns the current owner, or reverts.ErrTokenDoesNotExist
	// if the token was never minted.
	OwnerOf(tokenID uint64) (slumber.Address, error)
	// CreationTimestamp returns the mint timestamp of the token.
	CreationTimestamp(tokenID uint64) (uint64, error)
	// AutoStakeFlag reports whether the token was minted with automatic
	// staking. Written once at mint, read-only thereafter.
	AutoStakeFlag(tokenID uint64) (bool, error)
	// LastTransferAt returns the timestamp of the most recent ownership
	// transfer, 0 if the token was never transferred.
	LastTransferAt(tokenID uint64) (uint64, error)
}

// Clock supplies the current logical time. Values are monotonic
// non-decreasing per call sequence and carry no precision guarantee.
type Clock interface {
	Now() uint64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() uint64

func (f ClockFunc) Now() uint64 { return f() }
