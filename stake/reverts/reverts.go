// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts holds the precondition failures surfaced by the staking
// engine. A revert means the call was rejected before any state change.
package reverts

import (
	"errors"
)

// ErrRevert is the error type shared by all precondition failures.
type ErrRevert struct {
	msg string
}

// New creates a revert error carrying a fixed message.
func New(msg string) *ErrRevert {
	return &ErrRevert{msg: msg}
}

func (e *ErrRevert) Error() string {
	return e.msg
}

// IsRevertErr reports whether the value is, or wraps, a revert error.
// Non-error values (including nil) are never reverts.
func IsRevertErr(err any) bool {
	e, ok := err.(error)
	if !ok {
		return false
	}
	var revert *ErrRevert
	return errors.As(e, &revert)
}

// The closed set of precondition failures. Every mutating operation either
// fully applies its update or fails with one of these and leaves the record
// untouched.
var (
	ErrNotOwner          = New("caller is not the token owner")
	ErrAlreadyStaked     = New("token is already staked")
	ErrNotUnstakeable    = New("token is not unstakeable")
	ErrTokenStaked       = New("token is staked")
	ErrTokenDoesNotExist = New("token does not exist")
)
