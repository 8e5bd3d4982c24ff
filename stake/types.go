// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"github.com/pkg/errors"
)

// Policy selects how a token's staked duration is accumulated.
type Policy uint8

const (
	PolicyNone       = Policy(iota) // 0 -> feature disabled, duration is always zero
	PolicyCurrent                   // time since the most recent stake event
	PolicyAlive                     // time since the first ever stake event
	PolicyCumulative                // all completed periods plus the currently open one
)

func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "none"
	case PolicyCurrent:
		return "current"
	case PolicyAlive:
		return "alive"
	case PolicyCumulative:
		return "cumulative"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a policy name into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "none":
		return PolicyNone, nil
	case "current":
		return PolicyCurrent, nil
	case "alive":
		return PolicyAlive, nil
	case "cumulative":
		return PolicyCumulative, nil
	default:
		return PolicyNone, errors.Errorf("unknown policy %q", s)
	}
}

// Record is the per-token staking state. A zero Record means the token was
// never manually staked. Records are created lazily, never destroyed, and
// survive ownership transfers.
type Record struct {
	Staked        bool   // whether the token is manually staked right now
	FirstStakedAt uint64 // timestamp of the first ever stake event, 0 if never staked
	LastStakedAt  uint64 // timestamp of the most recent stake event
	Accumulated   uint64 // total duration of completed stake periods; the open period is NOT included
}

// IsEmpty returns whether the record can be treated as empty.
func (r *Record) IsEmpty() bool {
	return !r.Staked && r.FirstStakedAt == 0 && r.LastStakedAt == 0 && r.Accumulated == 0
}

// Duration projects the record into a staked duration under the given
// policy. Pure: the record is not modified.
//
// Cumulative counts the open period only while the record is currently
// staked. Undefined inputs (policy queried on a never-staked record) degrade
// to zero or large values rather than failing.
func (r *Record) Duration(policy Policy, now uint64) uint64 {
	switch policy {
	case PolicyCurrent:
		return saturatingSub(now, r.LastStakedAt)
	case PolicyAlive:
		if r.FirstStakedAt == 0 {
			return 0
		}
		return saturatingSub(now, r.FirstStakedAt)
	case PolicyCumulative:
		total := r.Accumulated
		if r.Staked {
			total += saturatingSub(now, r.LastStakedAt)
		}
		return total
	default:
		return 0
	}
}

// The clock is untrusted input; clamp instead of wrapping around.
func saturatingSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
