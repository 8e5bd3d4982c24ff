// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package evolution provides pluggable strategies that translate an
// accumulated staking duration into an evolution value.
package evolution

import (
	"sort"

	"github.com/pkg/errors"
)

// Strategy maps a staked duration to an evolution value. Implementations
// must be pure: same duration in, same value out, no state.
type Strategy interface {
	Evolve(duration uint64) uint64
}

// Nop always evolves to zero.
type Nop struct{}

func (Nop) Evolve(uint64) uint64 { return 0 }

// Linear evolves one level per UnitsPerLevel of staked time.
type Linear struct {
	UnitsPerLevel uint64
}

func (l Linear) Evolve(duration uint64) uint64 {
	if l.UnitsPerLevel == 0 {
		return 0
	}
	return duration / l.UnitsPerLevel
}

// Stepwise evolves to the number of thresholds the duration has passed.
// Thresholds must be ascending.
type Stepwise struct {
	Thresholds []uint64
}

func (s Stepwise) Evolve(duration uint64) uint64 {
	n := sort.Search(len(s.Thresholds), func(i int) bool {
		return s.Thresholds[i] > duration
	})
	return uint64(n)
}

// New builds a strategy by name. Known names: "nop", "linear", "stepwise".
func New(name string, params []uint64) (Strategy, error) {
	switch name {
	case "", "nop":
		return Nop{}, nil
	case "linear":
		if len(params) != 1 {
			return nil, errors.New("linear strategy takes exactly one parameter")
		}
		return Linear{UnitsPerLevel: params[0]}, nil
	case "stepwise":
		if len(params) == 0 {
			return nil, errors.New("stepwise strategy takes at least one threshold")
		}
		if !sort.SliceIsSorted(params, func(i, j int) bool { return params[i] < params[j] }) {
			return nil, errors.New("stepwise thresholds must be ascending")
		}
		return Stepwise{Thresholds: params}, nil
	default:
		return nil, errors.Errorf("unknown evolution strategy %q", name)
	}
}
