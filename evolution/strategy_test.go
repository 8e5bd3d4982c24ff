// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinear(t *testing.T) {
	s := Linear{UnitsPerLevel: 100}
	assert.Equal(t, uint64(0), s.Evolve(0))
	assert.Equal(t, uint64(0), s.Evolve(99))
	assert.Equal(t, uint64(1), s.Evolve(100))
	assert.Equal(t, uint64(10), s.Evolve(1050))

	// zero units per level disables evolution
	assert.Equal(t, uint64(0), Linear{}.Evolve(1000))
}

func TestStepwise(t *testing.T) {
	s := Stepwise{Thresholds: []uint64{10, 100, 1000}}
	assert.Equal(t, uint64(0), s.Evolve(0))
	assert.Equal(t, uint64(0), s.Evolve(9))
	assert.Equal(t, uint64(1), s.Evolve(10))
	assert.Equal(t, uint64(2), s.Evolve(999))
	assert.Equal(t, uint64(3), s.Evolve(1000))
	assert.Equal(t, uint64(3), s.Evolve(1<<40))
}

func TestNew(t *testing.T) {
	s, err := New("", nil)
	assert.Nil(t, err)
	assert.Equal(t, Nop{}, s)

	s, err = New("linear", []uint64{60})
	assert.Nil(t, err)
	assert.Equal(t, Linear{UnitsPerLevel: 60}, s)

	_, err = New("linear", nil)
	assert.Error(t, err)

	_, err = New("stepwise", []uint64{100, 10})
	assert.Error(t, err)

	_, err = New("bogus", nil)
	assert.Error(t, err)
}
