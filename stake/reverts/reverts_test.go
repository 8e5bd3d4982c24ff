// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New("test")
	assert.Equal(t, "test", revert.msg)
	assert.Equal(t, revert.Error(), revert.msg)

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(42))
}

func Test_Reverts_Wrapped(t *testing.T) {
	wrapped := errors.Wrap(ErrNotOwner, "stake")
	assert.True(t, IsRevertErr(wrapped))
	assert.True(t, errors.Is(wrapped, ErrNotOwner))
	assert.False(t, errors.Is(wrapped, ErrAlreadyStaked))
}
