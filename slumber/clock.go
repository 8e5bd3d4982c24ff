// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slumber

import (
	"time"
)

// UnixNow returns the current unix time in seconds. Wall-clock seconds are
// the logical time unit of the staking engine.
func UnixNow() uint64 {
	return uint64(time.Now().Unix()) // #nosec G115
}
