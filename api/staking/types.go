// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/ERFANEKHADEMI/EvolvableSlumber/slumber"
)

type ConfigResponse struct {
	MinStakingTime           uint64 `json:"minStakingTime"`
	AutomaticStakeOnMint     uint64 `json:"automaticStakeOnMint"`
	AutomaticStakeOnTransfer uint64 `json:"automaticStakeOnTransfer"`
	BaseURI                  string `json:"baseURI"`
	MintPrice                uint64 `json:"mintPrice"`
}

type CallerRequest struct {
	Caller slumber.Address `json:"caller"`
}

type StatusResponse struct {
	ID             uint64 `json:"id"`
	Staked         bool   `json:"staked"`
	ManuallyStaked bool   `json:"manuallyStaked"`
	CanUnstake     bool   `json:"canUnstake"`
	FirstStakedAt  uint64 `json:"firstStakedAt"`
	LastStakedAt   uint64 `json:"lastStakedAt"`
	Accumulated    uint64 `json:"accumulated"`
}

type DurationResponse struct {
	ID       uint64 `json:"id"`
	Policy   string `json:"policy"`
	Duration uint64 `json:"duration"`
}
