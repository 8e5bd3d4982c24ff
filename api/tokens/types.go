// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"github.com/ERFANEKHADEMI/EvolvableSlumber/slumber"
)

type MintRequest struct {
	Owner   slumber.Address `json:"owner"`
	Payment uint64          `json:"payment"`
}

type MintResponse struct {
	ID uint64 `json:"id"`
}

type SupplyResponse struct {
	Total uint64 `json:"total"`
	Funds uint64 `json:"funds"`
}

type Token struct {
	ID             uint64          `json:"id"`
	Owner          slumber.Address `json:"owner"`
	CreatedAt      uint64          `json:"createdAt"`
	AutoStake      bool            `json:"autoStake"`
	LastTransferAt uint64          `json:"lastTransferAt"`
}

type TransferRequest struct {
	From slumber.Address `json:"from"`
	To   slumber.Address `json:"to"`
}

type URIResponse struct {
	URI string `json:"uri"`
}

type WithdrawRequest struct {
	Caller slumber.Address `json:"caller"`
}

type WithdrawResponse struct {
	Amount uint64 `json:"amount"`
}
