// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ERFANEKHADEMI/EvolvableSlumber/ledger"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/slumber"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/stake"
)

var alice = slumber.BytesToAddress([]byte("alice"))

type env struct {
	server *httptest.Server
	ledger *ledger.Ledger
	now    uint64
}

func newEnv(t *testing.T, config stake.Config) *env {
	e := &env{}
	clock := stake.ClockFunc(func() uint64 { return e.now })

	var err error
	e.ledger, err = ledger.New(clock, ledger.Options{}, nil)
	require.Nil(t, err)

	engine := stake.New(stake.NewMemStore(), e.ledger, clock)
	require.Nil(t, engine.Init(config))
	e.ledger.SetTransferGuard(engine)

	router := mux.NewRouter()
	New(engine).Mount(router, "/staking")
	e.server = httptest.NewServer(router)
	t.Cleanup(e.server.Close)
	return e
}

func (e *env) post(t *testing.T, path string, body interface{}) (int, []byte) {
	data, err := json.Marshal(body)
	require.Nil(t, err)
	res, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(data))
	require.Nil(t, err)
	defer res.Body.Close()
	payload, err := io.ReadAll(res.Body)
	require.Nil(t, err)
	return res.StatusCode, payload
}

func (e *env) get(t *testing.T, path string, out interface{}) int {
	res, err := http.Get(e.server.URL + path)
	require.Nil(t, err)
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK {
		require.Nil(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestStakeUnstakeOverHTTP(t *testing.T) {
	e := newEnv(t, stake.Config{MinStakingTime: 100})
	id, err := e.ledger.Mint(alice, 0)
	require.Nil(t, err)

	code, _ := e.post(t, fmt.Sprintf("/staking/%d/stake", id), &CallerRequest{Caller: alice})
	assert.Equal(t, http.StatusOK, code)

	// double stake is a precondition failure
	code, _ = e.post(t, fmt.Sprintf("/staking/%d/stake", id), &CallerRequest{Caller: alice})
	assert.Equal(t, http.StatusForbidden, code)

	// too early to unstake
	e.now = 50
	code, _ = e.post(t, fmt.Sprintf("/staking/%d/unstake", id), &CallerRequest{Caller: alice})
	assert.Equal(t, http.StatusForbidden, code)

	e.now = 100
	code, _ = e.post(t, fmt.Sprintf("/staking/%d/unstake", id), &CallerRequest{Caller: alice})
	assert.Equal(t, http.StatusOK, code)

	var status StatusResponse
	assert.Equal(t, http.StatusOK, e.get(t, fmt.Sprintf("/staking/%d", id), &status))
	assert.False(t, status.Staked)
	assert.Equal(t, uint64(100), status.Accumulated)
}

func TestStatusUnknownToken(t *testing.T) {
	e := newEnv(t, stake.Config{})
	assert.Equal(t, http.StatusNotFound, e.get(t, "/staking/42", nil))
}

func TestDurationOverHTTP(t *testing.T) {
	e := newEnv(t, stake.Config{})
	id, err := e.ledger.Mint(alice, 0)
	require.Nil(t, err)

	code, _ := e.post(t, fmt.Sprintf("/staking/%d/stake", id), &CallerRequest{Caller: alice})
	require.Equal(t, http.StatusOK, code)
	e.now = 30

	var dur DurationResponse
	assert.Equal(t, http.StatusOK, e.get(t, fmt.Sprintf("/staking/%d/duration?policy=cumulative", id), &dur))
	assert.Equal(t, uint64(30), dur.Duration)
	assert.Equal(t, "cumulative", dur.Policy)

	assert.Equal(t, http.StatusBadRequest, e.get(t, fmt.Sprintf("/staking/%d/duration?policy=bogus", id), nil))
}

func TestConfigOverHTTP(t *testing.T) {
	e := newEnv(t, stake.Config{MinStakingTime: 7, BaseURI: "ipfs://m/", MintPrice: 3})

	var cfg ConfigResponse
	assert.Equal(t, http.StatusOK, e.get(t, "/staking/config", &cfg))
	assert.Equal(t, uint64(7), cfg.MinStakingTime)
	assert.Equal(t, "ipfs://m/", cfg.BaseURI)
	assert.Equal(t, uint64(3), cfg.MintPrice)
}
