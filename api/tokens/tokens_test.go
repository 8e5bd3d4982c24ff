// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

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

var (
	alice = slumber.BytesToAddress([]byte("alice"))
	bob   = slumber.BytesToAddress([]byte("bob"))
)

type env struct {
	server *httptest.Server
	ledger *ledger.Ledger
	engine *stake.Engine
	now    uint64
}

func newEnv(t *testing.T, config stake.Config, opts ledger.Options) *env {
	e := &env{}
	clock := stake.ClockFunc(func() uint64 { return e.now })

	var err error
	e.ledger, err = ledger.New(clock, opts, nil)
	require.Nil(t, err)

	e.engine = stake.New(stake.NewMemStore(), e.ledger, clock)
	require.Nil(t, e.engine.Init(config))
	e.ledger.SetTransferGuard(e.engine)

	router := mux.NewRouter()
	New(e.ledger, e.engine).Mount(router, "/tokens")
	e.server = httptest.NewServer(router)
	t.Cleanup(e.server.Close)
	return e
}

func (e *env) post(t *testing.T, path string, body interface{}, out interface{}) int {
	data, err := json.Marshal(body)
	require.Nil(t, err)
	res, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(data))
	require.Nil(t, err)
	defer res.Body.Close()
	payload, err := io.ReadAll(res.Body)
	require.Nil(t, err)
	if res.StatusCode == http.StatusOK && out != nil {
		require.Nil(t, json.Unmarshal(payload, out))
	}
	return res.StatusCode
}

func (e *env) get(t *testing.T, path string, out interface{}) int {
	res, err := http.Get(e.server.URL + path)
	require.Nil(t, err)
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK && out != nil {
		require.Nil(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestMintAndGetToken(t *testing.T) {
	e := newEnv(t, stake.Config{}, ledger.Options{MintPrice: 10, AutoStakeOnMint: true})
	e.now = 77

	var minted MintResponse
	code := e.post(t, "/tokens", &MintRequest{Owner: alice, Payment: 10}, &minted)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(1), minted.ID)

	// underpaying is rejected
	code = e.post(t, "/tokens", &MintRequest{Owner: alice, Payment: 9}, nil)
	assert.Equal(t, http.StatusForbidden, code)

	var token Token
	assert.Equal(t, http.StatusOK, e.get(t, "/tokens/1", &token))
	assert.Equal(t, alice, token.Owner)
	assert.Equal(t, uint64(77), token.CreatedAt)
	assert.True(t, token.AutoStake)

	assert.Equal(t, http.StatusNotFound, e.get(t, "/tokens/99", nil))
	assert.Equal(t, http.StatusBadRequest, e.get(t, "/tokens/abc", nil))

	var supply SupplyResponse
	assert.Equal(t, http.StatusOK, e.get(t, "/tokens", &supply))
	assert.Equal(t, uint64(1), supply.Total)
	assert.Equal(t, uint64(10), supply.Funds)
}

func TestTransferBlockedWhileStaked(t *testing.T) {
	e := newEnv(t, stake.Config{}, ledger.Options{})

	id, err := e.ledger.Mint(alice, 0)
	require.Nil(t, err)
	require.Nil(t, e.engine.Stake(id, alice))

	code := e.post(t, fmt.Sprintf("/tokens/%d/transfer", id), &TransferRequest{From: alice, To: bob}, nil)
	assert.Equal(t, http.StatusForbidden, code)

	e.now = 10
	require.Nil(t, e.engine.Unstake(id, alice))

	code = e.post(t, fmt.Sprintf("/tokens/%d/transfer", id), &TransferRequest{From: alice, To: bob}, nil)
	assert.Equal(t, http.StatusOK, code)

	// accumulated duration survives the transfer
	status, err := e.engine.TokenStatus(id)
	require.Nil(t, err)
	assert.Equal(t, uint64(10), status.Accumulated)
}

func TestTransferBlockedByMintWindow(t *testing.T) {
	e := newEnv(t, stake.Config{AutomaticStakeOnMint: 50}, ledger.Options{AutoStakeOnMint: true})

	id, err := e.ledger.Mint(alice, 0)
	require.Nil(t, err)

	// never manually staked, but still inside the automatic mint window
	code := e.post(t, fmt.Sprintf("/tokens/%d/transfer", id), &TransferRequest{From: alice, To: bob}, nil)
	assert.Equal(t, http.StatusForbidden, code)

	e.now = 50
	code = e.post(t, fmt.Sprintf("/tokens/%d/transfer", id), &TransferRequest{From: alice, To: bob}, nil)
	assert.Equal(t, http.StatusOK, code)

	var token Token
	assert.Equal(t, http.StatusOK, e.get(t, fmt.Sprintf("/tokens/%d", id), &token))
	assert.Equal(t, bob, token.Owner)
}

func TestTokenURIOverHTTP(t *testing.T) {
	e := newEnv(t, stake.Config{BaseURI: "ipfs://meta/"}, ledger.Options{})

	id, err := e.ledger.Mint(alice, 0)
	require.Nil(t, err)

	var uri URIResponse
	assert.Equal(t, http.StatusOK, e.get(t, fmt.Sprintf("/tokens/%d/uri", id), &uri))
	assert.Equal(t, "ipfs://meta/1", uri.URI)

	assert.Equal(t, http.StatusNotFound, e.get(t, "/tokens/5/uri", nil))
}

func TestWithdrawOverHTTP(t *testing.T) {
	e := newEnv(t, stake.Config{}, ledger.Options{MintPrice: 4, Beneficiary: alice})

	_, err := e.ledger.Mint(bob, 4)
	require.Nil(t, err)

	code := e.post(t, "/tokens/withdraw", &WithdrawRequest{Caller: bob}, nil)
	assert.Equal(t, http.StatusForbidden, code)

	var withdrawn WithdrawResponse
	code = e.post(t, "/tokens/withdraw", &WithdrawRequest{Caller: alice}, &withdrawn)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(4), withdrawn.Amount)
}
