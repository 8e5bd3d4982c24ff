// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ERFANEKHADEMI/EvolvableSlumber/evolution"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/slumber"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/stake/reverts"
)

var (
	alice = slumber.BytesToAddress([]byte("alice"))
	bob   = slumber.BytesToAddress([]byte("bob"))
)

// testLedger is an in-memory TokenLedger stub.
type testLedger struct {
	owners     map[uint64]slumber.Address
	createdAt  map[uint64]uint64
	autoStake  map[uint64]bool
	transferAt map[uint64]uint64
}

func newTestLedger() *testLedger {
	return &testLedger{
		owners:     make(map[uint64]slumber.Address),
		createdAt:  make(map[uint64]uint64),
		autoStake:  make(map[uint64]bool),
		transferAt: make(map[uint64]uint64),
	}
}

func (l *testLedger) mint(id uint64, owner slumber.Address, at uint64, autoStake bool) {
	l.owners[id] = owner
	l.createdAt[id] = at
	l.autoStake[id] = autoStake
}

func (l *testLedger) OwnerOf(id uint64) (slumber.Address, error) {
	owner, ok := l.owners[id]
	if !ok {
		return slumber.Address{}, reverts.ErrTokenDoesNotExist
	}
	return owner, nil
}

func (l *testLedger) CreationTimestamp(id uint64) (uint64, error) {
	if _, ok := l.owners[id]; !ok {
		return 0, reverts.ErrTokenDoesNotExist
	}
	return l.createdAt[id], nil
}

func (l *testLedger) AutoStakeFlag(id uint64) (bool, error) {
	if _, ok := l.owners[id]; !ok {
		return false, reverts.ErrTokenDoesNotExist
	}
	return l.autoStake[id], nil
}

func (l *testLedger) LastTransferAt(id uint64) (uint64, error) {
	if _, ok := l.owners[id]; !ok {
		return 0, reverts.ErrTokenDoesNotExist
	}
	return l.transferAt[id], nil
}

// testEnv bundles an engine with its collaborators and a settable clock.
type testEnv struct {
	engine *Engine
	ledger *testLedger
	now    uint64
}

func newTestEnv(t *testing.T, config Config) *testEnv {
	env := &testEnv{ledger: newTestLedger()}
	env.engine = New(NewMemStore(), env.ledger, ClockFunc(func() uint64 { return env.now }))
	require.Nil(t, env.engine.Init(config))
	return env
}

func TestInitOnce(t *testing.T) {
	env := &testEnv{ledger: newTestLedger()}
	engine := New(NewMemStore(), env.ledger, ClockFunc(func() uint64 { return env.now }))

	// every operation fails before initialization
	assert.ErrorIs(t, engine.Stake(1, alice), ErrNotInitialized)
	assert.ErrorIs(t, engine.Unstake(1, alice), ErrNotInitialized)
	_, err := engine.IsStaked(1)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = engine.TokenURI(1)
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.Nil(t, engine.Init(Config{}))
	assert.ErrorIs(t, engine.Init(Config{}), ErrAlreadyInitialized)
}

func TestStake(t *testing.T) {
	env := newTestEnv(t, Config{MinStakingTime: 100})
	env.ledger.mint(1, alice, 0, false)

	// unminted token
	assert.ErrorIs(t, env.engine.Stake(2, alice), reverts.ErrTokenDoesNotExist)

	// non-owner cannot stake
	assert.ErrorIs(t, env.engine.Stake(1, bob), reverts.ErrNotOwner)

	require.Nil(t, env.engine.Stake(1, alice))
	staked, err := env.engine.IsStaked(1)
	require.Nil(t, err)
	assert.True(t, staked)

	// staking twice fails
	assert.ErrorIs(t, env.engine.Stake(1, alice), reverts.ErrAlreadyStaked)
}

func TestUnstakeMinimumTime(t *testing.T) {
	env := newTestEnv(t, Config{MinStakingTime: 100})
	env.ledger.mint(1, alice, 0, false)

	// not staked at all
	assert.ErrorIs(t, env.engine.Unstake(1, alice), reverts.ErrNotUnstakeable)

	require.Nil(t, env.engine.Stake(1, alice))

	env.now = 50
	assert.ErrorIs(t, env.engine.Unstake(1, alice), reverts.ErrNotUnstakeable)
	can, err := env.engine.CanUnstake(1)
	require.Nil(t, err)
	assert.False(t, can)

	env.now = 100
	can, err = env.engine.CanUnstake(1)
	require.Nil(t, err)
	assert.True(t, can)
	assert.ErrorIs(t, env.engine.Unstake(1, bob), reverts.ErrNotOwner)
	require.Nil(t, env.engine.Unstake(1, alice))

	staked, err := env.engine.IsStaked(1)
	require.Nil(t, err)
	assert.False(t, staked)

	status, err := env.engine.TokenStatus(1)
	require.Nil(t, err)
	assert.Equal(t, uint64(100), status.Accumulated)
}

func TestAccumulatedGrowsBySumOfPeriods(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ledger.mint(1, alice, 0, false)

	periods := [][2]uint64{{0, 10}, {20, 35}, {50, 100}}
	var total uint64
	var lastAccumulated uint64
	for _, p := range periods {
		env.now = p[0]
		require.Nil(t, env.engine.Stake(1, alice))
		env.now = p[1]
		require.Nil(t, env.engine.Unstake(1, alice))
		total += p[1] - p[0]

		status, err := env.engine.TokenStatus(1)
		require.Nil(t, err)
		assert.GreaterOrEqual(t, status.Accumulated, lastAccumulated)
		lastAccumulated = status.Accumulated
	}
	assert.Equal(t, total, lastAccumulated)
}

func TestAutomaticStakeOnMint(t *testing.T) {
	env := newTestEnv(t, Config{AutomaticStakeOnMint: 200})
	env.ledger.mint(1, alice, 100, true)
	env.ledger.mint(2, alice, 100, false)

	// flagged token is staked inside the window with no manual call
	env.now = 100
	staked, err := env.engine.IsStaked(1)
	require.Nil(t, err)
	assert.True(t, staked)

	staked, err = env.engine.IsStaked(2)
	require.Nil(t, err)
	assert.False(t, staked)

	env.now = 299
	staked, err = env.engine.IsStaked(1)
	require.Nil(t, err)
	assert.True(t, staked)

	// the window simply expires
	env.now = 300
	staked, err = env.engine.IsStaked(1)
	require.Nil(t, err)
	assert.False(t, staked)

	// no manual unstake path for automatic staking
	env.now = 150
	assert.ErrorIs(t, env.engine.Unstake(1, alice), reverts.ErrNotUnstakeable)
	can, err := env.engine.CanUnstake(1)
	require.Nil(t, err)
	assert.False(t, can)

	// auto-staked token cannot be staked again until the window expires
	assert.ErrorIs(t, env.engine.Stake(1, alice), reverts.ErrAlreadyStaked)
	env.now = 300
	require.Nil(t, env.engine.Stake(1, alice))
}

func TestAutomaticStakeOnTransfer(t *testing.T) {
	env := newTestEnv(t, Config{AutomaticStakeOnTransfer: 50})
	env.ledger.mint(1, alice, 0, false)

	env.now = 100
	env.ledger.transferAt[1] = 100

	staked, err := env.engine.IsStaked(1)
	require.Nil(t, err)
	assert.True(t, staked)

	env.now = 150
	staked, err = env.engine.IsStaked(1)
	require.Nil(t, err)
	assert.False(t, staked)
}

func TestCheckTransfer(t *testing.T) {
	env := newTestEnv(t, Config{AutomaticStakeOnMint: 100})
	env.ledger.mint(1, alice, 0, false)
	env.ledger.mint(2, alice, 0, true)

	// token 2 sits in its automatic window, the whole range is rejected
	assert.ErrorIs(t, env.engine.CheckTransfer(1, 2), reverts.ErrTokenStaked)
	assert.Nil(t, env.engine.CheckTransfer(1))

	env.now = 100
	assert.Nil(t, env.engine.CheckTransfer(1, 2))

	require.Nil(t, env.engine.Stake(1, alice))
	assert.ErrorIs(t, env.engine.CheckTransfer(1, 2), reverts.ErrTokenStaked)
}

func TestGuardTransfer(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ledger.mint(1, alice, 0, false)

	commits := 0
	commit := func() error {
		commits++
		return nil
	}

	require.Nil(t, env.engine.GuardTransfer(commit, 1))
	assert.Equal(t, 1, commits)

	// a vetoed transfer never reaches the commit
	require.Nil(t, env.engine.Stake(1, alice))
	assert.ErrorIs(t, env.engine.GuardTransfer(commit, 1), reverts.ErrTokenStaked)
	assert.Equal(t, 1, commits)

	env.now = 10
	require.Nil(t, env.engine.Unstake(1, alice))

	boom := errors.New("commit rejected")
	assert.ErrorIs(t, env.engine.GuardTransfer(func() error { return boom }, 1), boom)
}

func TestStakeDurationPolicies(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ledger.mint(1, alice, 0, false)

	// stake at t=0, unstake at t=10, stake at t=20, query at t=30
	require.Nil(t, env.engine.Stake(1, alice))
	env.now = 10
	require.Nil(t, env.engine.Unstake(1, alice))
	env.now = 20
	require.Nil(t, env.engine.Stake(1, alice))
	env.now = 30

	dur, err := env.engine.StakeDuration(1, PolicyNone)
	require.Nil(t, err)
	assert.Equal(t, uint64(0), dur)

	dur, err = env.engine.StakeDuration(1, PolicyCurrent)
	require.Nil(t, err)
	assert.Equal(t, uint64(10), dur)

	dur, err = env.engine.StakeDuration(1, PolicyAlive)
	require.Nil(t, err)
	assert.Equal(t, uint64(30), dur)

	dur, err = env.engine.StakeDuration(1, PolicyCumulative)
	require.Nil(t, err)
	assert.Equal(t, uint64(20), dur)
}

func TestAliveInvariantUnderCycles(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ledger.mint(1, alice, 0, false)

	env.now = 5
	require.Nil(t, env.engine.Stake(1, alice))

	for _, cycle := range [][2]uint64{{10, 20}, {30, 40}, {50, 60}} {
		env.now = cycle[0]
		require.Nil(t, env.engine.Unstake(1, alice))
		env.now = cycle[1]
		require.Nil(t, env.engine.Stake(1, alice))
	}

	env.now = 100
	dur, err := env.engine.StakeDuration(1, PolicyAlive)
	require.Nil(t, err)
	assert.Equal(t, uint64(95), dur)
}

func TestCumulativeExcludesOpenTermWhileUnstaked(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ledger.mint(1, alice, 0, false)

	require.Nil(t, env.engine.Stake(1, alice))
	env.now = 10
	require.Nil(t, env.engine.Unstake(1, alice))

	env.now = 500
	dur, err := env.engine.StakeDuration(1, PolicyCumulative)
	require.Nil(t, err)
	assert.Equal(t, uint64(10), dur)
}

func TestTokenURI(t *testing.T) {
	env := newTestEnv(t, Config{BaseURI: "ipfs://meta/"})
	env.ledger.mint(42, alice, 0, false)

	_, err := env.engine.TokenURI(7)
	assert.ErrorIs(t, err, reverts.ErrTokenDoesNotExist)

	uri, err := env.engine.TokenURI(42)
	require.Nil(t, err)
	assert.Equal(t, "ipfs://meta/42", uri)
}

func TestTokenURIWithEvolution(t *testing.T) {
	env := newTestEnv(t, Config{BaseURI: "https://slumber.example/meta/"})
	env.engine.SetEvolutionStrategy(evolution.Linear{UnitsPerLevel: 10}, PolicyCumulative)
	env.ledger.mint(1, alice, 0, false)

	uri, err := env.engine.TokenURI(1)
	require.Nil(t, err)
	assert.Equal(t, "https://slumber.example/meta/0/1", uri)

	require.Nil(t, env.engine.Stake(1, alice))
	env.now = 35

	// recomputed per call, reflects current clock state
	uri, err = env.engine.TokenURI(1)
	require.Nil(t, err)
	assert.Equal(t, "https://slumber.example/meta/3/1", uri)
}

func TestTokenURIEmptyWithoutBase(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ledger.mint(1, alice, 0, false)

	uri, err := env.engine.TokenURI(1)
	require.Nil(t, err)
	assert.Equal(t, "", uri)
}

func TestFailedCallsLeaveRecordUntouched(t *testing.T) {
	env := newTestEnv(t, Config{MinStakingTime: 100})
	env.ledger.mint(1, alice, 0, false)

	require.Nil(t, env.engine.Stake(1, alice))
	env.now = 50
	assert.Error(t, env.engine.Unstake(1, alice))

	status, err := env.engine.TokenStatus(1)
	require.Nil(t, err)
	assert.True(t, status.ManuallyStaked)
	assert.Equal(t, uint64(0), status.Accumulated)
	assert.Equal(t, uint64(0), status.LastStakedAt)
}
