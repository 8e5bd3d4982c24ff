// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stake implements the time-based staking state machine: per-token
// stake records, the stake/unstake transition engine and the read-only
// projections derived from accumulated staked time.
package stake

import (
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/ERFANEKHADEMI/EvolvableSlumber/evolution"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/log"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/metrics"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/slumber"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/stake/reverts"
)

var logger = log.WithContext("pkg", "stake")

var (
	metricStakes           = metrics.LazyLoadCounter("stake_total")
	metricUnstakes         = metrics.LazyLoadCounter("unstake_total")
	metricBlockedTransfers = metrics.LazyLoadCounter("transfer_blocked_total")
	metricStakedTokens     = metrics.LazyLoadGauge("staked_tokens_count")
)

var (
	ErrNotInitialized     = errors.New("engine not initialized")
	ErrAlreadyInitialized = errors.New("engine already initialized")
)

// Engine enforces the staking transition rules over a Store, gated by the
// ownership ledger and driven by the clock collaborator.
//
// Calls are serialized internally; each mutating operation either fully
// applies its state update or leaves the record untouched.
type Engine struct {
	store  Store
	ledger TokenLedger
	clock  Clock

	strategy       evolution.Strategy
	strategyPolicy Policy

	mu     sync.Mutex
	config *Config
}

// New creates an engine in the Uninitialized state. All operations fail
// with ErrNotInitialized until Init is called.
func New(store Store, ledger TokenLedger, clock Clock) *Engine {
	return &Engine{
		store:  store,
		ledger: ledger,
		clock:  clock,
	}
}

// Init moves the engine to the Initialized state. Callable exactly once;
// the config is immutable afterwards.
func (e *Engine) Init(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config != nil {
		return ErrAlreadyInitialized
	}
	e.config = &config
	logger.Info("engine initialized",
		"minStakingTime", config.MinStakingTime,
		"automaticStakeOnMint", config.AutomaticStakeOnMint,
		"automaticStakeOnTransfer", config.AutomaticStakeOnTransfer)
	return nil
}

// SetEvolutionStrategy plugs in the evolution strategy and the accumulation
// policy it is applied under. A nil strategy disables evolution.
func (e *Engine) SetEvolutionStrategy(s evolution.Strategy, policy Policy) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.strategy = s
	e.strategyPolicy = policy
}

// Config returns a copy of the engine config.
func (e *Engine) Config() (Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil {
		return Config{}, ErrNotInitialized
	}
	return *e.config, nil
}

// Stake marks the token as staked from now on. Fails with
// reverts.ErrNotOwner if the caller is not the current owner, or
// reverts.ErrAlreadyStaked if the token is already staked, manually or via
// an automatic window.
func (e *Engine) Stake(tokenID uint64, caller slumber.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil {
		return ErrNotInitialized
	}
	now := e.clock.Now()

	if err := e.checkOwner(tokenID, caller); err != nil {
		return err
	}
	rec, err := e.store.Get(tokenID)
	if err != nil {
		return errors.Wrap(err, "get record")
	}
	staked, err := e.isStaked(tokenID, rec, now)
	if err != nil {
		return err
	}
	if staked {
		return reverts.ErrAlreadyStaked
	}

	rec.Staked = true
	rec.LastStakedAt = now
	if rec.FirstStakedAt == 0 {
		rec.FirstStakedAt = now
	}
	if err := e.store.Set(tokenID, rec); err != nil {
		return errors.Wrap(err, "set record")
	}

	metricStakes().Add(1)
	metricStakedTokens().Add(1)
	logger.Debug("token staked", "token", tokenID, "at", now)
	return nil
}

// Unstake closes the open stake period, adding its length to the record's
// accumulated duration. Fails with reverts.ErrNotOwner, or
// reverts.ErrNotUnstakeable if the token is not manually staked or the
// minimum staking time has not elapsed. Automatic staking has no unstake
// path; its window simply expires.
func (e *Engine) Unstake(tokenID uint64, caller slumber.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil {
		return ErrNotInitialized
	}
	now := e.clock.Now()

	if err := e.checkOwner(tokenID, caller); err != nil {
		return err
	}
	rec, err := e.store.Get(tokenID)
	if err != nil {
		return errors.Wrap(err, "get record")
	}
	if !rec.Staked {
		return reverts.ErrNotUnstakeable
	}
	elapsed := saturatingSub(now, rec.LastStakedAt)
	if elapsed < e.config.MinStakingTime {
		return reverts.ErrNotUnstakeable
	}

	rec.Accumulated += elapsed
	rec.Staked = false
	if err := e.store.Set(tokenID, rec); err != nil {
		return errors.Wrap(err, "set record")
	}

	metricUnstakes().Add(1)
	metricStakedTokens().Add(-1)
	logger.Debug("token unstaked", "token", tokenID, "at", now, "period", elapsed)
	return nil
}

// IsStaked reports whether the token is staked right now, manually or
// within an automatic stake-on-mint/on-transfer window. Read-only.
func (e *Engine) IsStaked(tokenID uint64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil {
		return false, ErrNotInitialized
	}
	rec, err := e.store.Get(tokenID)
	if err != nil {
		return false, errors.Wrap(err, "get record")
	}
	return e.isStaked(tokenID, rec, e.clock.Now())
}

// CanUnstake reports whether an Unstake call would succeed for the owner
// right now. A token staked only via an automatic window is never manually
// unstakeable.
func (e *Engine) CanUnstake(tokenID uint64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil {
		return false, ErrNotInitialized
	}
	rec, err := e.store.Get(tokenID)
	if err != nil {
		return false, errors.Wrap(err, "get record")
	}
	if !rec.Staked {
		return false, nil
	}
	return saturatingSub(e.clock.Now(), rec.LastStakedAt) >= e.config.MinStakingTime, nil
}

// StakeDuration projects the token's record into a duration under the given
// policy. Never-staked tokens degrade to zero or large values rather than
// failing.
func (e *Engine) StakeDuration(tokenID uint64, policy Policy) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil {
		return 0, ErrNotInitialized
	}
	rec, err := e.store.Get(tokenID)
	if err != nil {
		return 0, errors.Wrap(err, "get record")
	}
	return rec.Duration(policy, e.clock.Now()), nil
}

// CheckTransfer gates an ownership transfer: it fails with
// reverts.ErrTokenStaked if any token in the range is currently staked.
// A staked token cannot be moved out from under its accruing record.
func (e *Engine) CheckTransfer(tokenIDs ...uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.checkTransfer(tokenIDs)
}

// GuardTransfer vetoes the transfer like CheckTransfer, then runs commit
// under the engine lock so no stake transition can land between the check
// and the ownership update. The caller must not hold the ledger lock: the
// check consults the ledger's accessors.
func (e *Engine) GuardTransfer(commit func() error, tokenIDs ...uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkTransfer(tokenIDs); err != nil {
		return err
	}
	return commit()
}

func (e *Engine) checkTransfer(tokenIDs []uint64) error {
	if e.config == nil {
		return ErrNotInitialized
	}
	now := e.clock.Now()
	for _, id := range tokenIDs {
		rec, err := e.store.Get(id)
		if err != nil {
			return errors.Wrap(err, "get record")
		}
		staked, err := e.isStaked(id, rec, now)
		if err != nil {
			return err
		}
		if staked {
			metricBlockedTransfers().Add(1)
			return errors.Wrapf(reverts.ErrTokenStaked, "token %d", id)
		}
	}
	return nil
}

// TokenURI renders the metadata URI for the token. Fails with
// reverts.ErrTokenDoesNotExist for unminted tokens, returns "" if no base
// URI is configured. With an evolution strategy set, the URI is
// baseURI + evolutionValue + "/" + tokenID; otherwise baseURI + tokenID.
// Recomputed on every call, never cached.
func (e *Engine) TokenURI(tokenID uint64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil {
		return "", ErrNotInitialized
	}
	if _, err := e.ledger.OwnerOf(tokenID); err != nil {
		return "", err
	}
	if e.config.BaseURI == "" {
		return "", nil
	}
	id := strconv.FormatUint(tokenID, 10)
	if e.strategy == nil {
		return e.config.BaseURI + id, nil
	}

	rec, err := e.store.Get(tokenID)
	if err != nil {
		return "", errors.Wrap(err, "get record")
	}
	value := e.strategy.Evolve(rec.Duration(e.strategyPolicy, e.clock.Now()))
	return e.config.BaseURI + strconv.FormatUint(value, 10) + "/" + id, nil
}

// Status is a read-only snapshot of a token's staking state.
type Status struct {
	Staked         bool   // manual stake or automatic window
	ManuallyStaked bool
	CanUnstake     bool
	FirstStakedAt  uint64
	LastStakedAt   uint64
	Accumulated    uint64
}

// TokenStatus returns the token's staking snapshot at the current time.
func (e *Engine) TokenStatus(tokenID uint64) (*Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil {
		return nil, ErrNotInitialized
	}
	if _, err := e.ledger.OwnerOf(tokenID); err != nil {
		return nil, err
	}
	now := e.clock.Now()
	rec, err := e.store.Get(tokenID)
	if err != nil {
		return nil, errors.Wrap(err, "get record")
	}
	staked, err := e.isStaked(tokenID, rec, now)
	if err != nil {
		return nil, err
	}
	return &Status{
		Staked:         staked,
		ManuallyStaked: rec.Staked,
		CanUnstake:     rec.Staked && saturatingSub(now, rec.LastStakedAt) >= e.config.MinStakingTime,
		FirstStakedAt:  rec.FirstStakedAt,
		LastStakedAt:   rec.LastStakedAt,
		Accumulated:    rec.Accumulated,
	}, nil
}

func (e *Engine) checkOwner(tokenID uint64, caller slumber.Address) error {
	owner, err := e.ledger.OwnerOf(tokenID)
	if err != nil {
		return err
	}
	if owner != caller {
		return reverts.ErrNotOwner
	}
	return nil
}

// isStaked evaluates manual staking plus the automatic windows derived from
// the ledger's mint and transfer timestamps.
func (e *Engine) isStaked(tokenID uint64, rec *Record, now uint64) (bool, error) {
	if rec.Staked {
		return true, nil
	}
	if e.config.AutomaticStakeOnMint > 0 {
		flag, err := e.ledger.AutoStakeFlag(tokenID)
		if err != nil {
			return false, err
		}
		if flag {
			created, err := e.ledger.CreationTimestamp(tokenID)
			if err != nil {
				return false, err
			}
			if created+e.config.AutomaticStakeOnMint > now {
				return true, nil
			}
		}
	}
	if e.config.AutomaticStakeOnTransfer > 0 {
		transferred, err := e.ledger.LastTransferAt(tokenID)
		if err != nil {
			return false, err
		}
		if transferred > 0 && transferred+e.config.AutomaticStakeOnTransfer > now {
			return true, nil
		}
	}
	return false, nil
}
