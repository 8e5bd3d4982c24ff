// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger implements the token ownership ledger the staking engine
// consults: sequential minting, guarded transfers and a minimal funds sink.
package ledger

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ERFANEKHADEMI/EvolvableSlumber/kv"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/log"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/slumber"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/stake"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/stake/reverts"
)

var logger = log.WithContext("pkg", "ledger")

var (
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrNotAuthorized       = errors.New("not authorized")
)

// TransferGuard serializes ownership transfers against staking transitions.
// Satisfied by stake.Engine: the guard either vetoes the transfer or runs
// commit while holding its own lock, so no stake transition can land between
// the check and the ownership update. The guard is invoked without the
// ledger lock held and is free to call back into the ledger's accessors.
type TransferGuard interface {
	GuardTransfer(commit func() error, tokenIDs ...uint64) error
}

// Options configures the ledger at construction.
type Options struct {
	// MintPrice is the payment required per mint.
	MintPrice uint64
	// AutoStakeOnMint sets the per-token auto-stake flag at mint time.
	AutoStakeOnMint bool
	// Beneficiary is the only address allowed to withdraw collected funds.
	Beneficiary slumber.Address
}

// record is the per-token mint metadata. The auto-stake flag is written
// once at mint and read-only thereafter.
type record struct {
	owner          slumber.Address
	createdAt      uint64
	lastTransferAt uint64
	autoStake      bool
}

// Ledger tracks token ownership and mint metadata. All mutating calls are
// serialized; a failed call leaves the ledger untouched.
type Ledger struct {
	clock stake.Clock
	opts  Options

	mu      sync.Mutex
	guard   TransferGuard
	store   kv.GetPutter // nil means memory only
	records map[uint64]*record
	nextID  uint64
	funds   uint64
}

// New creates a ledger. A non-nil store makes mint metadata durable; the
// existing content of the store is loaded back.
func New(clock stake.Clock, opts Options, store kv.GetPutter) (*Ledger, error) {
	l := &Ledger{
		clock:   clock,
		opts:    opts,
		store:   store,
		records: make(map[uint64]*record),
		nextID:  1,
	}
	if store != nil {
		if err := l.load(); err != nil {
			return nil, errors.Wrap(err, "load ledger")
		}
		logger.Info("ledger loaded", "tokens", len(l.records))
	}
	return l, nil
}

// SetTransferGuard installs the transfer guard. Must be called before the
// first Transfer; kept separate from New because the guard (the staking
// engine) is constructed on top of the ledger.
func (l *Ledger) SetTransferGuard(g TransferGuard) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.guard = g
}

// Mint creates a new token owned by `to` and returns its id. The payment
// must cover the mint price; the surplus is kept by the funds sink too.
func (l *Ledger) Mint(to slumber.Address, payment uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if payment < l.opts.MintPrice {
		return 0, ErrInsufficientPayment
	}

	id := l.nextID
	rec := &record{
		owner:     to,
		createdAt: l.clock.Now(),
		autoStake: l.opts.AutoStakeOnMint,
	}
	if err := l.persist(map[uint64]*record{id: rec}, l.nextID+1, l.funds+payment); err != nil {
		return 0, err
	}

	l.records[id] = rec
	l.nextID++
	l.funds += payment
	logger.Debug("token minted", "token", id, "owner", to, "autoStake", rec.autoStake)
	return id, nil
}

// Transfer moves the tokens from one owner to another. The whole transfer
// fails if `from` does not own every token or the guard vetoes any of them;
// staking state is never reset by a transfer.
//
// The ledger lock is released before the guard runs: the guard evaluates
// automatic windows through the ledger's accessors, and it holds the engine
// lock while committing, so the lock order is always engine before ledger.
// Ownership is validated again at commit time.
func (l *Ledger) Transfer(from, to slumber.Address, tokenIDs ...uint64) error {
	l.mu.Lock()
	guard := l.guard
	err := l.checkOwned(from, tokenIDs)
	l.mu.Unlock()
	if err != nil {
		return err
	}

	if guard == nil {
		return l.commitTransfer(from, to, tokenIDs)
	}
	return guard.GuardTransfer(func() error {
		return l.commitTransfer(from, to, tokenIDs)
	}, tokenIDs...)
}

// caller must hold l.mu
func (l *Ledger) checkOwned(from slumber.Address, tokenIDs []uint64) error {
	for _, id := range tokenIDs {
		rec, ok := l.records[id]
		if !ok {
			return reverts.ErrTokenDoesNotExist
		}
		if rec.owner != from {
			return reverts.ErrNotOwner
		}
	}
	return nil
}

func (l *Ledger) commitTransfer(from, to slumber.Address, tokenIDs []uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// ownership may have moved while the lock was released
	if err := l.checkOwned(from, tokenIDs); err != nil {
		return err
	}

	now := l.clock.Now()
	updated := make(map[uint64]*record, len(tokenIDs))
	for _, id := range tokenIDs {
		rec := *l.records[id]
		rec.owner = to
		rec.lastTransferAt = now
		updated[id] = &rec
	}
	if err := l.persist(updated, l.nextID, l.funds); err != nil {
		return err
	}
	for id, rec := range updated {
		l.records[id] = rec
	}
	logger.Debug("tokens transferred", "count", len(tokenIDs), "from", from, "to", to)
	return nil
}

// OwnerOf returns the current owner of the token.
func (l *Ledger) OwnerOf(tokenID uint64) (slumber.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[tokenID]
	if !ok {
		return slumber.Address{}, reverts.ErrTokenDoesNotExist
	}
	return rec.owner, nil
}

// CreationTimestamp returns the mint timestamp of the token.
func (l *Ledger) CreationTimestamp(tokenID uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[tokenID]
	if !ok {
		return 0, reverts.ErrTokenDoesNotExist
	}
	return rec.createdAt, nil
}

// AutoStakeFlag reports whether the token was minted with automatic staking.
func (l *Ledger) AutoStakeFlag(tokenID uint64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[tokenID]
	if !ok {
		return false, reverts.ErrTokenDoesNotExist
	}
	return rec.autoStake, nil
}

// LastTransferAt returns the timestamp of the most recent transfer, 0 if
// the token never changed hands.
func (l *Ledger) LastTransferAt(tokenID uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[tokenID]
	if !ok {
		return 0, reverts.ErrTokenDoesNotExist
	}
	return rec.lastTransferAt, nil
}

// TotalSupply returns the number of minted tokens.
func (l *Ledger) TotalSupply() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextID - 1
}

// Funds returns the balance held by the funds sink.
func (l *Ledger) Funds() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.funds
}

// Withdraw moves the held balance out to the beneficiary. It moves funds
// only, never staking state.
func (l *Ledger) Withdraw(caller slumber.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.opts.Beneficiary || caller.IsZero() {
		return 0, ErrNotAuthorized
	}
	amount := l.funds
	if err := l.persist(nil, l.nextID, 0); err != nil {
		return 0, err
	}
	l.funds = 0
	logger.Info("funds withdrawn", "amount", amount, "to", caller)
	return amount, nil
}
