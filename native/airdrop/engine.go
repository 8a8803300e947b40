package airdrop

import (
	"fmt"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"

	"claimdrop/core/events"
	"claimdrop/merkle"
)

// PortalState describes the minimal persistence the claim engine needs from
// the surrounding state implementation. Each method is an atomic read or
// write; the engine's own lock serialises the multi-step claim transaction.
type PortalState interface {
	Paused() (bool, error)
	Claimed(account [20]byte) (bool, error)
	SetClaimed(account [20]byte) error
	TotalClaimed() (*uint256.Int, error)
	SetTotalClaimed(total *uint256.Int) error
	MerkleRoot() (fr.Element, error)
}

// Minter is the external mint/transfer collaborator invoked after a claim has
// been recorded. The engine calls it exactly once per successful claim and
// never retries it.
type Minter interface {
	Mint(account [20]byte, amount *uint256.Int) error
}

// Engine orchestrates one claim request end to end: guard checks, registry
// mutation, commitment verification and delegation to the minter, in
// checks-effects-interactions order. Marking the account claimed strictly
// before the external call means a re-entrant or retried invocation can never
// claim twice.
type Engine struct {
	mu       sync.Mutex
	state    PortalState
	minter   Minter
	emitter  events.Emitter
	nowFn    func() time.Time
	deadline int64
	maxClaim *uint256.Int
}

// NewEngine constructs a claim engine with default no-op dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// SetState wires the engine to the state backend providing persistence.
func (e *Engine) SetState(state PortalState) { e.state = state }

// SetMinter configures the mint/transfer collaborator. Nil disables minting,
// which is only appropriate in tests.
func (e *Engine) SetMinter(minter Minter) { e.minter = minter }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deadline checks. Nil restores
// the default UTC clock.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		e.nowFn = func() time.Time { return time.Now().UTC() }
		return
	}
	e.nowFn = now
}

// SetConfig installs the immutable claim window parameters.
func (e *Engine) SetConfig(cfg PortalConfig) {
	e.deadline = cfg.ClaimDeadline
	if cfg.MaxClaimAmount != nil {
		e.maxClaim = new(uint256.Int).Set(cfg.MaxClaimAmount)
	} else {
		e.maxClaim = nil
	}
}

func (e *Engine) now() time.Time {
	if e.nowFn == nil {
		return time.Now().UTC()
	}
	return e.nowFn()
}

// Claim processes a claim for the caller account. All guards run before any
// mutation; a failing guard aborts with a distinguishable error and no state
// change. On success the claim record and aggregate total are updated, the
// minter is invoked last, and a claim event is emitted.
func (e *Engine) Claim(caller [20]byte, amount *uint256.Int, proof []fr.Element) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return errStateNotConfigured
	}

	// Checks.
	paused, err := e.state.Paused()
	if err != nil {
		return fmt.Errorf("airdrop: read pause flag: %w", err)
	}
	if paused {
		return ErrPortalPaused
	}
	if len(proof) > merkle.MaxProofLen {
		return ErrProofTooLong
	}
	claimed, err := e.state.Claimed(caller)
	if err != nil {
		return fmt.Errorf("airdrop: read claim record: %w", err)
	}
	if claimed {
		return ErrAlreadyClaimed
	}
	now := e.now().Unix()
	if now > e.deadline {
		return ErrClaimPeriodEnded
	}
	if amount == nil || amount.IsZero() {
		return ErrAmountZero
	}
	if e.maxClaim != nil && amount.Gt(e.maxClaim) {
		return ErrMaxAmountExceeded
	}
	root, err := e.state.MerkleRoot()
	if err != nil {
		return fmt.Errorf("airdrop: read merkle root: %w", err)
	}
	if !merkle.Verify(root, caller, amount, proof) {
		return ErrInvalidProof
	}

	// Effects.
	if err := e.state.SetClaimed(caller); err != nil {
		return fmt.Errorf("airdrop: record claim: %w", err)
	}
	total, err := e.state.TotalClaimed()
	if err != nil {
		return fmt.Errorf("airdrop: read total claimed: %w", err)
	}
	updated, overflow := new(uint256.Int).AddOverflow(total, amount)
	if overflow {
		return fmt.Errorf("airdrop: total claimed overflow")
	}
	if err := e.state.SetTotalClaimed(updated); err != nil {
		return fmt.Errorf("airdrop: record total claimed: %w", err)
	}

	// Interactions.
	if e.minter != nil {
		if err := e.minter.Mint(caller, amount); err != nil {
			return fmt.Errorf("airdrop: mint: %w", err)
		}
	}
	e.emit(events.AirdropClaimed{
		Account:   caller,
		Amount:    new(uint256.Int).Set(amount),
		Timestamp: now,
	})
	return nil
}

// GetClaimable is a read-only probe: it reports whether a claim for
// (account, amount, proof) would pass the commitment checks, without touching
// the deadline, cap or pause guards and without mutating state.
func (e *Engine) GetClaimable(account [20]byte, amount *uint256.Int, proof []fr.Element) (bool, error) {
	if e.state == nil {
		return false, errStateNotConfigured
	}
	claimed, err := e.state.Claimed(account)
	if err != nil {
		return false, fmt.Errorf("airdrop: read claim record: %w", err)
	}
	if claimed {
		return false, nil
	}
	root, err := e.state.MerkleRoot()
	if err != nil {
		return false, fmt.Errorf("airdrop: read merkle root: %w", err)
	}
	return merkle.Verify(root, account, amount, proof), nil
}

// IsClaimed reports whether the account's claim record is terminal.
func (e *Engine) IsClaimed(account [20]byte) (bool, error) {
	if e.state == nil {
		return false, errStateNotConfigured
	}
	return e.state.Claimed(account)
}

// MerkleRoot returns the active commitment root.
func (e *Engine) MerkleRoot() (fr.Element, error) {
	if e.state == nil {
		return fr.Element{}, errStateNotConfigured
	}
	return e.state.MerkleRoot()
}

// TotalClaimed returns the aggregate amount claimed across all accounts.
func (e *Engine) TotalClaimed() (*uint256.Int, error) {
	if e.state == nil {
		return nil, errStateNotConfigured
	}
	return e.state.TotalClaimed()
}

// Config returns the configured claim window parameters.
func (e *Engine) Config() PortalConfig {
	cfg := PortalConfig{ClaimDeadline: e.deadline}
	if e.maxClaim != nil {
		cfg.MaxClaimAmount = new(uint256.Int).Set(e.maxClaim)
	}
	return cfg
}

func (e *Engine) emit(event events.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}
