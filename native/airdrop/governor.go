package airdrop

import (
	"fmt"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"claimdrop/core/events"
)

// GovernorState describes the persistence the root governor and pause switch
// need from the surrounding state implementation.
type GovernorState interface {
	MerkleRoot() (fr.Element, error)
	SetMerkleRoot(root fr.Element) error
	PendingRootUpdate() (*PendingRootUpdate, bool, error)
	SetPendingRootUpdate(update *PendingRootUpdate) error
	ClearPendingRootUpdate() error
	Paused() (bool, error)
	SetPaused(paused bool) error
}

// Governor rotates the committed root behind a mandatory delay and drives the
// emergency pause switch. Authorisation is enforced at the transport
// boundary; the governor trusts its caller. The timelock is poll-driven: the
// pending update sits in state until some later ExecuteRootUpdate call finds
// its delay elapsed.
type Governor struct {
	mu      sync.Mutex
	state   GovernorState
	emitter events.Emitter
	nowFn   func() time.Time
	delay   time.Duration
}

// NewGovernor constructs a governor with default no-op dependencies.
func NewGovernor() *Governor {
	return &Governor{
		emitter: events.NoopEmitter{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// SetState wires the governor to the state backend.
func (g *Governor) SetState(state GovernorState) { g.state = state }

// SetEmitter configures the event emitter. Nil resets it to a no-op.
func (g *Governor) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		g.emitter = events.NoopEmitter{}
		return
	}
	g.emitter = emitter
}

// SetNowFunc overrides the time source. Nil restores the default UTC clock.
func (g *Governor) SetNowFunc(now func() time.Time) {
	if now == nil {
		g.nowFn = func() time.Time { return time.Now().UTC() }
		return
	}
	g.nowFn = now
}

// SetDelay configures the mandatory interval between propose and execute.
func (g *Governor) SetDelay(delay time.Duration) { g.delay = delay }

func (g *Governor) now() time.Time {
	if g.nowFn == nil {
		return time.Now().UTC()
	}
	return g.nowFn()
}

// ProposeRoot stages a replacement root to become executable after the
// configured delay. The zero root is rejected; a prior unexecuted proposal is
// overwritten.
func (g *Governor) ProposeRoot(newRoot fr.Element) (*PendingRootUpdate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == nil {
		return nil, errStateNotConfigured
	}
	if newRoot.IsZero() {
		return nil, ErrInvalidRoot
	}
	pending := &PendingRootUpdate{
		Root:         newRoot,
		ExecuteAfter: g.now().Add(g.delay).Unix(),
	}
	if err := g.state.SetPendingRootUpdate(pending); err != nil {
		return nil, fmt.Errorf("airdrop: store pending root: %w", err)
	}
	g.emit(events.AirdropRootProposed{Root: newRoot, ExecuteAfter: pending.ExecuteAfter})
	return pending.Clone(), nil
}

// ExecuteRootUpdate installs the pending root once its delay has elapsed and
// clears the pending slot. Executing at exactly ExecuteAfter succeeds.
func (g *Governor) ExecuteRootUpdate() (fr.Element, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == nil {
		return fr.Element{}, errStateNotConfigured
	}
	pending, ok, err := g.state.PendingRootUpdate()
	if err != nil {
		return fr.Element{}, fmt.Errorf("airdrop: read pending root: %w", err)
	}
	if !ok {
		return fr.Element{}, ErrNoPendingRoot
	}
	if g.now().Unix() < pending.ExecuteAfter {
		return fr.Element{}, ErrTimelockNotReady
	}
	oldRoot, err := g.state.MerkleRoot()
	if err != nil {
		return fr.Element{}, fmt.Errorf("airdrop: read merkle root: %w", err)
	}
	if err := g.state.SetMerkleRoot(pending.Root); err != nil {
		return fr.Element{}, fmt.Errorf("airdrop: install merkle root: %w", err)
	}
	if err := g.state.ClearPendingRootUpdate(); err != nil {
		return fr.Element{}, fmt.Errorf("airdrop: clear pending root: %w", err)
	}
	g.emit(events.AirdropRootUpdated{OldRoot: oldRoot, NewRoot: pending.Root})
	return pending.Root, nil
}

// PendingRoot exposes the outstanding proposal, if any.
func (g *Governor) PendingRoot() (*PendingRootUpdate, bool, error) {
	if g.state == nil {
		return nil, false, errStateNotConfigured
	}
	return g.state.PendingRootUpdate()
}

// Pause engages the emergency stop. It takes effect immediately and is
// idempotent; the event fires only on an actual transition.
func (g *Governor) Pause() error {
	return g.setPaused(true)
}

// Unpause releases the emergency stop.
func (g *Governor) Unpause() error {
	return g.setPaused(false)
}

func (g *Governor) setPaused(paused bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == nil {
		return errStateNotConfigured
	}
	current, err := g.state.Paused()
	if err != nil {
		return fmt.Errorf("airdrop: read pause flag: %w", err)
	}
	if current == paused {
		return nil
	}
	if err := g.state.SetPaused(paused); err != nil {
		return fmt.Errorf("airdrop: store pause flag: %w", err)
	}
	now := g.now().Unix()
	if paused {
		g.emit(events.AirdropPaused{Timestamp: now})
	} else {
		g.emit(events.AirdropUnpaused{Timestamp: now})
	}
	return nil
}

func (g *Governor) emit(event events.Event) {
	if g.emitter == nil {
		return
	}
	g.emitter.Emit(event)
}
