package state

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"claimdrop/native/airdrop"
	"claimdrop/storage"
)

var (
	claimedPrefix = []byte("airdrop/claimed/")
	balancePrefix = []byte("airdrop/balance/")

	totalClaimedKey = []byte("airdrop/total-claimed")
	merkleRootKey   = []byte("airdrop/merkle-root")
	pendingRootKey  = []byte("airdrop/pending-root")
	pausedKey       = []byte("airdrop/paused")
)

// Manager owns the portal's durable state: claim records, the aggregate
// total, the active root, the pending root update and the pause flag. All
// mutation funnels through the claim engine and the governor; nothing else
// writes these keys. Each method is a single atomic read or write against the
// underlying store.
type Manager struct {
	db storage.Database
}

// NewManager wraps a key-value backend in the portal state schema.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func claimedKey(account [20]byte) []byte {
	return append(append([]byte{}, claimedPrefix...), account[:]...)
}

func balanceKey(account [20]byte) []byte {
	return append(append([]byte{}, balancePrefix...), account[:]...)
}

// Claimed reports whether the account has already claimed.
func (m *Manager) Claimed(account [20]byte) (bool, error) {
	return m.db.Has(claimedKey(account))
}

// SetClaimed marks the account's claim record terminal. There is no inverse
// operation; records are never deleted.
func (m *Manager) SetClaimed(account [20]byte) error {
	return m.db.Put(claimedKey(account), []byte{0x01})
}

// TotalClaimed returns the aggregate amount claimed across all accounts.
func (m *Manager) TotalClaimed() (*uint256.Int, error) {
	return m.loadAmount(totalClaimedKey)
}

// SetTotalClaimed stores the aggregate claimed amount.
func (m *Manager) SetTotalClaimed(total *uint256.Int) error {
	return m.storeAmount(totalClaimedKey, total)
}

// MerkleRoot returns the active commitment root, or the zero element when no
// root has been installed yet.
func (m *Manager) MerkleRoot() (fr.Element, error) {
	raw, err := m.db.Get(merkleRootKey)
	if errors.Is(err, storage.ErrNotFound) {
		return fr.Element{}, nil
	}
	if err != nil {
		return fr.Element{}, err
	}
	var root fr.Element
	if err := root.SetBytesCanonical(raw); err != nil {
		return fr.Element{}, fmt.Errorf("state: corrupt merkle root: %w", err)
	}
	return root, nil
}

// HasMerkleRoot reports whether a root has ever been installed.
func (m *Manager) HasMerkleRoot() (bool, error) {
	return m.db.Has(merkleRootKey)
}

// SetMerkleRoot installs the active commitment root.
func (m *Manager) SetMerkleRoot(root fr.Element) error {
	buf := root.Bytes()
	return m.db.Put(merkleRootKey, buf[:])
}

type storedPendingRoot struct {
	Root         [32]byte
	ExecuteAfter uint64
}

// PendingRootUpdate returns the outstanding root proposal, if any.
func (m *Manager) PendingRootUpdate() (*airdrop.PendingRootUpdate, bool, error) {
	raw, err := m.db.Get(pendingRootKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	stored := &storedPendingRoot{}
	if err := rlp.DecodeBytes(raw, stored); err != nil {
		return nil, false, fmt.Errorf("state: corrupt pending root: %w", err)
	}
	pending := &airdrop.PendingRootUpdate{ExecuteAfter: int64(stored.ExecuteAfter)}
	if err := pending.Root.SetBytesCanonical(stored.Root[:]); err != nil {
		return nil, false, fmt.Errorf("state: corrupt pending root element: %w", err)
	}
	return pending, true, nil
}

// SetPendingRootUpdate stores a root proposal, overwriting any prior one.
func (m *Manager) SetPendingRootUpdate(update *airdrop.PendingRootUpdate) error {
	if update == nil {
		return fmt.Errorf("state: nil pending root update")
	}
	if update.ExecuteAfter < 0 {
		return fmt.Errorf("state: negative execute-after timestamp")
	}
	stored := &storedPendingRoot{ExecuteAfter: uint64(update.ExecuteAfter)}
	stored.Root = update.Root.Bytes()
	raw, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return fmt.Errorf("state: encode pending root: %w", err)
	}
	return m.db.Put(pendingRootKey, raw)
}

// ClearPendingRootUpdate empties the pending slot.
func (m *Manager) ClearPendingRootUpdate() error {
	return m.db.Delete(pendingRootKey)
}

// Paused reports whether the emergency stop is engaged.
func (m *Manager) Paused() (bool, error) {
	return m.db.Has(pausedKey)
}

// SetPaused toggles the emergency stop.
func (m *Manager) SetPaused(paused bool) error {
	if paused {
		return m.db.Put(pausedKey, []byte{0x01})
	}
	return m.db.Delete(pausedKey)
}

// Balance returns the account's credited balance.
func (m *Manager) Balance(account [20]byte) (*uint256.Int, error) {
	return m.loadAmount(balanceKey(account))
}

// SetBalance stores the account's credited balance.
func (m *Manager) SetBalance(account [20]byte, balance *uint256.Int) error {
	return m.storeAmount(balanceKey(account), balance)
}

func (m *Manager) loadAmount(key []byte) (*uint256.Int, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return uint256.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) > 32 {
		return nil, fmt.Errorf("state: amount wider than 256 bits at %q", key)
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func (m *Manager) storeAmount(key []byte, amount *uint256.Int) error {
	if amount == nil {
		return fmt.Errorf("state: nil amount at %q", key)
	}
	return m.db.Put(key, amount.Bytes())
}
