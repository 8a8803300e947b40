package airdrop

import (
	"fmt"

	"github.com/holiman/uint256"
)

// BalanceState is the slice of persistence the reference minter needs.
type BalanceState interface {
	Balance(account [20]byte) (*uint256.Int, error)
	SetBalance(account [20]byte, balance *uint256.Int) error
}

// BalanceMinter credits claimed amounts to per-account balances in the state
// store. It is the daemon's default Minter; deployments bridging to a real
// token substitute their own implementation.
type BalanceMinter struct {
	state BalanceState
}

// NewBalanceMinter wires a minter to the balance store.
func NewBalanceMinter(state BalanceState) *BalanceMinter {
	return &BalanceMinter{state: state}
}

// Mint adds amount to the account's balance.
func (m *BalanceMinter) Mint(account [20]byte, amount *uint256.Int) error {
	if m.state == nil {
		return errStateNotConfigured
	}
	if amount == nil {
		return ErrAmountZero
	}
	balance, err := m.state.Balance(account)
	if err != nil {
		return fmt.Errorf("airdrop: read balance: %w", err)
	}
	updated, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return fmt.Errorf("airdrop: balance overflow")
	}
	return m.state.SetBalance(account, updated)
}

// NoopMinter discards mint requests. Useful when the downstream transfer is
// handled out of band.
type NoopMinter struct{}

// Mint implements the Minter interface.
func (NoopMinter) Mint([20]byte, *uint256.Int) error { return nil }
