package events

import (
	"strconv"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"

	"claimdrop/crypto"
	"claimdrop/merkle"
)

const (
	TypeAirdropClaimed      = "airdrop.claimed"
	TypeAirdropRootProposed = "airdrop.root_proposed"
	TypeAirdropRootUpdated  = "airdrop.root_updated"
	TypeAirdropPaused       = "airdrop.paused"
	TypeAirdropUnpaused     = "airdrop.unpaused"
)

// AirdropClaimed is emitted once per account, after the claim has been
// recorded and the mint collaborator invoked.
type AirdropClaimed struct {
	Account   [20]byte
	Amount    *uint256.Int
	Timestamp int64
}

func (AirdropClaimed) EventType() string { return TypeAirdropClaimed }

func (e AirdropClaimed) Record() *Record {
	return &Record{
		Type: TypeAirdropClaimed,
		Attributes: map[string]string{
			"account":   crypto.MustNewAddress(crypto.PortalPrefix, e.Account[:]).String(),
			"amount":    formatAmount(e.Amount),
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// AirdropRootProposed is emitted when a root rotation enters the timelock.
type AirdropRootProposed struct {
	Root         fr.Element
	ExecuteAfter int64
}

func (AirdropRootProposed) EventType() string { return TypeAirdropRootProposed }

func (e AirdropRootProposed) Record() *Record {
	return &Record{
		Type: TypeAirdropRootProposed,
		Attributes: map[string]string{
			"root":         merkle.ElementToHex(e.Root),
			"executeAfter": strconv.FormatInt(e.ExecuteAfter, 10),
		},
	}
}

// AirdropRootUpdated is emitted when a pending root rotation is executed.
type AirdropRootUpdated struct {
	OldRoot fr.Element
	NewRoot fr.Element
}

func (AirdropRootUpdated) EventType() string { return TypeAirdropRootUpdated }

func (e AirdropRootUpdated) Record() *Record {
	return &Record{
		Type: TypeAirdropRootUpdated,
		Attributes: map[string]string{
			"oldRoot": merkle.ElementToHex(e.OldRoot),
			"newRoot": merkle.ElementToHex(e.NewRoot),
		},
	}
}

// AirdropPaused is emitted when the emergency stop engages.
type AirdropPaused struct {
	Timestamp int64
}

func (AirdropPaused) EventType() string { return TypeAirdropPaused }

func (e AirdropPaused) Record() *Record {
	return &Record{
		Type: TypeAirdropPaused,
		Attributes: map[string]string{
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// AirdropUnpaused is emitted when the emergency stop releases.
type AirdropUnpaused struct {
	Timestamp int64
}

func (AirdropUnpaused) EventType() string { return TypeAirdropUnpaused }

func (e AirdropUnpaused) Record() *Record {
	return &Record{
		Type: TypeAirdropUnpaused,
		Attributes: map[string]string{
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

func formatAmount(amount *uint256.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.Dec()
}
