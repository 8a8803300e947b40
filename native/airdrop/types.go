package airdrop

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
)

// PortalConfig carries the claim window parameters fixed at initialisation.
// The deadline is inclusive: a claim landing exactly at the deadline still
// succeeds. MaxClaimAmount caps a single claim's amount, not the cumulative
// amount per account; the two coincide only because claims are exactly-once.
type PortalConfig struct {
	ClaimDeadline  int64
	MaxClaimAmount *uint256.Int
}

// PendingRootUpdate holds a proposed replacement root and the time at which
// it becomes executable. At most one update is outstanding at a time; a new
// proposal overwrites an unexecuted one.
type PendingRootUpdate struct {
	Root         fr.Element
	ExecuteAfter int64
}

// Clone returns an independent copy of the pending update.
func (p *PendingRootUpdate) Clone() *PendingRootUpdate {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
