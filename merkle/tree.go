package merkle

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
)

var (
	// ErrNoEntries is returned when building a tree from an empty snapshot;
	// the commitment would be ill-defined.
	ErrNoEntries = errors.New("merkle: cannot build a tree from zero entries")
	// ErrDuplicateAccount is returned when the snapshot lists an account twice.
	ErrDuplicateAccount = errors.New("merkle: duplicate account in entries")
	// ErrNilAmount is returned when an entry carries no amount.
	ErrNilAmount = errors.New("merkle: entry amount must not be nil")
)

// Entry is one (account, amount) row of the eligibility snapshot.
type Entry struct {
	Account [20]byte
	Amount  *uint256.Int
}

// Proof is the ordered sibling path from a leaf to the root.
type Proof []fr.Element

// Clone returns an independent copy of the proof.
func (p Proof) Clone() Proof {
	if p == nil {
		return nil
	}
	out := make(Proof, len(p))
	copy(out, p)
	return out
}

// Tree is the off-line build artifact: the root plus one sibling path per
// committed account. Interior nodes are discarded once the paths are
// recorded; only the root is ever installed on the serving side.
type Tree struct {
	root   fr.Element
	proofs map[[20]byte]Proof
}

// Build computes all leaves and folds them bottom-up into a root, recording
// each leaf's sibling path along the way. A single-entry snapshot degenerates
// to root == leaf with an empty proof. At every level an unpaired trailing
// node is paired with itself, never with a zero sentinel, so a verifier
// cannot be fed a forged phantom sibling.
func Build(entries []Entry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	leaves := make([]fr.Element, len(entries))
	index := make(map[[20]byte]int, len(entries))
	for i, entry := range entries {
		if entry.Amount == nil {
			return nil, ErrNilAmount
		}
		if _, seen := index[entry.Account]; seen {
			return nil, fmt.Errorf("%w: index %d", ErrDuplicateAccount, i)
		}
		index[entry.Account] = i
		leaves[i] = Leaf(entry.Account, entry.Amount)
	}

	paths := make([]Proof, len(entries))
	pos := make([]int, len(entries))
	for i := range pos {
		pos[i] = i
	}

	level := make([]fr.Element, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		for leafIdx := range paths {
			p := pos[leafIdx]
			paths[leafIdx] = append(paths[leafIdx], level[p^1])
			pos[leafIdx] = p / 2
		}
		next := make([]fr.Element, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = Combine(level[i], level[i+1])
		}
		level = next
	}

	proofs := make(map[[20]byte]Proof, len(entries))
	for account, i := range index {
		proofs[account] = paths[i]
	}
	return &Tree{root: level[0], proofs: proofs}, nil
}

// Root returns the single field element committing to the whole snapshot.
func (t *Tree) Root() fr.Element {
	return t.root
}

// Proof returns the sibling path recorded for the account, if committed.
func (t *Tree) Proof(account [20]byte) (Proof, bool) {
	proof, ok := t.proofs[account]
	if !ok {
		return nil, false
	}
	return proof.Clone(), true
}

// Len reports the number of committed accounts.
func (t *Tree) Len() int {
	return len(t.proofs)
}
