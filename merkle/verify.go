package merkle

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
)

// MaxProofLen caps the number of siblings a proof may carry. The bound is a
// safety limit independent of any actual tree height: it keeps verification
// cost fixed no matter how the proof was produced. Oversized proofs are
// rejected before any hashing happens.
const MaxProofLen = 32

// Verify recomputes the leaf for (account, amount) and folds the sibling path
// up with sorted-pair hashing, reporting whether the result equals root.
func Verify(root fr.Element, account [20]byte, amount *uint256.Int, proof []fr.Element) bool {
	if len(proof) > MaxProofLen {
		return false
	}
	candidate := Leaf(account, amount)
	for i := range proof {
		candidate = Combine(candidate, proof[i])
	}
	return candidate.Equal(&root)
}
