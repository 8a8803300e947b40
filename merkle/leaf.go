package merkle

import (
	"hash"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/holiman/uint256"
)

// Leaf computes the commitment leaf for one (account, amount) pair:
// MiMC(account, amount_lo, amount_hi). Identical inputs always produce the
// identical leaf.
func Leaf(account [20]byte, amount *uint256.Int) fr.Element {
	h := mimc.NewMiMC()
	acct := AccountElement(account)
	lo, hi := AmountLimbs(amount)
	writeElement(h, acct)
	writeElement(h, lo)
	writeElement(h, hi)
	return sumElement(h)
}

// Combine folds two sibling nodes into their parent using sorted-pair
// hashing: the smaller encoding is hashed first, so proof verification needs
// an ordered sibling list but no left/right positions.
func Combine(a fr.Element, b fr.Element) fr.Element {
	if a.Cmp(&b) > 0 {
		a, b = b, a
	}
	h := mimc.NewMiMC()
	writeElement(h, a)
	writeElement(h, b)
	return sumElement(h)
}

func writeElement(h hash.Hash, fe fr.Element) {
	// Canonical element encodings never fail the hasher's field check.
	buf := fe.Bytes()
	_, _ = h.Write(buf[:])
}

func sumElement(h hash.Hash) fr.Element {
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}
