package merkle

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// The commitment scheme operates on BN254 scalar field elements. Accounts fit
// in one element; 256-bit amounts do not, so they are split into two 128-bit
// limbs before hashing and recombined only for display.

// AccountElement encodes a 20-byte account address as a single field element.
func AccountElement(account [20]byte) fr.Element {
	var fe fr.Element
	fe.SetBytes(account[:])
	return fe
}

// AmountLimbs splits a 256-bit amount into its low and high 128-bit limbs.
func AmountLimbs(amount *uint256.Int) (lo fr.Element, hi fr.Element) {
	var value uint256.Int
	if amount != nil {
		value.Set(amount)
	}
	buf := value.Bytes32()
	lo.SetBytes(buf[16:])
	hi.SetBytes(buf[:16])
	return lo, hi
}

// JoinLimbs recombines two 128-bit limbs into the amount they encode. It
// rejects limbs wider than 128 bits, which cannot have come from AmountLimbs.
func JoinLimbs(lo fr.Element, hi fr.Element) (*uint256.Int, error) {
	loBytes := lo.Bytes()
	hiBytes := hi.Bytes()
	for _, b := range loBytes[:16] {
		if b != 0 {
			return nil, fmt.Errorf("merkle: low limb exceeds 128 bits")
		}
	}
	for _, b := range hiBytes[:16] {
		if b != 0 {
			return nil, fmt.Errorf("merkle: high limb exceeds 128 bits")
		}
	}
	var buf [32]byte
	copy(buf[:16], hiBytes[16:])
	copy(buf[16:], loBytes[16:])
	return new(uint256.Int).SetBytes(buf[:]), nil
}

// ElementToHex renders a field element as a 0x-prefixed 32-byte big-endian
// string, the wire form used by the RPC surface and the distribution document.
func ElementToHex(fe fr.Element) string {
	buf := fe.Bytes()
	return hexutil.Encode(buf[:])
}

// ElementFromHex parses the wire form back into a field element. Inputs must
// be exactly 32 bytes and canonical (strictly below the field modulus).
func ElementFromHex(s string) (fr.Element, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return fr.Element{}, fmt.Errorf("merkle: decode field element: %w", err)
	}
	if len(raw) != fr.Bytes {
		return fr.Element{}, fmt.Errorf("merkle: field element must be %d bytes, got %d", fr.Bytes, len(raw))
	}
	var fe fr.Element
	if err := fe.SetBytesCanonical(raw); err != nil {
		return fr.Element{}, fmt.Errorf("merkle: non-canonical field element: %w", err)
	}
	return fe, nil
}
