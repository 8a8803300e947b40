package merkle

import (
	"strings"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
)

func TestAmountLimbsRoundTrip(t *testing.T) {
	cases := []string{
		"0",
		"1",
		"1000",
		"340282366920938463463374607431768211455",  // 2^128 - 1, low limb full
		"340282366920938463463374607431768211456",  // 2^128, first high-limb value
		"115792089237316195423570985008687907853269984665640564039457584007913129639935", // 2^256 - 1
	}
	for _, tc := range cases {
		amount, err := uint256.FromDecimal(tc)
		if err != nil {
			t.Fatalf("parse %q: %v", tc, err)
		}
		lo, hi := AmountLimbs(amount)
		joined, err := JoinLimbs(lo, hi)
		if err != nil {
			t.Fatalf("join limbs of %q: %v", tc, err)
		}
		if !joined.Eq(amount) {
			t.Fatalf("limb round trip of %q yielded %s", tc, joined.Dec())
		}
	}
}

func TestJoinLimbsRejectsWideLimbs(t *testing.T) {
	var wide fr.Element
	wide.SetString("340282366920938463463374607431768211456") // 2^128
	var zero fr.Element
	if _, err := JoinLimbs(wide, zero); err == nil {
		t.Fatalf("expected error for oversized low limb")
	}
	if _, err := JoinLimbs(zero, wide); err == nil {
		t.Fatalf("expected error for oversized high limb")
	}
}

func TestAccountElementDeterministic(t *testing.T) {
	var account [20]byte
	account[0] = 0xab
	account[19] = 0x01
	a := AccountElement(account)
	b := AccountElement(account)
	if !a.Equal(&b) {
		t.Fatalf("same account encoded to different elements")
	}
	account[19] = 0x02
	c := AccountElement(account)
	if a.Equal(&c) {
		t.Fatalf("distinct accounts encoded to the same element")
	}
}

func TestElementHexRoundTrip(t *testing.T) {
	var fe fr.Element
	fe.SetUint64(123456789)
	encoded := ElementToHex(fe)
	decoded, err := ElementFromHex(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Equal(&fe) {
		t.Fatalf("hex round trip mismatch")
	}
}

func TestElementFromHexRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"0x",
		"0x01",      // short
		"not-hex",   // no prefix
		"0x" + strings.Repeat("ff", 32), // above the field modulus
	}
	for _, tc := range cases {
		if _, err := ElementFromHex(tc); err == nil {
			t.Fatalf("expected error for %q", tc)
		}
	}
}
