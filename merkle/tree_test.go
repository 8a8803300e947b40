package merkle

import (
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
)

func testAccount(i byte) [20]byte {
	var account [20]byte
	account[19] = i
	account[0] = 0x10 + i
	return account
}

func testEntries(n int) []Entry {
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{
			Account: testAccount(byte(i + 1)),
			Amount:  uint256.NewInt(uint64(1000 * (i + 1))),
		}
	}
	return entries
}

func TestLeafDeterministic(t *testing.T) {
	account := testAccount(7)
	amount := uint256.NewInt(4242)
	a := Leaf(account, amount)
	b := Leaf(account, amount)
	if !a.Equal(&b) {
		t.Fatalf("leaf is not deterministic")
	}
}

func TestCombineCommutative(t *testing.T) {
	var a, b fr.Element
	a.SetUint64(11)
	b.SetUint64(22)
	left := Combine(a, b)
	right := Combine(b, a)
	if !left.Equal(&right) {
		t.Fatalf("combine depends on argument order")
	}
}

func TestBuildRejectsEmpty(t *testing.T) {
	if _, err := Build(nil); !errors.Is(err, ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
}

func TestBuildRejectsDuplicateAccount(t *testing.T) {
	entries := testEntries(2)
	entries[1].Account = entries[0].Account
	if _, err := Build(entries); !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestBuildRejectsNilAmount(t *testing.T) {
	entries := testEntries(2)
	entries[1].Amount = nil
	if _, err := Build(entries); !errors.Is(err, ErrNilAmount) {
		t.Fatalf("expected ErrNilAmount, got %v", err)
	}
}

func TestSingleEntryRootEqualsLeaf(t *testing.T) {
	entries := testEntries(1)
	tree, err := Build(entries)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	leaf := Leaf(entries[0].Account, entries[0].Amount)
	root := tree.Root()
	if !root.Equal(&leaf) {
		t.Fatalf("single-entry root does not equal the leaf")
	}
	proof, ok := tree.Proof(entries[0].Account)
	if !ok {
		t.Fatalf("missing proof for the only entry")
	}
	if len(proof) != 0 {
		t.Fatalf("single-entry proof should be empty, got %d siblings", len(proof))
	}
	if !Verify(root, entries[0].Account, entries[0].Amount, nil) {
		t.Fatalf("empty proof did not verify against the leaf root")
	}
}

func TestRoundTripAllSizes(t *testing.T) {
	// Odd sizes exercise the self-duplication of unpaired trailing nodes.
	for n := 1; n <= 9; n++ {
		entries := testEntries(n)
		tree, err := Build(entries)
		if err != nil {
			t.Fatalf("build %d entries: %v", n, err)
		}
		for _, entry := range entries {
			proof, ok := tree.Proof(entry.Account)
			if !ok {
				t.Fatalf("n=%d: missing proof for %x", n, entry.Account)
			}
			if !Verify(tree.Root(), entry.Account, entry.Amount, proof) {
				t.Fatalf("n=%d: proof for %x did not verify", n, entry.Account)
			}
		}
	}
}

func TestTwoEntrySiblingIsOtherLeaf(t *testing.T) {
	entries := []Entry{
		{Account: testAccount(1), Amount: uint256.NewInt(1000)},
		{Account: testAccount(2), Amount: uint256.NewInt(2000)},
	}
	tree, err := Build(entries)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i, entry := range entries {
		proof, _ := tree.Proof(entry.Account)
		if len(proof) != 1 {
			t.Fatalf("expected one-element proof, got %d", len(proof))
		}
		other := entries[1-i]
		otherLeaf := Leaf(other.Account, other.Amount)
		if !proof[0].Equal(&otherLeaf) {
			t.Fatalf("entry %d sibling is not the other entry's leaf", i)
		}
	}
}

func TestFourEntryProofs(t *testing.T) {
	entries := testEntries(4)
	tree, err := Build(entries)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, entry := range entries {
		proof, _ := tree.Proof(entry.Account)
		if len(proof) != 2 {
			t.Fatalf("balanced four-leaf tree should yield two siblings, got %d", len(proof))
		}
		if !Verify(tree.Root(), entry.Account, entry.Amount, proof) {
			t.Fatalf("proof did not verify for %x", entry.Account)
		}
	}
}

func TestVerifyRejectsWrongAccountWithValidProof(t *testing.T) {
	entries := testEntries(4)
	tree, err := Build(entries)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// Another committed account's proof must not verify for my address.
	proof, _ := tree.Proof(entries[0].Account)
	if Verify(tree.Root(), entries[1].Account, entries[0].Amount, proof) {
		t.Fatalf("foreign proof verified for the wrong account")
	}
}

func TestVerifyTamperSensitivity(t *testing.T) {
	entries := testEntries(4)
	tree, err := Build(entries)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	root := tree.Root()
	entry := entries[2]
	proof, _ := tree.Proof(entry.Account)

	tamperedAmount := new(uint256.Int).AddUint64(entry.Amount, 1)
	if Verify(root, entry.Account, tamperedAmount, proof) {
		t.Fatalf("amount+1 still verified")
	}

	tamperedAccount := entry.Account
	tamperedAccount[19] ^= 0x01
	if Verify(root, tamperedAccount, entry.Amount, proof) {
		t.Fatalf("flipped account bit still verified")
	}

	for i := range proof {
		tampered := proof.Clone()
		var one fr.Element
		one.SetOne()
		tampered[i].Add(&tampered[i], &one)
		if Verify(root, entry.Account, entry.Amount, tampered) {
			t.Fatalf("tampered proof element %d still verified", i)
		}
	}
}

func TestVerifyRejectsOversizedProof(t *testing.T) {
	entries := testEntries(2)
	tree, err := Build(entries)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	oversized := make([]fr.Element, MaxProofLen+1)
	if Verify(tree.Root(), entries[0].Account, entries[0].Amount, oversized) {
		t.Fatalf("proof above the length bound verified")
	}
}

func TestProofCloneIsIndependent(t *testing.T) {
	entries := testEntries(4)
	tree, err := Build(entries)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	first, _ := tree.Proof(entries[0].Account)
	var one fr.Element
	one.SetOne()
	first[0].Add(&first[0], &one)
	second, _ := tree.Proof(entries[0].Account)
	if first[0].Equal(&second[0]) {
		t.Fatalf("mutating a returned proof leaked into the tree")
	}
}
