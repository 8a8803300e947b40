package merkle

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
	"lukechampine.com/blake3"

	"claimdrop/crypto"
)

var (
	// ErrChecksumMismatch is returned when a loaded document's checksum does
	// not match its payload.
	ErrChecksumMismatch = errors.New("merkle: distribution checksum mismatch")
	// ErrProofMismatch is returned when an embedded proof does not fold to
	// the document root.
	ErrProofMismatch = errors.New("merkle: distribution proof does not match root")
)

// Distribution is the off-chain artifact handed to claimants: the committed
// root and, per account, the amount and sibling path needed to claim. The
// document needs integrity, not confidentiality, so it carries a BLAKE3
// checksum over its payload for mirrors to check against.
type Distribution struct {
	Root     string              `json:"root"`
	Entries  []DistributionEntry `json:"entries"`
	Checksum string              `json:"checksum,omitempty"`
}

// DistributionEntry is one claimant's row.
type DistributionEntry struct {
	Account string   `json:"account"`
	Amount  string   `json:"amount"`
	Proof   []string `json:"proof"`
}

// NewDistribution renders a built tree and its source entries into the
// portable document form, sealing it with a fresh checksum.
func NewDistribution(tree *Tree, entries []Entry) (*Distribution, error) {
	if tree == nil {
		return nil, fmt.Errorf("merkle: nil tree")
	}
	doc := &Distribution{
		Root:    ElementToHex(tree.Root()),
		Entries: make([]DistributionEntry, 0, len(entries)),
	}
	for i, entry := range entries {
		if entry.Amount == nil {
			return nil, ErrNilAmount
		}
		proof, ok := tree.Proof(entry.Account)
		if !ok {
			return nil, fmt.Errorf("merkle: entry %d not committed in tree", i)
		}
		encoded := make([]string, len(proof))
		for j, sibling := range proof {
			encoded[j] = ElementToHex(sibling)
		}
		doc.Entries = append(doc.Entries, DistributionEntry{
			Account: crypto.MustNewAddress(crypto.PortalPrefix, entry.Account[:]).String(),
			Amount:  entry.Amount.Dec(),
			Proof:   encoded,
		})
	}
	if err := doc.seal(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *Distribution) payload() ([]byte, error) {
	clone := *d
	clone.Checksum = ""
	return json.Marshal(&clone)
}

func (d *Distribution) seal() error {
	payload, err := d.payload()
	if err != nil {
		return fmt.Errorf("merkle: seal distribution: %w", err)
	}
	sum := blake3.Sum256(payload)
	d.Checksum = hex.EncodeToString(sum[:])
	return nil
}

// VerifyChecksum recomputes the payload checksum and compares it to the
// stored one.
func (d *Distribution) VerifyChecksum() error {
	payload, err := d.payload()
	if err != nil {
		return fmt.Errorf("merkle: distribution payload: %w", err)
	}
	sum := blake3.Sum256(payload)
	if hex.EncodeToString(sum[:]) != d.Checksum {
		return ErrChecksumMismatch
	}
	return nil
}

// Verify checks every embedded proof against the document root, so a mirror
// can validate a served document end-to-end before exposing it to claimants.
func (d *Distribution) Verify() error {
	root, err := ElementFromHex(d.Root)
	if err != nil {
		return fmt.Errorf("merkle: distribution root: %w", err)
	}
	for i := range d.Entries {
		account, amount, proof, err := d.Entries[i].Decode()
		if err != nil {
			return fmt.Errorf("merkle: distribution entry %d: %w", i, err)
		}
		if !Verify(root, account, amount, proof) {
			return fmt.Errorf("%w: entry %d (%s)", ErrProofMismatch, i, d.Entries[i].Account)
		}
	}
	return nil
}

// Decode parses the entry's wire fields back into their domain types.
func (e *DistributionEntry) Decode() ([20]byte, *uint256.Int, []fr.Element, error) {
	addr, err := crypto.DecodeAddress(e.Account)
	if err != nil {
		return [20]byte{}, nil, nil, fmt.Errorf("account: %w", err)
	}
	amount, err := uint256.FromDecimal(e.Amount)
	if err != nil {
		return [20]byte{}, nil, nil, fmt.Errorf("amount: %w", err)
	}
	proof := make([]fr.Element, len(e.Proof))
	for i, sibling := range e.Proof {
		element, err := ElementFromHex(sibling)
		if err != nil {
			return [20]byte{}, nil, nil, fmt.Errorf("proof element %d: %w", i, err)
		}
		proof[i] = element
	}
	return addr.Fixed(), amount, proof, nil
}

// WriteFile seals the document (refreshing its checksum) and writes it as
// indented JSON.
func (d *Distribution) WriteFile(path string) error {
	if err := d.seal(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("merkle: encode distribution: %w", err)
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("merkle: write distribution: %w", err)
	}
	return nil
}

// LoadDistribution reads a document and fully validates it: checksum first,
// then every embedded proof against the document root.
func LoadDistribution(path string) (*Distribution, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("merkle: read distribution: %w", err)
	}
	doc := &Distribution{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("merkle: decode distribution: %w", err)
	}
	if err := doc.VerifyChecksum(); err != nil {
		return nil, err
	}
	if err := doc.Verify(); err != nil {
		return nil, err
	}
	return doc, nil
}
