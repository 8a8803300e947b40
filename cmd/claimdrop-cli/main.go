package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"claimdrop/crypto"
	"claimdrop/merkle"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "verify":
		err = runVerify(os.Args[2:])
	case "proof":
		err = runProof(os.Args[2:])
	case "keygen":
		err = runKeygen(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`claimdrop-cli manages airdrop distribution documents.

Usage:
  claimdrop-cli build -entries <file> -out <file>   build a distribution from an entries file
  claimdrop-cli verify -dist <file>                 verify a distribution document
  claimdrop-cli proof -dist <file> -account <addr>  print one account's claim parameters
  claimdrop-cli keygen                              generate a portal keypair`)
}

// entryInput is one row of the entries file. Addresses are bech32 strings and
// amounts are decimal strings so the same file works as JSON or YAML.
type entryInput struct {
	Account string `json:"account" yaml:"account"`
	Amount  string `json:"amount" yaml:"amount"`
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	entriesPath := fs.String("entries", "", "entries file (.json or .yaml)")
	outPath := fs.String("out", "distribution.json", "output distribution document")
	fs.Parse(args)
	if *entriesPath == "" {
		return fmt.Errorf("-entries is required")
	}

	entries, err := loadEntries(*entriesPath)
	if err != nil {
		return err
	}
	tree, err := merkle.Build(entries)
	if err != nil {
		return err
	}
	dist, err := merkle.NewDistribution(tree, entries)
	if err != nil {
		return err
	}
	if err := dist.WriteFile(*outPath); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", *outPath)
	fmt.Printf("Entries: %d\n", tree.Len())
	fmt.Printf("Root:    %s\n", merkle.ElementToHex(tree.Root()))
	fmt.Printf("Checksum: %s\n", dist.Checksum)
	return nil
}

func loadEntries(path string) ([]merkle.Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rows []entryInput
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s contains no entries", path)
	}

	entries := make([]merkle.Entry, len(rows))
	for i, row := range rows {
		addr, err := crypto.DecodeAddress(row.Account)
		if err != nil {
			return nil, fmt.Errorf("entry %d: account: %w", i, err)
		}
		amount, err := uint256.FromDecimal(strings.TrimSpace(row.Amount))
		if err != nil {
			return nil, fmt.Errorf("entry %d: amount: %w", i, err)
		}
		entries[i] = merkle.Entry{Account: addr.Fixed(), Amount: amount}
	}
	return entries, nil
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	distPath := fs.String("dist", "distribution.json", "distribution document")
	fs.Parse(args)

	dist, err := merkle.LoadDistribution(*distPath)
	if err != nil {
		return err
	}
	if err := dist.Verify(); err != nil {
		return err
	}
	fmt.Printf("OK: %d entries, root %s\n", len(dist.Entries), dist.Root)
	return nil
}

func runProof(args []string) error {
	fs := flag.NewFlagSet("proof", flag.ExitOnError)
	distPath := fs.String("dist", "distribution.json", "distribution document")
	account := fs.String("account", "", "bech32 account address")
	fs.Parse(args)
	if *account == "" {
		return fmt.Errorf("-account is required")
	}

	dist, err := merkle.LoadDistribution(*distPath)
	if err != nil {
		return err
	}
	if err := dist.VerifyChecksum(); err != nil {
		return err
	}
	for i := range dist.Entries {
		if dist.Entries[i].Account == *account {
			out, err := json.MarshalIndent(dist.Entries[i], "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}
	}
	return fmt.Errorf("account %s not found in %s", *account, *distPath)
}

func runKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	fs.Parse(args)

	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	fmt.Printf("Address:     %s\n", key.PubKey().Address().String())
	fmt.Printf("Private key: %s\n", hex.EncodeToString(key.Bytes()))
	return nil
}
