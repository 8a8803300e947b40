package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"

	"claimdrop/merkle"
)

// Storage backend selectors accepted by StorageBackend.
const (
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
	BackendMemory  = "memory"
)

type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	DataDir        string `toml:"DataDir"`
	StorageBackend string `toml:"StorageBackend"`

	// MerkleRoot is installed at first start when the state store carries no
	// root yet; later rotations go through the timelocked governor.
	MerkleRoot string `toml:"MerkleRoot"`

	// ClaimDeadline is the inclusive unix-seconds cutoff for claims.
	ClaimDeadline int64 `toml:"ClaimDeadline"`

	// MaxClaimAmount is the per-claim cap as a decimal string.
	MaxClaimAmount string `toml:"MaxClaimAmount"`

	// RootUpdateDelaySeconds is the mandatory timelock between proposing and
	// executing a root rotation.
	RootUpdateDelaySeconds int64 `toml:"RootUpdateDelaySeconds"`

	LogFile       string `toml:"LogFile"`
	LogMaxSizeMB  int    `toml:"LogMaxSizeMB"`
	LogMaxBackups int    `toml:"LogMaxBackups"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./claimdrop-data"
	}
	if strings.TrimSpace(cfg.StorageBackend) == "" {
		cfg.StorageBackend = BackendLevelDB
	}
	if cfg.LogMaxSizeMB == 0 {
		cfg.LogMaxSizeMB = 100
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:             "127.0.0.1:8645",
		DataDir:                "./claimdrop-data",
		StorageBackend:         BackendLevelDB,
		ClaimDeadline:          time.Now().UTC().AddDate(0, 3, 0).Unix(),
		MaxClaimAmount:         "1000000000000000000000",
		RootUpdateDelaySeconds: 86400,
		LogMaxSizeMB:           100,
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("config: create directory for %s: %w", path, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("config: create default %s: %w", path, err)
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, fmt.Errorf("config: write default %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the loaded values without touching the filesystem.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendLevelDB, BackendBolt, BackendMemory:
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.StorageBackend)
	}
	if c.ClaimDeadline <= 0 {
		return fmt.Errorf("config: ClaimDeadline must be a positive unix timestamp")
	}
	if c.RootUpdateDelaySeconds < 0 {
		return fmt.Errorf("config: RootUpdateDelaySeconds must not be negative")
	}
	if _, err := c.ParsedMaxClaimAmount(); err != nil {
		return err
	}
	if _, _, err := c.ParsedMerkleRoot(); err != nil {
		return err
	}
	return nil
}

// ParsedMaxClaimAmount parses the per-claim cap. An empty string means no cap.
func (c *Config) ParsedMaxClaimAmount() (*uint256.Int, error) {
	trimmed := strings.TrimSpace(c.MaxClaimAmount)
	if trimmed == "" {
		return nil, nil
	}
	amount, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("config: MaxClaimAmount: %w", err)
	}
	if amount.IsZero() {
		return nil, fmt.Errorf("config: MaxClaimAmount must be positive")
	}
	return amount, nil
}

// ParsedMerkleRoot parses the genesis root. The second return reports whether
// a root was configured at all.
func (c *Config) ParsedMerkleRoot() (fr.Element, bool, error) {
	trimmed := strings.TrimSpace(c.MerkleRoot)
	if trimmed == "" {
		return fr.Element{}, false, nil
	}
	root, err := merkle.ElementFromHex(trimmed)
	if err != nil {
		return fr.Element{}, false, fmt.Errorf("config: MerkleRoot: %w", err)
	}
	if root.IsZero() {
		return fr.Element{}, false, fmt.Errorf("config: MerkleRoot must not be zero")
	}
	return root, true, nil
}

// RootUpdateDelay returns the timelock delay as a duration.
func (c *Config) RootUpdateDelay() time.Duration {
	return time.Duration(c.RootUpdateDelaySeconds) * time.Second
}
