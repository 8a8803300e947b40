package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"claimdrop/config"
	"claimdrop/core/state"
	"claimdrop/native/airdrop"
	"claimdrop/observability"
	"claimdrop/observability/logging"
	"claimdrop/rpc"
	"claimdrop/storage"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./config.toml", "path to config file")
	env := flag.String("env", envOrDefault("CLAIMDROP_ENV", "development"), "deployment environment tag")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("claimdropd", *env, logging.Options{
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Error("open storage", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	if err := installGenesisRoot(cfg, manager); err != nil {
		logger.Error("install genesis root", "error", err)
		os.Exit(1)
	}

	maxClaim, err := cfg.ParsedMaxClaimAmount()
	if err != nil {
		logger.Error("parse max claim amount", "error", err)
		os.Exit(1)
	}

	sink := observability.NewEventSink(logger)

	engine := airdrop.NewEngine()
	engine.SetState(manager)
	engine.SetMinter(airdrop.NewBalanceMinter(manager))
	engine.SetEmitter(sink)
	engine.SetConfig(airdrop.PortalConfig{
		ClaimDeadline:  cfg.ClaimDeadline,
		MaxClaimAmount: maxClaim,
	})

	governor := airdrop.NewGovernor()
	governor.SetState(manager)
	governor.SetDelay(cfg.RootUpdateDelay())
	governor.SetEmitter(sink)

	server := rpc.NewServer(engine, governor, logger)
	logger.Info("claim portal started",
		"rpc", cfg.RPCAddress,
		"backend", cfg.StorageBackend,
		"deadline", cfg.ClaimDeadline,
	)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", "error", err)
		os.Exit(1)
	}
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return storage.NewMemDB(), nil
	case config.BackendBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "portal.db"))
	default:
		return storage.NewLevelDB(cfg.DataDir)
	}
}

// installGenesisRoot installs the configured root once, on first start against
// an empty state store. Later rotations always go through the governor.
func installGenesisRoot(cfg *config.Config, manager *state.Manager) error {
	root, ok, err := cfg.ParsedMerkleRoot()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	has, err := manager.HasMerkleRoot()
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	return manager.SetMerkleRoot(root)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
