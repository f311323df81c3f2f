package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Bukola-tech/smart-contracts/crypto"
)

// Storage backend selectors accepted in StorageBackend.
const (
	BackendMemory  = "memory"
	BackendBolt    = "bolt"
	BackendLevelDB = "leveldb"
)

// EscrowConfig names the default escrow parties the CLI operates on. The
// addresses are bech32; Deadline is advisory unix seconds.
type EscrowConfig struct {
	Approver  string `toml:"Approver"`
	Requester string `toml:"Requester"`
	Deadline  int64  `toml:"Deadline"`
}

type Config struct {
	DataDir        string       `toml:"DataDir"`
	StorageBackend string       `toml:"StorageBackend"`
	LogEnv         string       `toml:"LogEnv"`
	LogFile        string       `toml:"LogFile"`
	Escrow         EscrowConfig `toml:"escrow"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./escrow-data"
	}
	if strings.TrimSpace(cfg.StorageBackend) == "" {
		cfg.StorageBackend = BackendBolt
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend selection and, when both parties are configured,
// that the addresses decode and are distinct. The engine itself assumes the
// approver/requester split is set up correctly at this boundary.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendBolt, BackendLevelDB:
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.Escrow.Deadline < 0 {
		return fmt.Errorf("escrow deadline must not be negative")
	}
	approver := strings.TrimSpace(c.Escrow.Approver)
	requester := strings.TrimSpace(c.Escrow.Requester)
	if approver == "" && requester == "" {
		return nil
	}
	a, err := crypto.DecodeAddress(approver)
	if err != nil {
		return fmt.Errorf("escrow approver: %w", err)
	}
	r, err := crypto.DecodeAddress(requester)
	if err != nil {
		return fmt.Errorf("escrow requester: %w", err)
	}
	if a.Equal(r) {
		return fmt.Errorf("escrow approver and requester must be distinct identities")
	}
	return nil
}
