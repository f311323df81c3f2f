package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Bukola-tech/smart-contracts/crypto"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadCreatesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageBackend != BackendBolt {
		t.Fatalf("default backend %q", cfg.StorageBackend)
	}
	if cfg.DataDir == "" {
		t.Fatalf("default data dir empty")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	// Loading the freshly written default must round-trip.
	if _, err := Load(path); err != nil {
		t.Fatalf("reload default: %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "LogEnv = \"dev\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageBackend != BackendBolt {
		t.Fatalf("backend default not applied: %q", cfg.StorageBackend)
	}
	if cfg.LogEnv != "dev" {
		t.Fatalf("log env %q", cfg.LogEnv)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "StorageBackend = \"postgres\"\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("unknown backend accepted")
	}
}

func TestValidateEscrowParties(t *testing.T) {
	cfg := &Config{StorageBackend: BackendMemory}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty parties should validate: %v", err)
	}

	cfg.Escrow.Approver = "not-bech32"
	cfg.Escrow.Requester = "also-not"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("bad addresses accepted")
	}

	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = 0xAB
	}
	addr := crypto.NewAddress(crypto.PayPrefix, raw).String()

	// Identical approver and requester must be rejected at this boundary.
	cfg.Escrow.Approver = addr
	cfg.Escrow.Requester = addr
	if err := cfg.Validate(); err == nil {
		t.Fatalf("identical parties accepted")
	}

	other := make([]byte, 20)
	for i := range other {
		other[i] = 0xCD
	}
	cfg.Escrow.Requester = crypto.NewAddress(crypto.PayPrefix, other).String()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("distinct parties rejected: %v", err)
	}
}

func TestValidateRejectsNegativeDeadline(t *testing.T) {
	cfg := &Config{StorageBackend: BackendMemory}
	cfg.Escrow.Deadline = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("negative deadline accepted")
	}
}
