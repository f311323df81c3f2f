package main

import (
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/Bukola-tech/smart-contracts/core/state"
	"github.com/Bukola-tech/smart-contracts/crypto"
	"github.com/Bukola-tech/smart-contracts/native/escrow"
	"github.com/Bukola-tech/smart-contracts/storage"
)

func testBech32(fill byte) string {
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = fill
	}
	return crypto.NewAddress(crypto.PayPrefix, raw).String()
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestLoadScenarioValidates(t *testing.T) {
	path := writeScenario(t, `
escrow:
  requester: `+testBech32(0xB2)+`
steps: []
`)
	if _, err := LoadScenario(path); err == nil {
		t.Fatalf("missing approver accepted")
	}

	path = writeScenario(t, `
escrow:
  approver: `+testBech32(0xA1)+`
  requester: `+testBech32(0xB2)+`
steps:
  - op: teleport
    from: `+testBech32(0xB2)+`
`)
	if _, err := LoadScenario(path); err == nil {
		t.Fatalf("unknown op accepted")
	}
}

func TestScenarioRunsFullWorkflow(t *testing.T) {
	approver := testBech32(0xA1)
	requester := testBech32(0xB2)
	path := writeScenario(t, `
escrow:
  approver: `+approver+`
  requester: `+requester+`
  deadline: 1800000000
  nonce: milestone-1
  initial: "100"
steps:
  - op: request
    from: `+requester+`
    description: design
    amount: "40"
  - op: unlock
    from: `+approver+`
    index: 0
  - op: settle
    from: `+requester+`
    index: 0
  - op: sweep
    from: `+requester+`
`)
	scenario, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}

	manager := state.NewManager(storage.NewMemDB())
	eng := escrow.NewEngine()
	eng.SetState(manager)
	eng.SetPayouts(manager.Payouts())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if err := scenario.Run(eng, logger); err != nil {
		t.Fatalf("run scenario: %v", err)
	}

	requesterAddr, err := parseAddress(requester)
	if err != nil {
		t.Fatalf("parse requester: %v", err)
	}
	acc, err := manager.GetAccount(requesterAddr)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if acc.Balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("requester received %s, want the full 100", acc.Balance)
	}
}

func TestScenarioStopsAtFirstFailure(t *testing.T) {
	approver := testBech32(0xA1)
	requester := testBech32(0xB2)
	path := writeScenario(t, `
escrow:
  approver: `+approver+`
  requester: `+requester+`
  nonce: milestone-2
  initial: "10"
steps:
  - op: request
    from: `+requester+`
    description: draft
    amount: "10"
  - op: settle
    from: `+requester+`
    index: 0
`)
	scenario, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}

	manager := state.NewManager(storage.NewMemDB())
	eng := escrow.NewEngine()
	eng.SetState(manager)
	eng.SetPayouts(manager.Payouts())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	err = scenario.Run(eng, logger)
	if err == nil {
		t.Fatalf("settle before unlock should fail the scenario")
	}
}
