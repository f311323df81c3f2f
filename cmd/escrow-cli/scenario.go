package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Bukola-tech/smart-contracts/native/escrow"
)

// Scenario is a scripted sequence of escrow operations, typically used to
// replay a full request/approve/pay workflow against a fresh ledger.
type Scenario struct {
	Escrow ScenarioEscrow `yaml:"escrow"`
	Steps  []ScenarioStep `yaml:"steps"`
}

// ScenarioEscrow mirrors the init command: fixed parties, advisory deadline,
// a nonce for the deterministic ID and an optional initial custodied amount.
type ScenarioEscrow struct {
	Approver  string `yaml:"approver"`
	Requester string `yaml:"requester"`
	Deadline  int64  `yaml:"deadline"`
	Nonce     string `yaml:"nonce"`
	Initial   string `yaml:"initial"`
}

// ScenarioStep is one operation. Op is one of fund, request, unlock, settle,
// sweep. Amounts are decimal strings so big values survive YAML intact.
type ScenarioStep struct {
	Op          string `yaml:"op"`
	From        string `yaml:"from"`
	Amount      string `yaml:"amount"`
	Description string `yaml:"description"`
	Index       uint64 `yaml:"index"`
}

// LoadScenario reads and decodes a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if strings.TrimSpace(s.Escrow.Approver) == "" {
		return fmt.Errorf("scenario: escrow.approver is required")
	}
	if strings.TrimSpace(s.Escrow.Requester) == "" {
		return fmt.Errorf("scenario: escrow.requester is required")
	}
	for i, step := range s.Steps {
		switch step.Op {
		case "fund", "request", "unlock", "settle", "sweep":
		default:
			return fmt.Errorf("scenario: step %d: unknown op %q", i, step.Op)
		}
		if strings.TrimSpace(step.From) == "" {
			return fmt.Errorf("scenario: step %d: from is required", i)
		}
	}
	return nil
}

// Run creates the escrow and applies every step in order, stopping at the
// first failure.
func (s *Scenario) Run(eng *escrow.Engine, logger *slog.Logger) error {
	approver, err := parseAddress(s.Escrow.Approver)
	if err != nil {
		return fmt.Errorf("scenario: escrow.approver: %w", err)
	}
	requester, err := parseAddress(s.Escrow.Requester)
	if err != nil {
		return fmt.Errorf("scenario: escrow.requester: %w", err)
	}
	initial := big.NewInt(0)
	if strings.TrimSpace(s.Escrow.Initial) != "" {
		initial, err = parseAmount(s.Escrow.Initial)
		if err != nil {
			return fmt.Errorf("scenario: escrow.initial: %w", err)
		}
	}
	esc, err := eng.Create(approver, requester, s.Escrow.Deadline, nonceBytes(s.Escrow.Nonce), initial)
	if err != nil {
		return fmt.Errorf("scenario: create escrow: %w", err)
	}
	id := esc.ID
	logger.Info("scenario escrow created", "id", hex.EncodeToString(id[:]), "steps", len(s.Steps))

	for i, step := range s.Steps {
		from, err := parseAddress(step.From)
		if err != nil {
			return fmt.Errorf("scenario: step %d: from: %w", i, err)
		}
		switch step.Op {
		case "fund":
			amount, err := parseAmount(step.Amount)
			if err != nil {
				return fmt.Errorf("scenario: step %d: amount: %w", i, err)
			}
			err = eng.Fund(id, from, amount)
			if err != nil {
				return fmt.Errorf("scenario: step %d (fund): %w", i, err)
			}
		case "request":
			amount, err := parseAmount(step.Amount)
			if err != nil {
				return fmt.Errorf("scenario: step %d: amount: %w", i, err)
			}
			index, err := eng.CreateRequest(id, from, step.Description, amount)
			if err != nil {
				return fmt.Errorf("scenario: step %d (request): %w", i, err)
			}
			logger.Info("scenario request created", "step", i, "index", index)
		case "unlock":
			if err := eng.UnlockRequest(id, from, step.Index); err != nil {
				return fmt.Errorf("scenario: step %d (unlock): %w", i, err)
			}
		case "settle":
			if err := eng.SettleRequest(id, from, step.Index); err != nil {
				return fmt.Errorf("scenario: step %d (settle): %w", i, err)
			}
		case "sweep":
			if err := eng.SweepExcess(id, from); err != nil {
				return fmt.Errorf("scenario: step %d (sweep): %w", i, err)
			}
		}
	}
	return nil
}
