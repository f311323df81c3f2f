package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/Bukola-tech/smart-contracts/config"
	"github.com/Bukola-tech/smart-contracts/core/events"
	"github.com/Bukola-tech/smart-contracts/core/state"
	"github.com/Bukola-tech/smart-contracts/crypto"
	"github.com/Bukola-tech/smart-contracts/native/escrow"
	"github.com/Bukola-tech/smart-contracts/observability"
	"github.com/Bukola-tech/smart-contracts/observability/logging"
	"github.com/Bukola-tech/smart-contracts/storage"
)

const envVar = "ESCROW_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	env := strings.TrimSpace(os.Getenv(envVar))
	if env == "" {
		env = cfg.LogEnv
	}
	logger := logging.Setup("escrow-cli", env, &logging.Options{File: cfg.LogFile})

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	os.Exit(dispatch(cfg, logger, args[0], args[1:], os.Stdout, os.Stderr))
}

func dispatch(cfg *config.Config, logger *slog.Logger, command string, args []string, stdout, stderr *os.File) int {
	switch command {
	case "keygen":
		return runKeygen(stdout, stderr)
	case "init":
		return runInit(cfg, logger, args, stdout, stderr)
	case "fund":
		return runFund(cfg, logger, args, stdout, stderr)
	case "request":
		return runRequest(cfg, logger, args, stdout, stderr)
	case "unlock":
		return runUnlock(cfg, logger, args, stdout, stderr)
	case "settle":
		return runSettle(cfg, logger, args, stdout, stderr)
	case "sweep":
		return runSweep(cfg, logger, args, stdout, stderr)
	case "list":
		return runList(cfg, args, stdout, stderr)
	case "run":
		return runScenario(cfg, logger, args, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println(`Usage: escrow-cli [--config path] <command> [flags]

Commands:
  keygen                         Generate a keypair and print its address
  init                           Create the escrow from config or flags
  fund --id <id> --from <addr> --amount <n>
  request --id <id> --from <addr> --desc <text> --amount <n>
  unlock --id <id> --from <addr> --index <i>
  settle --id <id> --from <addr> --index <i>
  sweep --id <id> --from <addr>
  list --id <id> --from <addr>
  run --scenario <file.yaml>`)
}

// host bundles the storage-backed ledger, engine and event capture for one
// command invocation.
type host struct {
	db      storage.Database
	manager *state.Manager
	engine  *escrow.Engine
	capture *events.MemoryEmitter
}

func openHost(cfg *config.Config) (*host, error) {
	var (
		db  storage.Database
		err error
	)
	switch cfg.StorageBackend {
	case config.BackendMemory:
		db = storage.NewMemDB()
	case config.BackendLevelDB:
		db, err = storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	default:
		if mkErr := os.MkdirAll(cfg.DataDir, 0o755); mkErr != nil {
			return nil, mkErr
		}
		db, err = storage.NewBoltDB(filepath.Join(cfg.DataDir, "ledger.db"))
	}
	if err != nil {
		return nil, err
	}
	manager := state.NewManager(db)
	capture := &events.MemoryEmitter{}
	eng := escrow.NewEngine()
	eng.SetState(manager)
	eng.SetPayouts(manager.Payouts())
	eng.SetEmitter(observability.NewMeteredEmitter(capture))
	return &host{db: db, manager: manager, engine: eng, capture: capture}, nil
}

func (h *host) close() {
	if h != nil && h.db != nil {
		h.db.Close()
	}
}

func (h *host) printEvents(stdout *os.File) {
	for _, evt := range h.capture.Events() {
		raw, err := json.Marshal(evt)
		if err != nil {
			continue
		}
		fmt.Fprintln(stdout, string(raw))
	}
}

func runKeygen(stdout, stderr *os.File) int {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fmt.Fprintf(stderr, "Error: generate key: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "private: %x\n", key.Bytes())
	fmt.Fprintf(stdout, "address: %s\n", key.PubKey().Address().String())
	return 0
}

func runInit(cfg *config.Config, logger *slog.Logger, args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	approverStr := fs.String("approver", cfg.Escrow.Approver, "approver bech32 address")
	requesterStr := fs.String("requester", cfg.Escrow.Requester, "requester bech32 address")
	deadline := fs.Int64("deadline", cfg.Escrow.Deadline, "advisory deadline (unix seconds)")
	nonce := fs.String("nonce", "default", "unique nonce for this escrow")
	initialStr := fs.String("initial", "0", "initial custodied amount")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	approver, err := parseAddress(*approverStr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: --approver: %v\n", err)
		return 1
	}
	requester, err := parseAddress(*requesterStr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: --requester: %v\n", err)
		return 1
	}
	if approver == requester {
		fmt.Fprintln(stderr, "Error: approver and requester must be distinct identities")
		return 1
	}
	initial, err := parseAmount(*initialStr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: --initial: %v\n", err)
		return 1
	}

	h, err := openHost(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: open ledger: %v\n", err)
		return 1
	}
	defer h.close()

	esc, err := h.engine.Create(approver, requester, *deadline, nonceBytes(*nonce), initial)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger.Info("escrow created", "id", hex.EncodeToString(esc.ID[:]))
	fmt.Fprintf(stdout, "id: %s\n", hex.EncodeToString(esc.ID[:]))
	h.printEvents(stdout)
	return 0
}

func runFund(cfg *config.Config, logger *slog.Logger, args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("fund", flag.ContinueOnError)
	fs.SetOutput(stderr)
	idStr := fs.String("id", "", "escrow identifier (hex)")
	fromStr := fs.String("from", "", "funder bech32 address")
	amountStr := fs.String("amount", "", "amount to place into custody")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	id, from, err := parseIDAndFrom(*idStr, *fromStr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	amount, err := parseAmount(*amountStr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: --amount: %v\n", err)
		return 1
	}

	h, err := openHost(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: open ledger: %v\n", err)
		return 1
	}
	defer h.close()

	if err := h.engine.Fund(id, from, amount); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger.Info("escrow funded", "id", *idStr, "amount", amount.String())
	h.printEvents(stdout)
	return 0
}

func runRequest(cfg *config.Config, logger *slog.Logger, args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	fs.SetOutput(stderr)
	idStr := fs.String("id", "", "escrow identifier (hex)")
	fromStr := fs.String("from", "", "requester bech32 address")
	desc := fs.String("desc", "", "work or deliverable description")
	amountStr := fs.String("amount", "", "requested amount")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	id, from, err := parseIDAndFrom(*idStr, *fromStr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	amount, err := parseAmount(*amountStr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: --amount: %v\n", err)
		return 1
	}

	h, err := openHost(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: open ledger: %v\n", err)
		return 1
	}
	defer h.close()

	index, err := h.engine.CreateRequest(id, from, *desc, amount)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger.Info("payment request created", "id", *idStr, "index", index)
	fmt.Fprintf(stdout, "index: %d\n", index)
	h.printEvents(stdout)
	return 0
}

func runUnlock(cfg *config.Config, logger *slog.Logger, args []string, stdout, stderr *os.File) int {
	return runIndexOp(cfg, logger, "unlock", args, stdout, stderr,
		func(h *host, id [32]byte, from [20]byte, index uint64) error {
			return h.engine.UnlockRequest(id, from, index)
		})
}

func runSettle(cfg *config.Config, logger *slog.Logger, args []string, stdout, stderr *os.File) int {
	return runIndexOp(cfg, logger, "settle", args, stdout, stderr,
		func(h *host, id [32]byte, from [20]byte, index uint64) error {
			return h.engine.SettleRequest(id, from, index)
		})
}

func runIndexOp(cfg *config.Config, logger *slog.Logger, name string, args []string, stdout, stderr *os.File, op func(*host, [32]byte, [20]byte, uint64) error) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	idStr := fs.String("id", "", "escrow identifier (hex)")
	fromStr := fs.String("from", "", "caller bech32 address")
	index := fs.Uint64("index", 0, "payment request index")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	id, from, err := parseIDAndFrom(*idStr, *fromStr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	h, err := openHost(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: open ledger: %v\n", err)
		return 1
	}
	defer h.close()

	if err := op(h, id, from, *index); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger.Info(name+" completed", "id", *idStr, "index", *index)
	h.printEvents(stdout)
	return 0
}

func runSweep(cfg *config.Config, logger *slog.Logger, args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	idStr := fs.String("id", "", "escrow identifier (hex)")
	fromStr := fs.String("from", "", "requester bech32 address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	id, from, err := parseIDAndFrom(*idStr, *fromStr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	h, err := openHost(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: open ledger: %v\n", err)
		return 1
	}
	defer h.close()

	if err := h.engine.SweepExcess(id, from); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger.Info("excess swept", "id", *idStr)
	h.printEvents(stdout)
	return 0
}

func runList(cfg *config.Config, args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	idStr := fs.String("id", "", "escrow identifier (hex)")
	fromStr := fs.String("from", "", "requester bech32 address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	id, from, err := parseIDAndFrom(*idStr, *fromStr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	h, err := openHost(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: open ledger: %v\n", err)
		return 1
	}
	defer h.close()

	requests, err := h.engine.Requests(id, from)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for i, req := range requests {
		fmt.Fprintf(stdout, "%d\t%s\t%s\t%s\n", i, req.Status, req.Amount.String(), req.Description)
	}
	return 0
}

func runScenario(cfg *config.Config, logger *slog.Logger, args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("scenario", "", "path to a YAML scenario file")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*path) == "" {
		fmt.Fprintln(stderr, "Error: --scenario is required")
		return 1
	}
	scenario, err := LoadScenario(*path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: load scenario: %v\n", err)
		return 1
	}

	h, err := openHost(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: open ledger: %v\n", err)
		return 1
	}
	defer h.close()

	if err := scenario.Run(h.engine, logger); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	h.printEvents(stdout)
	return 0
}

// --- parsing helpers ---

func parseAddress(s string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(s))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

func parseAmount(s string) (*big.Int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

func parseID(s string) ([32]byte, error) {
	var id [32]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return id, fmt.Errorf("decode escrow id: %w", err)
	}
	if len(decoded) != 32 {
		return id, fmt.Errorf("escrow id must be 32 bytes (got %d)", len(decoded))
	}
	copy(id[:], decoded)
	return id, nil
}

func parseIDAndFrom(idStr, fromStr string) ([32]byte, [20]byte, error) {
	id, err := parseID(idStr)
	if err != nil {
		return [32]byte{}, [20]byte{}, fmt.Errorf("--id: %w", err)
	}
	from, err := parseAddress(fromStr)
	if err != nil {
		return [32]byte{}, [20]byte{}, fmt.Errorf("--from: %w", err)
	}
	return id, from, nil
}

// nonceBytes turns an arbitrary nonce string into the fixed 32-byte form the
// engine hashes into the escrow identifier.
func nonceBytes(s string) [32]byte {
	return ethcrypto.Keccak256Hash([]byte(s))
}
