package state

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/Bukola-tech/smart-contracts/core/types"
	"github.com/Bukola-tech/smart-contracts/native/escrow"
	"github.com/Bukola-tech/smart-contracts/storage"
)

const (
	escrowPrefix  = "escrow/"
	vaultPrefix   = "vault/"
	accountPrefix = "account/"
)

// ErrInsufficientVault is returned when a debit would take an escrow's held
// balance below zero.
var ErrInsufficientVault = errors.New("state: insufficient held balance")

// Manager is the reference host ledger: escrow records, the held (vault)
// balance backing each escrow, and per-identity accounts, all persisted as
// JSON records over a storage.Database.
type Manager struct {
	db storage.Database
}

// NewManager wraps the supplied key-value store.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func escrowKey(id [32]byte) []byte {
	return []byte(escrowPrefix + hex.EncodeToString(id[:]))
}

func vaultKey(id [32]byte) []byte {
	return []byte(vaultPrefix + hex.EncodeToString(id[:]))
}

func accountKey(addr [20]byte) []byte {
	return []byte(accountPrefix + hex.EncodeToString(addr[:]))
}

// EscrowPut validates and stores an escrow record.
func (m *Manager) EscrowPut(esc *escrow.Escrow) error {
	sanitized, err := escrow.SanitizeEscrow(esc)
	if err != nil {
		return fmt.Errorf("state: sanitize escrow: %w", err)
	}
	raw, err := json.Marshal(sanitized)
	if err != nil {
		return fmt.Errorf("state: encode escrow: %w", err)
	}
	return m.db.Put(escrowKey(sanitized.ID), raw)
}

// EscrowGet loads a deep copy of the stored escrow record.
func (m *Manager) EscrowGet(id [32]byte) (*escrow.Escrow, bool) {
	raw, err := m.db.Get(escrowKey(id))
	if err != nil {
		return nil, false
	}
	var esc escrow.Escrow
	if err := json.Unmarshal(raw, &esc); err != nil {
		return nil, false
	}
	return &esc, true
}

// EscrowBalance returns the value currently held for the escrow. Missing
// records read as zero.
func (m *Manager) EscrowBalance(id [32]byte) (*big.Int, error) {
	raw, err := m.db.Get(vaultKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	balance, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, fmt.Errorf("state: corrupt vault balance for %x", id)
	}
	return balance, nil
}

func (m *Manager) putBalance(id [32]byte, balance *big.Int) error {
	return m.db.Put(vaultKey(id), []byte(balance.String()))
}

// EscrowCredit adds value to the escrow's held balance.
func (m *Manager) EscrowCredit(id [32]byte, amt *big.Int) error {
	if amt == nil || amt.Sign() < 0 {
		return fmt.Errorf("state: credit amount must be non-negative")
	}
	balance, err := m.EscrowBalance(id)
	if err != nil {
		return err
	}
	return m.putBalance(id, balance.Add(balance, amt))
}

// EscrowDebit removes value from the escrow's held balance.
func (m *Manager) EscrowDebit(id [32]byte, amt *big.Int) error {
	if amt == nil || amt.Sign() < 0 {
		return fmt.Errorf("state: debit amount must be non-negative")
	}
	balance, err := m.EscrowBalance(id)
	if err != nil {
		return err
	}
	if balance.Cmp(amt) < 0 {
		return ErrInsufficientVault
	}
	return m.putBalance(id, balance.Sub(balance, amt))
}

// GetAccount loads a deep copy of the account, returning a zero-balance
// account when none is stored yet.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	raw, err := m.db.Get(accountKey(addr))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return &types.Account{Balance: big.NewInt(0)}, nil
		}
		return nil, err
	}
	var acc types.Account
	if err := json.Unmarshal(raw, &acc); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return &acc, nil
}

// PutAccount stores the account record.
func (m *Manager) PutAccount(addr [20]byte, acc *types.Account) error {
	if acc == nil {
		return fmt.Errorf("state: nil account")
	}
	raw, err := json.Marshal(acc.Clone())
	if err != nil {
		return fmt.Errorf("state: encode account: %w", err)
	}
	return m.db.Put(accountKey(addr), raw)
}

// LedgerPayouts is the reference payout dispatcher: value leaving escrow
// custody is credited to the destination's host-ledger account. It never
// calls back into the engine.
type LedgerPayouts struct {
	m *Manager
}

// Payouts returns a dispatcher backed by this manager's account ledger.
func (m *Manager) Payouts() *LedgerPayouts {
	return &LedgerPayouts{m: m}
}

// Pay implements the escrow.PayoutDispatcher interface.
func (p *LedgerPayouts) Pay(to [20]byte, amount *big.Int) error {
	if p == nil || p.m == nil {
		return fmt.Errorf("state: payout ledger not configured")
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: payout amount must be non-negative")
	}
	if amount.Sign() == 0 {
		return nil
	}
	acc, err := p.m.GetAccount(to)
	if err != nil {
		return err
	}
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	return p.m.PutAccount(to, acc)
}
