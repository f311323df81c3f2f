package escrow

import (
	"fmt"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/Bukola-tech/smart-contracts/core/events"
	"github.com/Bukola-tech/smart-contracts/core/types"
)

var (
	errNilState   = fmt.Errorf("escrow engine: state not configured")
	errNilPayouts = fmt.Errorf("escrow engine: payout dispatcher not configured")
)

// engineState is the narrow view of the host ledger the engine mutates:
// escrow records plus the held (vault) balance backing each of them. All
// value bookkeeping outside payouts goes through these calls.
type engineState interface {
	EscrowPut(*Escrow) error
	EscrowGet(id [32]byte) (*Escrow, bool)
	EscrowCredit(id [32]byte, amt *big.Int) error
	EscrowDebit(id [32]byte, amt *big.Int) error
	EscrowBalance(id [32]byte) (*big.Int, error)
}

// PayoutDispatcher is the external value-transfer primitive. Pay moves the
// amount out of escrow custody to the destination and reports success or
// failure. Implementations may synchronously call back into the engine before
// returning; the in-flight latch makes that safe.
type PayoutDispatcher interface {
	Pay(to [20]byte, amount *big.Int) error
}

type escrowEvent struct {
	evt *types.Event
}

func (e escrowEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e escrowEvent) Event() *types.Event { return e.evt }

// Engine wires the escrow payment workflow with external state, payout and
// event primitives. Each escrow instance carries its own in-flight latch so a
// payout that re-enters the engine is rejected rather than queued.
type Engine struct {
	state    engineState
	payouts  PayoutDispatcher
	emitter  events.Emitter
	nowFn    func() int64
	inFlight map[[32]byte]bool
}

// NewEngine creates an escrow engine with a no-op emitter. Callers must
// configure state and payouts before invoking any operation.
func NewEngine() *Engine {
	return &Engine{
		emitter:  events.NoopEmitter{},
		nowFn:    func() int64 { return time.Now().Unix() },
		inFlight: make(map[[32]byte]bool),
	}
}

// SetState configures the ledger-state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPayouts configures the outbound value-transfer primitive.
func (e *Engine) SetPayouts(p PayoutDispatcher) { e.payouts = p }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(escrowEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// ComputeID derives the deterministic identifier for an escrow definition.
func ComputeID(approver, requester [20]byte, nonce [32]byte) [32]byte {
	return ethcrypto.Keccak256Hash(approver[:], requester[:], nonce[:])
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func (e *Engine) loadEscrow(id [32]byte) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	esc, ok := e.state.EscrowGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return esc, nil
}

func (e *Engine) storeEscrow(esc *Escrow) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.state.EscrowPut(esc)
}

// Create initialises and persists a new escrow with fixed approver and
// requester identities. The deadline is recorded as advisory metadata; no
// operation enforces it. A positive initial amount is placed into custody
// immediately, attributed to the requester. Repeating a Create with an
// identical definition is idempotent; a clashing definition under the same ID
// is rejected.
func (e *Engine) Create(approver, requester [20]byte, deadline int64, nonce [32]byte, initial *big.Int) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	amt := cloneBigInt(initial)
	if amt.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	id := ComputeID(approver, requester, nonce)
	if existing, ok := e.state.EscrowGet(id); ok {
		if existing.Approver != approver || existing.Requester != requester || existing.Deadline != deadline {
			return nil, fmt.Errorf("escrow: identifier already exists with different definition")
		}
		return existing, nil
	}
	esc := &Escrow{
		ID:             id,
		Approver:       approver,
		Requester:      requester,
		Deadline:       deadline,
		CreatedAt:      e.now(),
		CustodiedTotal: big.NewInt(0),
		Requests:       nil,
	}
	if err := e.storeEscrow(esc); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(esc))
	if amt.Sign() > 0 {
		if err := e.Fund(id, requester, amt); err != nil {
			return nil, err
		}
		reloaded, err := e.loadEscrow(id)
		if err != nil {
			return nil, err
		}
		return reloaded, nil
	}
	return esc.Clone(), nil
}

// Fund places value into custody. There is no access restriction: inbound
// funding is always permitted and only grows the lifetime intake counter and
// the held balance. A zero amount is a no-op and emits nothing.
func (e *Engine) Fund(id [32]byte, from [20]byte, amount *big.Int) error {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	amt := cloneBigInt(amount)
	if err := e.state.EscrowCredit(id, amt); err != nil {
		return err
	}
	esc.CustodiedTotal = new(big.Int).Add(esc.CustodiedTotal, amt)
	if err := e.storeEscrow(esc); err != nil {
		return err
	}
	e.emit(NewFundedEvent(esc, from, amt))
	return nil
}

// CreateRequest appends a new payment request in the locked state and returns
// its index. Only the requester may create requests. Solvency against held
// value is deliberately not checked here; it surfaces at settlement.
func (e *Engine) CreateRequest(id [32]byte, caller [20]byte, description string, amount *big.Int) (uint64, error) {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return 0, err
	}
	if caller != esc.Requester {
		return 0, ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	req := &PaymentRequest{
		Description: description,
		Amount:      cloneBigInt(amount),
		Status:      RequestLocked,
	}
	esc.Requests = append(esc.Requests, req)
	index := uint64(len(esc.Requests) - 1)
	if err := e.storeEscrow(esc); err != nil {
		return 0, err
	}
	e.emit(NewRequestCreatedEvent(esc, index, req))
	return index, nil
}

// UnlockRequest transitions a locked request to unlocked. This is the sole
// approval gate and only the approver may pass it.
func (e *Engine) UnlockRequest(id [32]byte, caller [20]byte, index uint64) error {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if caller != esc.Approver {
		return ErrUnauthorized
	}
	if index >= uint64(len(esc.Requests)) {
		return ErrUnknownRequest
	}
	req := esc.Requests[index]
	if req.Status != RequestLocked {
		return ErrInvalidTransition
	}
	req.Status = RequestUnlocked
	if err := e.storeEscrow(esc); err != nil {
		return err
	}
	e.emit(NewRequestUnlockedEvent(esc, index))
	return nil
}

// SettleRequest pays out an unlocked request to the requester exactly once.
// Solvency is checked here, not at request creation: the amount must be
// covered by the currently held balance. The balance is debited and the
// request marked paid before the payout is issued, so a reentrant settlement
// observes the paid state even before the latch check fires. If the payout
// fails the debit is refunded and the marking rolled back to unlocked,
// leaving the settlement safe to retry.
func (e *Engine) SettleRequest(id [32]byte, caller [20]byte, index uint64) error {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if caller != esc.Requester {
		return ErrUnauthorized
	}
	if e.payouts == nil {
		return errNilPayouts
	}
	if e.inFlight[id] {
		return ErrReentrantCall
	}
	if index >= uint64(len(esc.Requests)) {
		return ErrUnknownRequest
	}
	req := esc.Requests[index]
	if req.Status != RequestUnlocked {
		return ErrInvalidTransition
	}
	amount := cloneBigInt(req.Amount)
	held, err := e.state.EscrowBalance(id)
	if err != nil {
		return err
	}
	if held == nil || held.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	if err := e.state.EscrowDebit(id, amount); err != nil {
		return err
	}

	req.Status = RequestPaid
	if err := e.storeEscrow(esc); err != nil {
		return err
	}

	e.inFlight[id] = true
	payErr := e.payouts.Pay(esc.Requester, amount)
	delete(e.inFlight, id)

	if payErr != nil {
		if err := e.state.EscrowCredit(id, amount); err != nil {
			return err
		}
		// Reload instead of re-storing the stale copy: funding may have
		// legitimately re-entered while the payout was outstanding.
		current, err := e.loadEscrow(id)
		if err != nil {
			return err
		}
		if index < uint64(len(current.Requests)) {
			current.Requests[index].Status = RequestUnlocked
		}
		if err := e.storeEscrow(current); err != nil {
			return err
		}
		return fmt.Errorf("%w: %v", ErrTransferFailed, payErr)
	}

	settled, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	e.emit(NewRequestPaidEvent(settled, index, amount))
	return nil
}

// SweepExcess withdraws all currently held value to the requester. The ledger
// tracks a single running custodial balance rather than per-request
// earmarking, so the sweepable excess is simply everything still in custody.
func (e *Engine) SweepExcess(id [32]byte, caller [20]byte) error {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if caller != esc.Requester {
		return ErrUnauthorized
	}
	if e.payouts == nil {
		return errNilPayouts
	}
	if e.inFlight[id] {
		return ErrReentrantCall
	}
	excess, err := e.state.EscrowBalance(id)
	if err != nil {
		return err
	}
	if excess == nil || excess.Sign() == 0 {
		return ErrNothingToSweep
	}
	amount := cloneBigInt(excess)
	if err := e.state.EscrowDebit(id, amount); err != nil {
		return err
	}

	e.inFlight[id] = true
	payErr := e.payouts.Pay(esc.Requester, amount)
	delete(e.inFlight, id)

	if payErr != nil {
		if err := e.state.EscrowCredit(id, amount); err != nil {
			return err
		}
		return fmt.Errorf("%w: %v", ErrTransferFailed, payErr)
	}
	swept, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	e.emit(NewExcessSweptEvent(swept, amount))
	return nil
}

// Requests returns deep copies of the escrow's ordered payment requests. The
// accessor is restricted to the requester identity.
func (e *Engine) Requests(id [32]byte, caller [20]byte) ([]*PaymentRequest, error) {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return nil, err
	}
	if caller != esc.Requester {
		return nil, ErrUnauthorized
	}
	out := make([]*PaymentRequest, len(esc.Requests))
	for i, req := range esc.Requests {
		out[i] = req.Clone()
	}
	return out, nil
}
