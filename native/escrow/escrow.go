package escrow

import (
	"fmt"
	"math/big"
)

// RequestStatus represents the lifecycle state of a payment request.
type RequestStatus uint8

const (
	// RequestLocked is the initial state: created but not yet approved.
	RequestLocked RequestStatus = iota
	// RequestUnlocked means the approver has cleared the request for payment.
	RequestUnlocked
	// RequestPaid is terminal: the amount has left custody exactly once.
	RequestPaid
)

// Valid reports whether the status value is within the supported range.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestLocked, RequestUnlocked, RequestPaid:
		return true
	default:
		return false
	}
}

func (s RequestStatus) String() string {
	switch s {
	case RequestLocked:
		return "locked"
	case RequestUnlocked:
		return "unlocked"
	case RequestPaid:
		return "paid"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// PaymentRequest is a single requester-initiated claim against custodied
// value. Once Status reaches RequestPaid the record is frozen.
type PaymentRequest struct {
	Description string        `json:"description"`
	Amount      *big.Int      `json:"amount"`
	Status      RequestStatus `json:"status"`
}

// Clone returns a deep copy of the payment request.
func (r *PaymentRequest) Clone() *PaymentRequest {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Amount != nil {
		clone.Amount = new(big.Int).Set(r.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// Escrow captures the fixed parties and the running ledger of a single escrow
// agreement. The identifier is the keccak256 hash of the approver, requester
// and a caller-supplied nonce, giving deterministic IDs without storing the
// nonce. CustodiedTotal is a lifetime intake counter: it grows on every
// funding event and never decreases, not even on settlement. Requests is
// append-only and indices are stable for the life of the escrow.
type Escrow struct {
	ID             [32]byte          `json:"id"`
	Approver       [20]byte          `json:"approver"`
	Requester      [20]byte          `json:"requester"`
	Deadline       int64             `json:"deadline"`
	CreatedAt      int64             `json:"createdAt"`
	CustodiedTotal *big.Int          `json:"custodiedTotal"`
	Requests       []*PaymentRequest `json:"requests"`
}

// Clone returns a deep copy of the escrow so callers can safely mutate the
// copy without affecting the stored instance.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	clone := *e
	if e.CustodiedTotal != nil {
		clone.CustodiedTotal = new(big.Int).Set(e.CustodiedTotal)
	} else {
		clone.CustodiedTotal = big.NewInt(0)
	}
	clone.Requests = make([]*PaymentRequest, len(e.Requests))
	for i, req := range e.Requests {
		clone.Requests[i] = req.Clone()
	}
	return &clone
}

// SanitizeEscrow validates the supplied escrow definition and returns a cloned
// instance with non-nil amount fields. The original value is not mutated.
func SanitizeEscrow(e *Escrow) (*Escrow, error) {
	if e == nil {
		return nil, fmt.Errorf("nil escrow")
	}
	clone := e.Clone()
	if clone.CustodiedTotal.Sign() < 0 {
		return nil, fmt.Errorf("custodied total must be non-negative")
	}
	for i, req := range clone.Requests {
		if req == nil {
			return nil, fmt.Errorf("nil payment request at index %d", i)
		}
		if req.Amount.Sign() < 0 {
			return nil, fmt.Errorf("request %d: amount must be non-negative", i)
		}
		if !req.Status.Valid() {
			return nil, fmt.Errorf("request %d: invalid status %d", i, req.Status)
		}
	}
	return clone, nil
}
