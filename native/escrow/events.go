package escrow

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/Bukola-tech/smart-contracts/core/types"
	"github.com/Bukola-tech/smart-contracts/crypto"
)

const (
	EventTypeEscrowCreated   = "escrow.created"
	EventTypeEscrowFunded    = "escrow.funded"
	EventTypeRequestCreated  = "escrow.request_created"
	EventTypeRequestUnlocked = "escrow.request_unlocked"
	EventTypeRequestPaid     = "escrow.request_paid"
	EventTypeExcessSwept     = "escrow.excess_swept"
)

// NewCreatedEvent returns the canonical event payload for a newly created
// escrow.
func NewCreatedEvent(e *Escrow) *types.Event {
	evt := newEscrowEvent(EventTypeEscrowCreated, e)
	if e != nil {
		evt.Attributes["deadline"] = strconv.FormatInt(e.Deadline, 10)
		evt.Attributes["createdAt"] = strconv.FormatInt(e.CreatedAt, 10)
	}
	return evt
}

// NewFundedEvent returns the canonical event payload emitted when value is
// placed into custody.
func NewFundedEvent(e *Escrow, from [20]byte, amount *big.Int) *types.Event {
	evt := newEscrowEvent(EventTypeEscrowFunded, e)
	evt.Attributes["from"] = crypto.NewAddress(crypto.PayPrefix, from[:]).String()
	evt.Attributes["amount"] = formatAmount(amount)
	return evt
}

// NewRequestCreatedEvent returns the canonical event payload for a new
// payment request.
func NewRequestCreatedEvent(e *Escrow, index uint64, req *PaymentRequest) *types.Event {
	evt := newEscrowEvent(EventTypeRequestCreated, e)
	evt.Attributes["index"] = strconv.FormatUint(index, 10)
	if req != nil {
		evt.Attributes["amount"] = formatAmount(req.Amount)
		evt.Attributes["description"] = req.Description
	}
	return evt
}

// NewRequestUnlockedEvent returns the canonical event payload emitted when the
// approver clears a request for payment.
func NewRequestUnlockedEvent(e *Escrow, index uint64) *types.Event {
	evt := newEscrowEvent(EventTypeRequestUnlocked, e)
	evt.Attributes["index"] = strconv.FormatUint(index, 10)
	return evt
}

// NewRequestPaidEvent returns the canonical event payload for a settled
// request.
func NewRequestPaidEvent(e *Escrow, index uint64, amount *big.Int) *types.Event {
	evt := newEscrowEvent(EventTypeRequestPaid, e)
	evt.Attributes["index"] = strconv.FormatUint(index, 10)
	evt.Attributes["amount"] = formatAmount(amount)
	return evt
}

// NewExcessSweptEvent returns the canonical event payload emitted when held
// value not committed to settlement is withdrawn.
func NewExcessSweptEvent(e *Escrow, amount *big.Int) *types.Event {
	evt := newEscrowEvent(EventTypeExcessSwept, e)
	evt.Attributes["amount"] = formatAmount(amount)
	return evt
}

func newEscrowEvent(eventType string, e *Escrow) *types.Event {
	attrs := make(map[string]string)
	if e == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = hex.EncodeToString(e.ID[:])
	attrs["approver"] = crypto.NewAddress(crypto.PayPrefix, append([]byte(nil), e.Approver[:]...)).String()
	attrs["requester"] = crypto.NewAddress(crypto.PayPrefix, append([]byte(nil), e.Requester[:]...)).String()
	attrs["custodiedTotal"] = formatAmount(e.CustodiedTotal)
	return &types.Event{Type: eventType, Attributes: attrs}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
