package escrow

import (
	"math/big"
	"testing"
)

func TestRequestStatusValues(t *testing.T) {
	valid := []RequestStatus{RequestLocked, RequestUnlocked, RequestPaid}
	for _, s := range valid {
		if !s.Valid() {
			t.Fatalf("status %d should be valid", s)
		}
	}
	if RequestStatus(99).Valid() {
		t.Fatalf("out-of-range status reported valid")
	}
	if RequestLocked.String() != "locked" || RequestUnlocked.String() != "unlocked" || RequestPaid.String() != "paid" {
		t.Fatalf("unexpected status strings: %s %s %s", RequestLocked, RequestUnlocked, RequestPaid)
	}
}

func TestEscrowCloneIsDeep(t *testing.T) {
	esc := &Escrow{
		ID:             [32]byte{0x01},
		Approver:       newTestAddress(0xA1),
		Requester:      newTestAddress(0xB2),
		Deadline:       1_800_000_000,
		CustodiedTotal: big.NewInt(100),
		Requests: []*PaymentRequest{
			{Description: "design", Amount: big.NewInt(40), Status: RequestLocked},
		},
	}
	clone := esc.Clone()
	clone.CustodiedTotal.SetInt64(1)
	clone.Requests[0].Amount.SetInt64(1)
	clone.Requests[0].Status = RequestPaid

	if esc.CustodiedTotal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("clone aliased custodied total")
	}
	if esc.Requests[0].Amount.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("clone aliased request amount")
	}
	if esc.Requests[0].Status != RequestLocked {
		t.Fatalf("clone aliased request status")
	}
}

func TestCloneNormalisesNilAmounts(t *testing.T) {
	esc := &Escrow{Requests: []*PaymentRequest{{Description: "x"}}}
	clone := esc.Clone()
	if clone.CustodiedTotal == nil || clone.CustodiedTotal.Sign() != 0 {
		t.Fatalf("nil custodied total not normalised")
	}
	if clone.Requests[0].Amount == nil || clone.Requests[0].Amount.Sign() != 0 {
		t.Fatalf("nil request amount not normalised")
	}
}

func TestSanitizeEscrow(t *testing.T) {
	if _, err := SanitizeEscrow(nil); err == nil {
		t.Fatalf("nil escrow accepted")
	}

	esc := &Escrow{CustodiedTotal: big.NewInt(-1)}
	if _, err := SanitizeEscrow(esc); err == nil {
		t.Fatalf("negative custodied total accepted")
	}

	esc = &Escrow{
		CustodiedTotal: big.NewInt(10),
		Requests:       []*PaymentRequest{{Amount: big.NewInt(5), Status: RequestStatus(42)}},
	}
	if _, err := SanitizeEscrow(esc); err == nil {
		t.Fatalf("invalid request status accepted")
	}

	esc.Requests[0].Status = RequestUnlocked
	sanitized, err := SanitizeEscrow(esc)
	if err != nil {
		t.Fatalf("valid escrow rejected: %v", err)
	}
	sanitized.CustodiedTotal.SetInt64(0)
	if esc.CustodiedTotal.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("sanitize mutated the original")
	}
}
