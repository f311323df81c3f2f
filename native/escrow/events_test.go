package escrow_test

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"strconv"
	"testing"

	"github.com/Bukola-tech/smart-contracts/crypto"
	escrowpkg "github.com/Bukola-tech/smart-contracts/native/escrow"
)

func TestEscrowEventsHaveDeterministicPayload(t *testing.T) {
	var id [32]byte
	copy(id[:], bytes.Repeat([]byte{0xAA}, 32))
	var approver [20]byte
	copy(approver[:], bytes.Repeat([]byte{0xBB}, 20))
	var requester [20]byte
	copy(requester[:], bytes.Repeat([]byte{0xCC}, 20))

	esc := &escrowpkg.Escrow{
		ID:             id,
		Approver:       approver,
		Requester:      requester,
		Deadline:       1_800_000_000,
		CreatedAt:      1_700_000_123,
		CustodiedTotal: big.NewInt(42_000),
	}

	base := map[string]string{
		"id":             hex.EncodeToString(id[:]),
		"approver":       crypto.NewAddress(crypto.PayPrefix, approver[:]).String(),
		"requester":      crypto.NewAddress(crypto.PayPrefix, requester[:]).String(),
		"custodiedTotal": "42000",
	}

	created := escrowpkg.NewCreatedEvent(esc)
	if created.Type != escrowpkg.EventTypeEscrowCreated {
		t.Fatalf("created type %q", created.Type)
	}
	for key, want := range base {
		if got := created.Attributes[key]; got != want {
			t.Fatalf("created attr %s = %q, want %q", key, got, want)
		}
	}
	if created.Attributes["deadline"] != strconv.FormatInt(esc.Deadline, 10) {
		t.Fatalf("created deadline attr %q", created.Attributes["deadline"])
	}
	if created.Attributes["createdAt"] != strconv.FormatInt(esc.CreatedAt, 10) {
		t.Fatalf("created createdAt attr %q", created.Attributes["createdAt"])
	}

	var funder [20]byte
	copy(funder[:], bytes.Repeat([]byte{0xDD}, 20))
	funded := escrowpkg.NewFundedEvent(esc, funder, big.NewInt(77))
	if funded.Type != escrowpkg.EventTypeEscrowFunded {
		t.Fatalf("funded type %q", funded.Type)
	}
	if funded.Attributes["from"] != crypto.NewAddress(crypto.PayPrefix, funder[:]).String() {
		t.Fatalf("funded from attr %q", funded.Attributes["from"])
	}
	if funded.Attributes["amount"] != "77" {
		t.Fatalf("funded amount attr %q", funded.Attributes["amount"])
	}

	req := &escrowpkg.PaymentRequest{Description: "design", Amount: big.NewInt(40)}
	reqCreated := escrowpkg.NewRequestCreatedEvent(esc, 3, req)
	if reqCreated.Type != escrowpkg.EventTypeRequestCreated {
		t.Fatalf("request created type %q", reqCreated.Type)
	}
	if reqCreated.Attributes["index"] != "3" || reqCreated.Attributes["amount"] != "40" || reqCreated.Attributes["description"] != "design" {
		t.Fatalf("request created attrs %v", reqCreated.Attributes)
	}

	unlocked := escrowpkg.NewRequestUnlockedEvent(esc, 3)
	if unlocked.Type != escrowpkg.EventTypeRequestUnlocked || unlocked.Attributes["index"] != "3" {
		t.Fatalf("unlocked event %v", unlocked)
	}

	paid := escrowpkg.NewRequestPaidEvent(esc, 3, big.NewInt(40))
	if paid.Type != escrowpkg.EventTypeRequestPaid || paid.Attributes["amount"] != "40" {
		t.Fatalf("paid event %v", paid)
	}

	swept := escrowpkg.NewExcessSweptEvent(esc, big.NewInt(60))
	if swept.Type != escrowpkg.EventTypeExcessSwept || swept.Attributes["amount"] != "60" {
		t.Fatalf("swept event %v", swept)
	}
}

func TestEscrowEventsTolerateNilEscrow(t *testing.T) {
	evt := escrowpkg.NewCreatedEvent(nil)
	if evt.Type != escrowpkg.EventTypeEscrowCreated {
		t.Fatalf("type %q", evt.Type)
	}
	if len(evt.Attributes) != 0 {
		t.Fatalf("nil escrow produced attributes: %v", evt.Attributes)
	}
}
