package token

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex"
)

var (
	admin    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	intruder = common.HexToAddress("0x0000000000000000000000000000000000000002")
	handle   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func TestRegisterAdminOnly(t *testing.T) {
	r := NewRegistry(admin)

	if err := r.Register(intruder, "DAI", handle); !errors.Is(err, dex.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if r.Count() != 0 {
		t.Errorf("rejected registration must not insert, count=%d", r.Count())
	}

	if err := r.Register(admin, "DAI", handle); err != nil {
		t.Fatalf("admin registration failed: %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(admin)

	if err := r.Register(admin, "DAI", handle); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := r.Register(admin, "DAI", handle); !errors.Is(err, dex.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	// Padding and case variants are the same identifier.
	if err := r.Register(admin, "dai\x00\x00", handle); !errors.Is(err, dex.ErrAlreadyRegistered) {
		t.Fatalf("normalized duplicate not rejected: %v", err)
	}
}

func TestResolve(t *testing.T) {
	r := NewRegistry(admin)
	if err := r.Register(admin, "REP", handle); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := r.Resolve("rep \x00")
	if err != nil {
		t.Fatalf("resolve normalized symbol: %v", err)
	}
	if got != handle {
		t.Errorf("resolved handle = %s, want %s", got.Hex(), handle.Hex())
	}

	if _, err := r.Resolve("ZRX"); !errors.Is(err, dex.ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
	if r.Exists("ZRX") {
		t.Error("Exists reported an unregistered symbol")
	}
}

func TestListOrder(t *testing.T) {
	r := NewRegistry(admin)
	for _, sym := range []string{"DAI", "BAT", "REP", "ZRX"} {
		if err := r.Register(admin, sym, handle); err != nil {
			t.Fatalf("register %s: %v", sym, err)
		}
	}

	got := r.List()
	want := []string{"DAI", "BAT", "REP", "ZRX"}
	if len(got) != len(want) {
		t.Fatalf("listed %d assets, want %d", len(got), len(want))
	}
	for i, a := range got {
		if a.Symbol != want[i] {
			t.Errorf("List()[%d] = %s, want %s (registration order)", i, a.Symbol, want[i])
		}
	}
}
