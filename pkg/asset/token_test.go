package asset

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	alice    = common.HexToAddress("0x0000000000000000000000000000000000000011")
	bob      = common.HexToAddress("0x0000000000000000000000000000000000000022")
	exchange = common.HexToAddress("0x00000000000000000000000000000000000d0e0c")
)

func TestIssueAndFaucet(t *testing.T) {
	b := NewBank()
	dai := b.Issue("DAI")
	bat := b.Issue("BAT")
	if dai == bat {
		t.Fatal("issued tokens share a handle")
	}

	if err := b.Faucet(dai, alice, 1000); err != nil {
		t.Fatalf("faucet: %v", err)
	}
	if got := b.BalanceOf(dai, alice); got != 1000 {
		t.Errorf("balance = %d, want 1000", got)
	}
	if got := b.BalanceOf(bat, alice); got != 0 {
		t.Errorf("faucet leaked across tokens: %d", got)
	}
}

func TestTransferFromRequiresAllowance(t *testing.T) {
	b := NewBank()
	dai := b.Issue("DAI")
	if err := b.Faucet(dai, alice, 1000); err != nil {
		t.Fatalf("faucet: %v", err)
	}

	err := b.TransferFrom(dai, exchange, alice, exchange, 100)
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
	if got := b.BalanceOf(dai, alice); got != 1000 {
		t.Errorf("failed transfer moved funds: %d", got)
	}

	if err := b.Approve(dai, alice, exchange, 100); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := b.TransferFrom(dai, exchange, alice, exchange, 100); err != nil {
		t.Fatalf("transferFrom after approve: %v", err)
	}
	if got := b.BalanceOf(dai, exchange); got != 100 {
		t.Errorf("exchange balance = %d, want 100", got)
	}

	// Allowance is consumed.
	err = b.TransferFrom(dai, exchange, alice, exchange, 1)
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("allowance not consumed, got %v", err)
	}
}

func TestTransferFromInsufficientFunds(t *testing.T) {
	b := NewBank()
	dai := b.Issue("DAI")
	if err := b.Approve(dai, alice, exchange, 500); err != nil {
		t.Fatalf("approve: %v", err)
	}

	err := b.TransferFrom(dai, exchange, alice, exchange, 500)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	b := NewBank()
	dai := b.Issue("DAI")
	if err := b.Faucet(dai, exchange, 50); err != nil {
		t.Fatalf("faucet: %v", err)
	}

	if err := b.Transfer(dai, exchange, bob, 30); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := b.BalanceOf(dai, bob); got != 30 {
		t.Errorf("recipient balance = %d, want 30", got)
	}

	if err := b.Transfer(dai, exchange, bob, 30); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraw allowed: %v", err)
	}
}

func TestUnknownToken(t *testing.T) {
	b := NewBank()
	var bogus common.Address
	bogus[19] = 0xff

	if err := b.Faucet(bogus, alice, 1); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("faucet on unknown token: %v", err)
	}
	if err := b.Transfer(bogus, alice, bob, 1); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("transfer on unknown token: %v", err)
	}
	if got := b.BalanceOf(bogus, alice); got != 0 {
		t.Errorf("unknown token balance = %d", got)
	}
}
