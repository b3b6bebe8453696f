package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/asset"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex"
)

var (
	exchangeAddr = common.HexToAddress("0x00000000000000000000000000000000000d0e0c")
	trader1      = common.HexToAddress("0x0000000000000000000000000000000000000011")
	trader2      = common.HexToAddress("0x0000000000000000000000000000000000000022")
)

// newFundedLedger returns a ledger over a bank where trader1 holds
// 1000 DAI with the exchange approved for the full amount.
func newFundedLedger(t *testing.T) (*Ledger, *asset.Bank, common.Address) {
	t.Helper()
	bank := asset.NewBank()
	dai := bank.Issue("DAI")
	if err := bank.Faucet(dai, trader1, 1000); err != nil {
		t.Fatalf("faucet: %v", err)
	}
	if err := bank.Approve(dai, trader1, exchangeAddr, 1000); err != nil {
		t.Fatalf("approve: %v", err)
	}
	return New(exchangeAddr, bank, nil, nil), bank, dai
}

func TestDepositCreditsAfterPull(t *testing.T) {
	l, bank, dai := newFundedLedger(t)

	balance, err := l.Deposit(trader1, "DAI", dai, 100)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if balance != 100 {
		t.Errorf("returned balance = %d, want 100", balance)
	}
	if got := l.BalanceOf(trader1, "DAI"); got != 100 {
		t.Errorf("ledger balance = %d, want 100", got)
	}
	if got := bank.BalanceOf(dai, trader1); got != 900 {
		t.Errorf("external balance = %d, want 900", got)
	}
	if got := bank.BalanceOf(dai, exchangeAddr); got != 100 {
		t.Errorf("custody balance = %d, want 100", got)
	}
}

func TestDepositFailedPullLeavesLedgerUntouched(t *testing.T) {
	l, bank, dai := newFundedLedger(t)

	// trader2 never approved the exchange.
	if err := bank.Faucet(dai, trader2, 1000); err != nil {
		t.Fatalf("faucet: %v", err)
	}
	_, err := l.Deposit(trader2, "DAI", dai, 100)
	if !errors.Is(err, dex.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if got := l.BalanceOf(trader2, "DAI"); got != 0 {
		t.Errorf("failed deposit credited the ledger: %d", got)
	}
}

func TestWithdrawRoundTrip(t *testing.T) {
	l, bank, dai := newFundedLedger(t)

	if _, err := l.Deposit(trader1, "DAI", dai, 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	balance, err := l.Withdraw(trader1, "DAI", dai, 100)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if balance != 0 {
		t.Errorf("returned balance = %d, want 0", balance)
	}
	if got := bank.BalanceOf(dai, trader1); got != 1000 {
		t.Errorf("external balance = %d, want 1000 (round trip)", got)
	}
}

func TestWithdrawInsufficient(t *testing.T) {
	l, _, dai := newFundedLedger(t)

	if _, err := l.Deposit(trader1, "DAI", dai, 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	_, err := l.Withdraw(trader1, "DAI", dai, 1000)
	if !errors.Is(err, dex.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := l.BalanceOf(trader1, "DAI"); got != 100 {
		t.Errorf("failed withdraw changed balance: %d", got)
	}
}

// pushFailBackend fails every outbound Transfer; deposits succeed.
type pushFailBackend struct {
	bank *asset.Bank
}

func (b *pushFailBackend) TransferFrom(token, spender, owner, recipient common.Address, amount int64) error {
	return b.bank.TransferFrom(token, spender, owner, recipient, amount)
}

func (b *pushFailBackend) Transfer(token, from, to common.Address, amount int64) error {
	return fmt.Errorf("asset ledger unavailable")
}

func (b *pushFailBackend) BalanceOf(token, holder common.Address) int64 {
	return b.bank.BalanceOf(token, holder)
}

func TestWithdrawRestoresDebitOnFailedPush(t *testing.T) {
	bank := asset.NewBank()
	dai := bank.Issue("DAI")
	if err := bank.Faucet(dai, trader1, 1000); err != nil {
		t.Fatalf("faucet: %v", err)
	}
	if err := bank.Approve(dai, trader1, exchangeAddr, 1000); err != nil {
		t.Fatalf("approve: %v", err)
	}

	l := New(exchangeAddr, &pushFailBackend{bank: bank}, nil, nil)
	if _, err := l.Deposit(trader1, "DAI", dai, 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	_, err := l.Withdraw(trader1, "DAI", dai, 60)
	if !errors.Is(err, dex.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if got := l.BalanceOf(trader1, "DAI"); got != 100 {
		t.Errorf("debit not restored after failed push: %d", got)
	}
}

// failStore fails every write.
type failStore struct {
	writes int
}

func (f *failStore) SaveBalance(common.Address, string, int64) error {
	f.writes++
	return fmt.Errorf("disk full")
}

func TestPersistFailureDoesNotBlockTransfers(t *testing.T) {
	bank := asset.NewBank()
	dai := bank.Issue("DAI")
	if err := bank.Faucet(dai, trader1, 1000); err != nil {
		t.Fatalf("faucet: %v", err)
	}
	if err := bank.Approve(dai, trader1, exchangeAddr, 1000); err != nil {
		t.Fatalf("approve: %v", err)
	}

	fs := &failStore{}
	l := New(exchangeAddr, bank, fs, nil)

	// The external transfer already completed when persistence runs;
	// the in-memory entry is authoritative and the call succeeds.
	balance, err := l.Deposit(trader1, "DAI", dai, 100)
	if err != nil {
		t.Fatalf("deposit with failing store: %v", err)
	}
	if balance != 100 {
		t.Errorf("balance = %d, want 100", balance)
	}
	if got := bank.BalanceOf(dai, trader1); got != 900 {
		t.Errorf("external balance = %d, want 900", got)
	}

	balance, err = l.Withdraw(trader1, "DAI", dai, 40)
	if err != nil {
		t.Fatalf("withdraw with failing store: %v", err)
	}
	if balance != 60 {
		t.Errorf("balance = %d, want 60", balance)
	}
	if got := bank.BalanceOf(dai, trader1); got != 940 {
		t.Errorf("external balance = %d, want 940", got)
	}
	if fs.writes != 2 {
		t.Errorf("store saw %d writes, want 2", fs.writes)
	}
}

func TestCreditDebit(t *testing.T) {
	l, _, _ := newFundedLedger(t)

	l.Credit(trader2, "REP", 50)
	if got := l.BalanceOf(trader2, "REP"); got != 50 {
		t.Fatalf("credit: balance = %d, want 50", got)
	}

	if err := l.Debit(trader2, "REP", 20); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if got := l.BalanceOf(trader2, "REP"); got != 30 {
		t.Errorf("balance = %d, want 30", got)
	}

	// Defensive invariant: a debit below zero is refused.
	if err := l.Debit(trader2, "REP", 31); !errors.Is(err, dex.ErrInsufficientBalance) {
		t.Fatalf("overdraw debit allowed: %v", err)
	}
	if got := l.BalanceOf(trader2, "REP"); got != 30 {
		t.Errorf("failed debit changed balance: %d", got)
	}
}

func TestBalancesSnapshot(t *testing.T) {
	l, _, _ := newFundedLedger(t)
	l.Credit(trader1, "REP", 5)
	l.Credit(trader1, "DAI", 7)

	snap := l.Balances(trader1)
	snap["REP"] = 99

	if got := l.BalanceOf(trader1, "REP"); got != 5 {
		t.Error("Balances snapshot aliases live state")
	}
}
