// Package ledger tracks custodial balances held by the exchange:
// (trader, symbol) -> amount. Deposits and withdrawals move real value
// on the external asset ledger; Credit/Debit are the settlement hooks
// used by the matching engine and never touch the outside world.
package ledger

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/store"
)

// AssetBackend is the external fungible-asset ledger the exchange
// settles deposits and withdrawals against. Transfers are atomic:
// they either complete fully or fail with no partial movement.
type AssetBackend interface {
	TransferFrom(token, spender, owner, recipient common.Address, amount int64) error
	Transfer(token, from, to common.Address, amount int64) error
	BalanceOf(token, holder common.Address) int64
}

// BalanceStore persists ledger entries. *store.Store implements it;
// nil disables persistence.
type BalanceStore interface {
	SaveBalance(trader common.Address, symbol string, amount int64) error
}

// Ledger manages all custodial balances in a thread-safe manner.
type Ledger struct {
	mu       sync.RWMutex
	exchange common.Address // custody account on the external ledger
	backend  AssetBackend
	balances map[common.Address]map[string]int64
	store    BalanceStore
	log      *zap.SugaredLogger
}

// New creates a ledger. store may be nil (no persistence); log may be
// nil (silent).
func New(exchange common.Address, backend AssetBackend, st BalanceStore, log *zap.SugaredLogger) *Ledger {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Ledger{
		exchange: exchange,
		backend:  backend,
		balances: make(map[common.Address]map[string]int64),
		store:    st,
		log:      log,
	}
}

// Load seeds the ledger from persisted records. Called once at startup
// before any operation runs.
func (l *Ledger) Load(recs []store.BalanceRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range recs {
		l.setLocked(rec.Trader, rec.Symbol, rec.Amount)
	}
}

// Deposit pulls amount of the token from the trader into exchange
// custody, then credits the entry. The credit happens only after the
// external pull succeeds, so a failed pull leaves the ledger untouched.
// Returns the new balance.
func (l *Ledger) Deposit(trader common.Address, symbol string, handle common.Address, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("deposit amount must be positive: %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.backend.TransferFrom(handle, l.exchange, trader, l.exchange, amount); err != nil {
		return 0, fmt.Errorf("%w: %v", dex.ErrTransferFailed, err)
	}

	next := l.balanceLocked(trader, symbol) + amount
	l.setLocked(trader, symbol, next)
	l.persistLocked(trader, symbol, next)

	l.log.Infow("deposit", "trader", trader.Hex(), "symbol", symbol, "amount", amount, "balance", next)
	return next, nil
}

// Withdraw debits the entry, then pushes the amount back to the trader
// on the external ledger. The debit comes first so a reentrant external
// call cannot observe the old balance; if the push fails the debit is
// restored before returning, leaving no partial state.
// Returns the new balance.
func (l *Ledger) Withdraw(trader common.Address, symbol string, handle common.Address, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("withdraw amount must be positive: %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.balanceLocked(trader, symbol)
	if cur < amount {
		return 0, fmt.Errorf("%w: have %d, need %d", dex.ErrInsufficientBalance, cur, amount)
	}

	next := cur - amount
	l.setLocked(trader, symbol, next)

	if err := l.backend.Transfer(handle, l.exchange, trader, amount); err != nil {
		l.setLocked(trader, symbol, cur)
		return 0, fmt.Errorf("%w: %v", dex.ErrTransferFailed, err)
	}

	l.persistLocked(trader, symbol, next)

	l.log.Infow("withdraw", "trader", trader.Hex(), "symbol", symbol, "amount", amount, "balance", next)
	return next, nil
}

// BalanceOf returns the custodial balance for (trader, symbol).
func (l *Ledger) BalanceOf(trader common.Address, symbol string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceLocked(trader, symbol)
}

// Balances returns a snapshot of every entry for a trader.
func (l *Ledger) Balances(trader common.Address) map[string]int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]int64, len(l.balances[trader]))
	for sym, amt := range l.balances[trader] {
		out[sym] = amt
	}
	return out
}

// Credit adds amount during trade settlement. Persistence is the
// caller's responsibility (the engine batches the whole fill).
func (l *Ledger) Credit(trader common.Address, symbol string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setLocked(trader, symbol, l.balanceLocked(trader, symbol)+amount)
}

// Debit removes amount during trade settlement. The engine validates
// solvency before settling, so the shortfall branch must never run;
// the check stays as a defensive invariant.
func (l *Ledger) Debit(trader common.Address, symbol string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.balanceLocked(trader, symbol)
	if cur < amount {
		return fmt.Errorf("%w: have %d, need %d", dex.ErrInsufficientBalance, cur, amount)
	}
	l.setLocked(trader, symbol, cur-amount)
	return nil
}

func (l *Ledger) balanceLocked(trader common.Address, symbol string) int64 {
	return l.balances[trader][symbol]
}

func (l *Ledger) setLocked(trader common.Address, symbol string, amount int64) {
	entries, ok := l.balances[trader]
	if !ok {
		entries = make(map[string]int64)
		l.balances[trader] = entries
	}
	entries[symbol] = amount
}

// persistLocked writes one entry through the store. By the time it
// runs the external transfer has already happened, so the in-memory
// entry is authoritative: a failed write is logged, not surfaced, and
// the key is rewritten on the next change.
func (l *Ledger) persistLocked(trader common.Address, symbol string, amount int64) {
	if l.store == nil {
		return
	}
	if err := l.store.SaveBalance(trader, symbol, amount); err != nil {
		l.log.Errorw("balance_persist_failed", "trader", trader.Hex(), "symbol", symbol, "err", err)
	}
}
