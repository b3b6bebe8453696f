// Package asset models the external fungible-asset ledger the exchange
// settles against. The exchange only ever sees the Bank: a resolver
// from token handle to the token's balances, with ERC-20 style
// transfer semantics (fail-fast, no partial transfer).
package asset

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownToken          = errors.New("unknown token handle")
	ErrInsufficientFunds     = errors.New("insufficient token funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Token is one fungible asset: per-holder balances and per-(owner,
// spender) allowances. All mutations go through the owning Bank's lock.
type Token struct {
	Symbol     string
	Handle     common.Address
	balances   map[common.Address]int64
	allowances map[common.Address]map[common.Address]int64
}

func newToken(symbol string, handle common.Address) *Token {
	return &Token{
		Symbol:     symbol,
		Handle:     handle,
		balances:   make(map[common.Address]int64),
		allowances: make(map[common.Address]map[common.Address]int64),
	}
}

// Bank is the in-process stand-in for the external asset ledger.
// Handles are synthetic addresses assigned at issuance.
type Bank struct {
	mu     sync.RWMutex
	tokens map[common.Address]*Token
	nextID uint64
}

func NewBank() *Bank {
	return &Bank{tokens: make(map[common.Address]*Token)}
}

// Issue creates a new token and returns its handle.
func (b *Bank) Issue(symbol string) common.Address {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	var handle common.Address
	handle[0] = 0xa5 // asset namespace, avoids colliding with user addresses
	for i, n := uint64(0), b.nextID; n > 0; i, n = i+1, n>>8 {
		handle[common.AddressLength-1-i] = byte(n)
	}

	b.tokens[handle] = newToken(symbol, handle)
	return handle
}

// Faucet mints amount to the recipient. Devnet only.
func (b *Bank) Faucet(token, to common.Address, amount int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tokens[token]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token.Hex())
	}
	t.balances[to] += amount
	return nil
}

// Approve lets spender move up to amount of owner's tokens.
func (b *Bank) Approve(token, owner, spender common.Address, amount int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tokens[token]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token.Hex())
	}
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]int64)
	}
	t.allowances[owner][spender] = amount
	return nil
}

// TransferFrom moves amount from owner to recipient on behalf of
// spender. Fails whole if allowance or balance is short.
func (b *Bank) TransferFrom(token, spender, owner, recipient common.Address, amount int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tokens[token]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token.Hex())
	}
	allowed := t.allowances[owner][spender]
	if allowed < amount {
		return fmt.Errorf("%w: allowed %d, need %d", ErrInsufficientAllowance, allowed, amount)
	}
	if t.balances[owner] < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, t.balances[owner], amount)
	}

	t.allowances[owner][spender] = allowed - amount
	t.balances[owner] -= amount
	t.balances[recipient] += amount
	return nil
}

// Transfer moves amount from the sender's own holdings.
func (b *Bank) Transfer(token, from, to common.Address, amount int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tokens[token]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token.Hex())
	}
	if t.balances[from] < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, t.balances[from], amount)
	}

	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}

// BalanceOf returns the holder's balance on the external ledger.
// Unknown tokens read as zero.
func (b *Bank) BalanceOf(token, holder common.Address) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.tokens[token]
	if !ok {
		return 0
	}
	return t.balances[holder]
}
