// Package token keeps the registry of tradable assets: a symbol to
// external-handle map with an admin-only, append-only write path.
package token

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex"
)

// Asset is one registered token: normalized symbol plus the handle of
// the backing contract on the external asset ledger.
type Asset struct {
	Symbol string         `json:"symbol"`
	Handle common.Address `json:"handle"`
}

// Registry manages registered tokens in a thread-safe manner.
// Registration is append-only: no removal, no re-registration.
type Registry struct {
	mu      sync.RWMutex
	admin   common.Address
	symbols []string // registration order, for stable listing
	assets  map[string]Asset
}

// NewRegistry creates a registry whose write path is gated on admin.
// The admin is fixed at construction; there is no way to rotate it.
func NewRegistry(admin common.Address) *Registry {
	return &Registry{
		admin:  admin,
		assets: make(map[string]Asset),
	}
}

// Normalize canonicalizes a symbol: upper-cased with surrounding
// whitespace and NUL padding stripped. Clients may send symbols as
// right-padded fixed-width byte strings, so padding must not make
// "REP" and "REP\x00" distinct keys.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.Trim(symbol, " \x00"))
}

// Register adds a token under its normalized symbol.
func (r *Registry) Register(caller common.Address, symbol string, handle common.Address) error {
	if caller != r.admin {
		return fmt.Errorf("%w: caller %s", dex.ErrNotAuthorized, caller.Hex())
	}

	sym := Normalize(symbol)
	if sym == "" {
		return fmt.Errorf("empty token symbol")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assets[sym]; exists {
		return fmt.Errorf("%w: %s", dex.ErrAlreadyRegistered, sym)
	}

	r.assets[sym] = Asset{Symbol: sym, Handle: handle}
	r.symbols = append(r.symbols, sym)
	return nil
}

// Resolve returns the external handle for a symbol.
func (r *Registry) Resolve(symbol string) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.assets[Normalize(symbol)]
	if !exists {
		return common.Address{}, fmt.Errorf("%w: %s", dex.ErrUnknownAsset, Normalize(symbol))
	}
	return a.Handle, nil
}

// Exists checks if a symbol is registered.
func (r *Registry) Exists(symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.assets[Normalize(symbol)]
	return exists
}

// List returns all registered assets in registration order.
func (r *Registry) List() []Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Asset, 0, len(r.symbols))
	for _, sym := range r.symbols {
		out = append(out, r.assets[sym])
	}
	return out
}

// Count returns the total number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets)
}
