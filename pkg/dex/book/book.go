// Package book implements the resting order book: one price-ordered,
// insertion-stable sequence per (symbol, side).
package book

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Side is the direction of an order.
type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// ParseSide accepts "buy"/"sell" and the numeric encoding 0/1.
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy", "BUY", "0":
		return Buy, nil
	case "sell", "SELL", "1":
		return Sell, nil
	default:
		return 0, fmt.Errorf("invalid side %q", s)
	}
}

// Order is a resting limit order. Everything but Filled is fixed at
// creation; Filled only grows, and the order leaves the book exactly
// when Filled reaches Amount. Market orders never become Orders: they
// are transient and only consume the opposing sequence.
type Order struct {
	ID        uint64         `json:"id"`
	Trader    common.Address `json:"trader"`
	Symbol    string         `json:"symbol"`
	Side      Side           `json:"side"`
	Price     int64          `json:"price"` // quote units per asset unit; 0 never rests
	Amount    int64          `json:"amount"`
	Filled    int64          `json:"filled"`
	CreatedAt int64          `json:"createdAt"` // Unix milliseconds
}

// Remaining returns unfilled quantity.
func (o *Order) Remaining() int64 {
	return o.Amount - o.Filled
}

// Exhausted reports whether the order is fully filled.
func (o *Order) Exhausted() bool {
	return o.Filled >= o.Amount
}

type bookKey struct {
	symbol string
	side   Side
}

// Book holds every resting sequence. Invariants per sequence: BUY side
// sorted by descending price, SELL side ascending, equal prices in
// insertion order. Orders rest only while Filled < Amount.
//
// The Book has its own lock for snapshot reads, but all mutation goes
// through the matching engine, which additionally serializes whole
// operations (insert + fill + trim) behind its own lock.
type Book struct {
	mu     sync.RWMutex
	orders map[bookKey][]*Order
}

func New() *Book {
	return &Book{orders: make(map[bookKey][]*Order)}
}

// ranksBefore reports whether a new order at price p must be placed
// before the resting order r. Equal prices keep the earlier order
// first, so equality never ranks before.
func ranksBefore(side Side, p int64, r *Order) bool {
	if side == Buy {
		return p > r.Price
	}
	return p < r.Price
}

// Insert places o at its price-time position: linear scan from the
// head, past every order with equal or better price, then shift the
// tail back one slot. Resting orders never move relative to each other.
func (b *Book) Insert(o *Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := bookKey{symbol: o.Symbol, side: o.Side}
	seq := b.orders[key]

	i := 0
	for i < len(seq) && !ranksBefore(o.Side, o.Price, seq[i]) {
		i++
	}

	seq = append(seq, nil)
	copy(seq[i+1:], seq[i:])
	seq[i] = o
	b.orders[key] = seq
}

// Resting returns the live sequence for a side. Callers mutate the
// orders in place during matching and must hold the engine lock; use
// Orders for a safe snapshot.
func (b *Book) Resting(symbol string, side Side) []*Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.orders[bookKey{symbol: symbol, side: side}]
}

// Orders returns a snapshot copy of the sequence, best price first.
func (b *Book) Orders(symbol string, side Side) []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seq := b.orders[bookKey{symbol: symbol, side: side}]
	out := make([]Order, len(seq))
	for i, o := range seq {
		out[i] = *o
	}
	return out
}

// RemoveExhausted drops every fully filled order from the sequence,
// preserving the order of survivors. Matching consumes from the head,
// so in practice this trims a prefix.
func (b *Book) RemoveExhausted(symbol string, side Side) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := bookKey{symbol: symbol, side: side}
	seq := b.orders[key]

	kept := seq[:0]
	for _, o := range seq {
		if !o.Exhausted() {
			kept = append(kept, o)
		}
	}
	removed := len(seq) - len(kept)
	for i := len(kept); i < len(seq); i++ {
		seq[i] = nil
	}

	if len(kept) == 0 {
		delete(b.orders, key)
	} else {
		b.orders[key] = kept
	}
	return removed
}

// Depth returns the number of resting orders on a side.
func (b *Book) Depth(symbol string, side Side) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders[bookKey{symbol: symbol, side: side}])
}
