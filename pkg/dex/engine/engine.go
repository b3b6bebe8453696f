// Package engine ties the registry, ledger and order book together
// into the exchange: the validation gate in front of every mutation,
// limit order placement, and market order matching with settlement.
//
// Every mutating operation runs as one atomic state transition behind
// the exchange lock. Checks happen before any mutation, so a failed
// operation leaves the ledger and the book exactly as they were.
package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/book"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/ledger"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/store"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/token"
)

// Fill describes one slice of a market order executed against a
// resting order, at the resting order's posted price.
type Fill struct {
	MakerOrderID uint64         `json:"makerOrderId"`
	Maker        common.Address `json:"maker"`
	Price        int64          `json:"price"`
	Qty          int64          `json:"qty"`
}

// Exchange is the trading core. All mutating operations (deposit,
// withdraw, order creation) serialize behind mu; read-only queries
// take the read lock and never observe a mutation mid-flight.
type Exchange struct {
	mu       sync.RWMutex
	quote    string
	registry *token.Registry
	ledger   *ledger.Ledger
	book     *book.Book
	store    *store.Store // optional
	seq      uint64
	log      *zap.SugaredLogger

	// OnTrade is invoked after settlement for each fill, while the
	// operation still holds the exchange lock. Used by the API layer
	// to stream trades; must not call back into the exchange.
	OnTrade func(symbol string, price, qty int64, takerSide book.Side, ts int64)
}

// New creates an exchange priced in quote. store may be nil; log may
// be nil.
func New(quote string, reg *token.Registry, led *ledger.Ledger, st *store.Store, log *zap.SugaredLogger) *Exchange {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Exchange{
		quote:    token.Normalize(quote),
		registry: reg,
		ledger:   led,
		book:     book.New(),
		store:    st,
		seq:      1,
		log:      log,
	}
}

// Restore replays persisted state into the book and sequence counter.
// Called once at startup, before the exchange serves operations.
func (e *Exchange) Restore() error {
	if e.store == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	seq, err := e.store.LoadSeq()
	if err != nil {
		return err
	}
	if seq > e.seq {
		e.seq = seq
	}

	orders, err := e.store.LoadOrders()
	if err != nil {
		return err
	}
	for _, o := range orders {
		e.book.Insert(o)
	}

	if len(orders) > 0 {
		e.log.Infow("book_restored", "orders", len(orders), "next_seq", e.seq)
	}
	return nil
}

// Quote returns the normalized quote symbol.
func (e *Exchange) Quote() string {
	return e.quote
}

// RegisterToken registers a tradable token. Admin only.
func (e *Exchange) RegisterToken(caller common.Address, symbol string, handle common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.registry.Register(caller, symbol, handle); err != nil {
		return err
	}
	e.log.Infow("token_registered", "symbol", token.Normalize(symbol), "handle", handle.Hex())
	return nil
}

// Tokens lists registered tokens in registration order.
func (e *Exchange) Tokens() []token.Asset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.List()
}

// Deposit pulls amount of symbol from the trader into custody.
// Returns the new custodial balance.
func (e *Exchange) Deposit(trader common.Address, symbol string, amount int64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sym := token.Normalize(symbol)
	handle, err := e.registry.Resolve(sym)
	if err != nil {
		return 0, err
	}
	return e.ledger.Deposit(trader, sym, handle, amount)
}

// Withdraw pushes amount of symbol from custody back to the trader.
// Returns the new custodial balance.
func (e *Exchange) Withdraw(trader common.Address, symbol string, amount int64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sym := token.Normalize(symbol)
	handle, err := e.registry.Resolve(sym)
	if err != nil {
		return 0, err
	}
	return e.ledger.Withdraw(trader, sym, handle, amount)
}

// BalanceOf returns the custodial balance for (trader, symbol).
func (e *Exchange) BalanceOf(trader common.Address, symbol string) int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.BalanceOf(trader, token.Normalize(symbol))
}

// Balances returns every custodial entry for a trader.
func (e *Exchange) Balances(trader common.Address) map[string]int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Balances(trader)
}

// Orders returns a snapshot of the resting sequence, best price first.
func (e *Exchange) Orders(symbol string, side book.Side) []book.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.book.Orders(token.Normalize(symbol), side)
}

// gate runs the shared preconditions, in order: the asset must be
// registered, and must not be the quote asset. First failure wins.
func (e *Exchange) gate(sym string) error {
	if _, err := e.registry.Resolve(sym); err != nil {
		return err
	}
	if sym == e.quote {
		return fmt.Errorf("%w: %s", dex.ErrQuoteNotTradable, sym)
	}
	return nil
}

// CreateLimitOrder validates the order and rests it on its own side of
// the book. Limit orders never self-execute against the opposite side;
// they are consumed by later incoming orders. No balances move at
// creation time. Returns the order id.
func (e *Exchange) CreateLimitOrder(trader common.Address, symbol string, side book.Side, price, amount int64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sym := token.Normalize(symbol)
	if err := e.gate(sym); err != nil {
		return 0, err
	}
	if price <= 0 {
		return 0, fmt.Errorf("limit price must be positive: %d", price)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("order amount must be positive: %d", amount)
	}
	// The full notional must fit in int64; settlement arithmetic
	// multiplies price by quantity and relies on it staying positive.
	if price > math.MaxInt64/amount {
		return 0, fmt.Errorf("order value overflows: %d at price %d", amount, price)
	}

	if side == book.Buy {
		if have := e.ledger.BalanceOf(trader, e.quote); have < price*amount {
			return 0, fmt.Errorf("%w: have %d, need %d", dex.ErrInsufficientQuoteBalance, have, price*amount)
		}
	} else {
		if have := e.ledger.BalanceOf(trader, sym); have < amount {
			return 0, fmt.Errorf("%w: have %d, need %d", dex.ErrInsufficientAssetBalance, have, amount)
		}
	}

	o := &book.Order{
		ID:        e.seq,
		Trader:    trader,
		Symbol:    sym,
		Side:      side,
		Price:     price,
		Amount:    amount,
		CreatedAt: time.Now().UnixMilli(),
	}
	e.seq++
	e.book.Insert(o)

	if e.store != nil {
		if err := e.store.SaveOrder(o); err != nil {
			e.log.Errorw("order_persist_failed", "id", o.ID, "err", err)
		}
		if err := e.store.SaveSeq(e.seq); err != nil {
			e.log.Errorw("seq_persist_failed", "err", err)
		}
	}

	e.log.Infow("limit_order",
		"id", o.ID, "trader", trader.Hex(), "symbol", sym,
		"side", side.String(), "price", price, "amount", amount)
	return o.ID, nil
}

// fillPlan is one step of a market order walk, computed in the dry run
// and applied verbatim in the mutation phase.
type fillPlan struct {
	maker *book.Order
	qty   int64
}

// CreateMarketOrder sweeps the opposing book at posted prices. The
// walk is computed twice: a read-only dry run that prices the sweep
// and runs every solvency check, then a mutation phase applied only if
// all checks passed. A market order that outsizes the book's depth is
// a partial fill, not an error; the remainder is dropped. Returns the
// filled quantity.
func (e *Exchange) CreateMarketOrder(trader common.Address, symbol string, side book.Side, amount int64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sym := token.Normalize(symbol)
	if err := e.gate(sym); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, fmt.Errorf("order amount must be positive: %d", amount)
	}

	// Dry run: walk the opposing sequence head-first, matching
	// min(remaining, open) per resting order.
	opposing := e.book.Resting(sym, side.Opposite())
	var (
		plans     []fillPlan
		totalCost int64
		remaining = amount
	)
	for _, maker := range opposing {
		if remaining == 0 {
			break
		}
		matched := min64(remaining, maker.Remaining())
		plans = append(plans, fillPlan{maker: maker, qty: matched})

		// matched*Price fits: the gate bounded the maker's notional.
		// The running total across makers still has to be checked.
		cost, ok := add64(totalCost, matched*maker.Price)
		if !ok {
			return 0, fmt.Errorf("sweep cost overflows: order %d at price %d", maker.ID, maker.Price)
		}
		totalCost = cost
		remaining -= matched
	}

	// Taker solvency. SELL is checked against the requested amount up
	// front, BUY against the dry-run cost of the matched depth.
	if side == book.Sell {
		if have := e.ledger.BalanceOf(trader, sym); have < amount {
			return 0, fmt.Errorf("%w: have %d, need %d", dex.ErrInsufficientAssetBalance, have, amount)
		}
	} else {
		if have := e.ledger.BalanceOf(trader, e.quote); have < totalCost {
			return 0, fmt.Errorf("%w: have %d, need %d", dex.ErrInsufficientQuoteBalance, have, totalCost)
		}
	}

	// Maker solvency, simulated over the whole sweep so the mutation
	// phase cannot fail halfway. A maker going short here means its
	// balance changed since its limit order was gated; the operation
	// aborts with the ledger's defensive error before anything moves.
	owed := make(map[common.Address]int64)
	for _, p := range plans {
		pay := p.qty // maker pays asset
		if side == book.Sell {
			pay = p.qty * p.maker.Price // maker pays quote
		}
		sum, ok := add64(owed[p.maker.Trader], pay)
		if !ok {
			return 0, fmt.Errorf("%w: maker %s settlement total overflows", dex.ErrInsufficientBalance, p.maker.Trader.Hex())
		}
		owed[p.maker.Trader] = sum
	}
	paySym := e.quote
	if side == book.Buy {
		paySym = sym
	}
	for maker, need := range owed {
		if have := e.ledger.BalanceOf(maker, paySym); have < need {
			return 0, fmt.Errorf("%w: maker %s has %d %s, settlement needs %d",
				dex.ErrInsufficientBalance, maker.Hex(), have, paySym, need)
		}
	}

	// Mutation phase. Debits cannot fail after the checks above; an
	// error here is a broken invariant and aborts loudly.
	ts := time.Now().UnixMilli()
	fills := make([]Fill, 0, len(plans))
	for _, p := range plans {
		maker := p.maker
		cost := p.qty * maker.Price
		maker.Filled += p.qty

		var err error
		if side == book.Buy {
			// Taker pays quote for the asset.
			if err = e.ledger.Debit(trader, e.quote, cost); err == nil {
				err = e.ledger.Debit(maker.Trader, sym, p.qty)
			}
			if err != nil {
				return 0, fmt.Errorf("settlement debit: %w", err)
			}
			e.ledger.Credit(maker.Trader, e.quote, cost)
			e.ledger.Credit(trader, sym, p.qty)
		} else {
			// Taker delivers the asset for quote.
			if err = e.ledger.Debit(trader, sym, p.qty); err == nil {
				err = e.ledger.Debit(maker.Trader, e.quote, cost)
			}
			if err != nil {
				return 0, fmt.Errorf("settlement debit: %w", err)
			}
			e.ledger.Credit(trader, e.quote, cost)
			e.ledger.Credit(maker.Trader, sym, p.qty)
		}

		fills = append(fills, Fill{MakerOrderID: maker.ID, Maker: maker.Trader, Price: maker.Price, Qty: p.qty})
	}

	e.book.RemoveExhausted(sym, side.Opposite())
	e.persistSettlement(trader, sym, plans)

	for _, f := range fills {
		e.log.Infow("trade",
			"symbol", sym, "taker", trader.Hex(), "taker_side", side.String(),
			"maker_order", f.MakerOrderID, "price", f.Price, "qty", f.Qty)
		if e.OnTrade != nil {
			e.OnTrade(sym, f.Price, f.Qty, side, ts)
		}
	}

	return amount - remaining, nil
}

// persistSettlement writes every balance and order touched by a market
// order through one Pebble batch: the fill lands completely or not at
// all.
func (e *Exchange) persistSettlement(taker common.Address, sym string, plans []fillPlan) {
	if e.store == nil || len(plans) == 0 {
		return
	}

	batch := e.store.NewBatch()
	defer batch.Close()

	touched := map[common.Address]struct{}{taker: {}}
	for _, p := range plans {
		touched[p.maker.Trader] = struct{}{}
		var err error
		if p.maker.Exhausted() {
			err = batch.DeleteOrder(p.maker)
		} else {
			err = batch.SetOrder(p.maker)
		}
		if err != nil {
			e.log.Errorw("settlement_persist_failed", "order", p.maker.ID, "err", err)
			return
		}
	}

	for addr := range touched {
		for _, s := range []string{sym, e.quote} {
			if err := batch.SetBalance(addr, s, e.ledger.BalanceOf(addr, s)); err != nil {
				e.log.Errorw("settlement_persist_failed", "trader", addr.Hex(), "err", err)
				return
			}
		}
	}

	if err := batch.Commit(); err != nil {
		e.log.Errorw("settlement_commit_failed", "err", err)
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// add64 sums two non-negative values, reporting overflow.
func add64(a, b int64) (int64, bool) {
	if a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}
