// Package store provides Pebble-based persistence for the exchange:
// ledger balances, resting orders, and the order sequence counter.
// Settlement writes go through a single Batch so a fill either lands
// completely or not at all.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/book"
)

// BalanceRecord is one persisted ledger entry.
type BalanceRecord struct {
	Trader common.Address `json:"trader"`
	Symbol string         `json:"symbol"`
	Amount int64          `json:"amount"`
}

// Store wraps a Pebble database. Thread-safety comes from the callers:
// all writes happen under the exchange lock.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	opts := &pebble.Options{
		Cache:                 pebble.NewCache(64 << 20), // 64MB cache
		MemTableSize:          32 << 20,
		L0CompactionThreshold: 2,
		MaxOpenFiles:          1000,
		BytesPerSync:          512 << 10,
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBalance persists one ledger entry.
func (s *Store) SaveBalance(trader common.Address, symbol string, amount int64) error {
	rec := BalanceRecord{Trader: trader, Symbol: symbol, Amount: amount}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal balance: %w", err)
	}
	if err := s.db.Set(balanceKey(trader, symbol), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	return nil
}

// LoadBalances returns every persisted ledger entry.
func (s *Store) LoadBalances() ([]BalanceRecord, error) {
	prefix := balancePrefix()
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open balance iterator: %w", err)
	}
	defer iter.Close()

	var recs []BalanceRecord
	for iter.First(); iter.Valid(); iter.Next() {
		var rec BalanceRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue // skip invalid entries
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// SaveOrder persists a resting order.
func (s *Store) SaveOrder(o *book.Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	if err := s.db.Set(orderKey(o), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// DeleteOrder removes an order that left the book.
func (s *Store) DeleteOrder(o *book.Order) error {
	if err := s.db.Delete(orderKey(o), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// LoadOrders returns every persisted resting order in insertion order
// (ascending sequence id), so replaying them through Book.Insert
// reproduces the exact price-time sequence that was on disk.
func (s *Store) LoadOrders() ([]*book.Order, error) {
	prefix := orderPrefix()
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open order iterator: %w", err)
	}
	defer iter.Close()

	var orders []*book.Order
	for iter.First(); iter.Valid(); iter.Next() {
		var o book.Order
		if err := json.Unmarshal(iter.Value(), &o); err != nil {
			continue // skip invalid entries
		}
		orders = append(orders, &o)
	}

	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

// SaveSeq persists the next order sequence number.
func (s *Store) SaveSeq(seq uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	if err := s.db.Set(seqKey, buf[:], pebble.Sync); err != nil {
		return fmt.Errorf("failed to save sequence: %w", err)
	}
	return nil
}

// LoadSeq returns the persisted sequence number, or 0 if none.
func (s *Store) LoadSeq() (uint64, error) {
	data, closer, err := s.db.Get(seqKey)
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence: %w", err)
	}
	defer closer.Close()

	if len(data) != 8 {
		return 0, fmt.Errorf("corrupt sequence record: %d bytes", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// Batch accumulates settlement writes for one atomic commit.
type Batch struct {
	batch *pebble.Batch
}

// NewBatch creates a new batch writer.
func (s *Store) NewBatch() *Batch {
	return &Batch{batch: s.db.NewBatch()}
}

// SetBalance adds a balance write to the batch.
func (b *Batch) SetBalance(trader common.Address, symbol string, amount int64) error {
	rec := BalanceRecord{Trader: trader, Symbol: symbol, Amount: amount}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.batch.Set(balanceKey(trader, symbol), data, nil)
}

// SetOrder adds an order write to the batch.
func (b *Batch) SetOrder(o *book.Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return b.batch.Set(orderKey(o), data, nil)
}

// DeleteOrder adds an order removal to the batch.
func (b *Batch) DeleteOrder(o *book.Order) error {
	return b.batch.Delete(orderKey(o), nil)
}

// Commit writes the batch to Pebble atomically.
func (b *Batch) Commit() error {
	return b.batch.Commit(pebble.Sync)
}

// Close closes the batch without committing.
func (b *Batch) Close() error {
	return b.batch.Close()
}
