package store

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/book"
)

var trader = common.HexToAddress("0x0000000000000000000000000000000000000011")

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBalanceRoundTrip(t *testing.T) {
	s := openStore(t)

	if err := s.SaveBalance(trader, "DAI", 100); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveBalance(trader, "REP", 7); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Overwrite is last-write-wins.
	if err := s.SaveBalance(trader, "DAI", 150); err != nil {
		t.Fatalf("save: %v", err)
	}

	recs, err := s.LoadBalances()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("loaded %d records, want 2", len(recs))
	}
	got := make(map[string]int64)
	for _, rec := range recs {
		if rec.Trader != trader {
			t.Errorf("trader = %s, want %s", rec.Trader.Hex(), trader.Hex())
		}
		got[rec.Symbol] = rec.Amount
	}
	if got["DAI"] != 150 || got["REP"] != 7 {
		t.Errorf("balances = %v", got)
	}
}

func TestOrdersLoadInInsertionOrder(t *testing.T) {
	s := openStore(t)

	// Saved out of id order on purpose.
	for _, o := range []*book.Order{
		{ID: 3, Trader: trader, Symbol: "REP", Side: book.Buy, Price: 9, Amount: 5},
		{ID: 1, Trader: trader, Symbol: "REP", Side: book.Buy, Price: 10, Amount: 10},
		{ID: 2, Trader: trader, Symbol: "ZRX", Side: book.Sell, Price: 4, Amount: 2},
	} {
		if err := s.SaveOrder(o); err != nil {
			t.Fatalf("save order %d: %v", o.ID, err)
		}
	}

	orders, err := s.LoadOrders()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("loaded %d orders, want 3", len(orders))
	}
	for i, wantID := range []uint64{1, 2, 3} {
		if orders[i].ID != wantID {
			t.Fatalf("orders not in sequence order: %d at index %d", orders[i].ID, i)
		}
	}

	// Replaying through a book reproduces price-time priority.
	b := book.New()
	for _, o := range orders {
		b.Insert(o)
	}
	rep := b.Orders("REP", book.Buy)
	if len(rep) != 2 || rep[0].ID != 1 || rep[1].ID != 3 {
		t.Errorf("replayed REP buy sequence wrong: %+v", rep)
	}
}

func TestDeleteOrder(t *testing.T) {
	s := openStore(t)
	o := &book.Order{ID: 1, Trader: trader, Symbol: "REP", Side: book.Buy, Price: 10, Amount: 10}

	if err := s.SaveOrder(o); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.DeleteOrder(o); err != nil {
		t.Fatalf("delete: %v", err)
	}

	orders, err := s.LoadOrders()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("deleted order still loads: %+v", orders)
	}
}

func TestSeqRoundTrip(t *testing.T) {
	s := openStore(t)

	if seq, err := s.LoadSeq(); err != nil || seq != 0 {
		t.Fatalf("fresh store seq = %d, err %v", seq, err)
	}
	if err := s.SaveSeq(42); err != nil {
		t.Fatalf("save: %v", err)
	}
	if seq, err := s.LoadSeq(); err != nil || seq != 42 {
		t.Fatalf("seq = %d, err %v, want 42", seq, err)
	}
}

func TestBatchCommit(t *testing.T) {
	s := openStore(t)
	maker := &book.Order{ID: 1, Trader: trader, Symbol: "REP", Side: book.Buy, Price: 10, Amount: 10, Filled: 10}

	if err := s.SaveOrder(maker); err != nil {
		t.Fatalf("save: %v", err)
	}

	batch := s.NewBatch()
	if err := batch.SetBalance(trader, "DAI", 50); err != nil {
		t.Fatalf("batch balance: %v", err)
	}
	if err := batch.DeleteOrder(maker); err != nil {
		t.Fatalf("batch delete: %v", err)
	}
	if err := batch.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	recs, _ := s.LoadBalances()
	if len(recs) != 1 || recs[0].Amount != 50 {
		t.Errorf("batched balance missing: %+v", recs)
	}
	orders, _ := s.LoadOrders()
	if len(orders) != 0 {
		t.Errorf("batched delete missing: %+v", orders)
	}
}
