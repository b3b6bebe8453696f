package store

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/book"
)

// Key layout:
//
//	bal/{address}/{symbol}        -> balance record (JSON)
//	ord/{symbol}/{side}/{id}      -> resting order (JSON), id zero-padded
//	                                 so iteration order == insertion order
//	meta/seq                      -> next order sequence number

var seqKey = []byte("meta/seq")

func balanceKey(addr common.Address, symbol string) []byte {
	return []byte(fmt.Sprintf("bal/%s/%s", addr.Hex(), symbol))
}

func balancePrefix() []byte {
	return []byte("bal/")
}

func orderKey(o *book.Order) []byte {
	return []byte(fmt.Sprintf("ord/%s/%d/%020d", o.Symbol, o.Side, o.ID))
}

func orderPrefix() []byte {
	return []byte("ord/")
}

// keyUpperBound returns the smallest key greater than every key with
// the given prefix, for bounded iteration.
func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // prefix is all 0xff
}
