package api

// API request/response types for REST endpoints and WebSocket messages

// ==============================
// REST Request Types
// ==============================

// RegisterTokenRequest is the payload for POST /api/v1/tokens.
// Caller must be the configured admin address.
type RegisterTokenRequest struct {
	Caller string `json:"caller"` // admin's Ethereum address
	Symbol string `json:"symbol"` // e.g. "REP"
	Handle string `json:"handle"` // token contract address on the asset ledger
}

// TransferRequest is the payload for POST /api/v1/deposits and
// POST /api/v1/withdrawals.
type TransferRequest struct {
	Trader string `json:"trader"`
	Symbol string `json:"symbol"`
	Amount int64  `json:"amount"`
}

// CreateOrderRequest is the payload for POST /api/v1/orders.
// Type "limit" requires a positive price; "market" ignores it.
type CreateOrderRequest struct {
	Trader string `json:"trader"`
	Symbol string `json:"symbol"`
	Side   string `json:"side"` // "buy" or "sell"
	Type   string `json:"type"` // "limit" or "market"
	Price  int64  `json:"price,omitempty"`
	Amount int64  `json:"amount"`
}

// ==============================
// REST Response Types
// ==============================

// TokenInfo is one registered token.
type TokenInfo struct {
	Symbol string `json:"symbol"`
	Handle string `json:"handle"`
}

// BalanceInfo is a trader's custodial balance in one token.
type BalanceInfo struct {
	Trader  string `json:"trader"`
	Symbol  string `json:"symbol"`
	Balance int64  `json:"balance"`
}

// OrderInfo is one resting order, as seen in a book snapshot.
type OrderInfo struct {
	ID        uint64 `json:"id"`
	Trader    string `json:"trader"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	Price     int64  `json:"price"`
	Amount    int64  `json:"amount"`
	Filled    int64  `json:"filled"`
	Remaining int64  `json:"remaining"`
	CreatedAt int64  `json:"createdAt"`
}

// OrderbookSnapshot is one side of a book, best price first.
type OrderbookSnapshot struct {
	Symbol    string      `json:"symbol"`
	Side      string      `json:"side"`
	Orders    []OrderInfo `json:"orders"`
	Timestamp int64       `json:"timestamp"` // Unix milliseconds
}

// CreateOrderResponse reports the outcome of an order submission.
// Limit orders carry the assigned id; market orders the filled
// quantity (a partial fill against a shallow book is not an error).
type CreateOrderResponse struct {
	Status  string `json:"status"` // "resting" or "executed"
	OrderID uint64 `json:"orderId,omitempty"`
	Filled  int64  `json:"filled,omitempty"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g. ["orderbook:REP", "trades:REP"]
}

// OrderbookUpdate is broadcast after every order placement or fill.
type OrderbookUpdate struct {
	Type      string      `json:"type"` // "orderbook"
	Symbol    string      `json:"symbol"`
	Bids      []OrderInfo `json:"bids"`
	Asks      []OrderInfo `json:"asks"`
	Timestamp int64       `json:"timestamp"`
}

// TradeUpdate is broadcast when a trade executes
type TradeUpdate struct {
	Type      string `json:"type"` // "trade"
	Symbol    string `json:"symbol"`
	Price     int64  `json:"price"`
	Qty       int64  `json:"qty"`
	Side      string `json:"side"` // taker side
	Timestamp int64  `json:"timestamp"`
}
