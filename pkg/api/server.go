// Package api exposes the exchange over REST and WebSocket. Handlers
// translate HTTP into engine operations and map the engine's error
// taxonomy onto status codes, surfacing the error kind verbatim.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/book"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/engine"
)

// Server handles REST API and WebSocket connections
type Server struct {
	ex     *engine.Exchange
	router *mux.Router
	hub    *Hub // WebSocket hub
}

// NewServer creates a new API server and hooks the exchange's trade
// stream into the WebSocket hub.
func NewServer(ex *engine.Exchange) *Server {
	s := &Server{
		ex:     ex,
		router: mux.NewRouter(),
		hub:    NewHub(),
	}

	ex.OnTrade = func(symbol string, price, qty int64, takerSide book.Side, ts int64) {
		s.hub.BroadcastToChannel("trades:"+symbol, TradeUpdate{
			Type:      "trade",
			Symbol:    symbol,
			Price:     price,
			Qty:       qty,
			Side:      takerSide.String(),
			Timestamp: ts,
		})
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API v1 routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Token registry
	api.HandleFunc("/tokens", s.handleListTokens).Methods("GET")
	api.HandleFunc("/tokens", s.handleRegisterToken).Methods("POST")

	// Custodial balances
	api.HandleFunc("/deposits", s.handleDeposit).Methods("POST")
	api.HandleFunc("/withdrawals", s.handleWithdraw).Methods("POST")
	api.HandleFunc("/accounts/{address}/balances", s.handleGetBalances).Methods("GET")
	api.HandleFunc("/accounts/{address}/balances/{symbol}", s.handleGetBalance).Methods("GET")

	// Orders
	api.HandleFunc("/orders", s.handleCreateOrder).Methods("POST")
	api.HandleFunc("/orderbook/{symbol}/{side}", s.handleGetOrderbook).Methods("GET")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	// Start WebSocket hub
	go s.hub.Run()

	// CORS configuration
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	handler := c.Handler(s.router)
	return http.ListenAndServe(addr, handler)
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	assets := s.ex.Tokens()

	response := make([]TokenInfo, len(assets))
	for i, a := range assets {
		response[i] = TokenInfo{Symbol: a.Symbol, Handle: a.Handle.Hex()}
	}
	respondJSON(w, response)
}

func (s *Server) handleRegisterToken(w http.ResponseWriter, r *http.Request) {
	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}
	handle, ok := parseAddress(w, req.Handle)
	if !ok {
		return
	}

	if err := s.ex.RegisterToken(caller, req.Symbol, handle); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, map[string]string{"status": "registered", "symbol": req.Symbol})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	trader, ok := parseAddress(w, req.Trader)
	if !ok {
		return
	}

	balance, err := s.ex.Deposit(trader, req.Symbol, req.Amount)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, BalanceInfo{Trader: trader.Hex(), Symbol: req.Symbol, Balance: balance})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	trader, ok := parseAddress(w, req.Trader)
	if !ok {
		return
	}

	balance, err := s.ex.Withdraw(trader, req.Symbol, req.Amount)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, BalanceInfo{Trader: trader.Hex(), Symbol: req.Symbol, Balance: balance})
}

func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	trader, ok := parseAddress(w, mux.Vars(r)["address"])
	if !ok {
		return
	}

	balances := s.ex.Balances(trader)
	response := make([]BalanceInfo, 0, len(balances))
	for sym, amt := range balances {
		response = append(response, BalanceInfo{Trader: trader.Hex(), Symbol: sym, Balance: amt})
	}
	respondJSON(w, response)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	trader, ok := parseAddress(w, vars["address"])
	if !ok {
		return
	}

	balance := s.ex.BalanceOf(trader, vars["symbol"])
	respondJSON(w, BalanceInfo{Trader: trader.Hex(), Symbol: vars["symbol"], Balance: balance})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	trader, ok := parseAddress(w, req.Trader)
	if !ok {
		return
	}
	side, err := book.ParseSide(req.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}

	switch req.Type {
	case "limit":
		id, err := s.ex.CreateLimitOrder(trader, req.Symbol, side, req.Price, req.Amount)
		if err != nil {
			respondEngineError(w, err)
			return
		}
		s.broadcastOrderbook(req.Symbol)
		respondJSON(w, CreateOrderResponse{Status: "resting", OrderID: id})

	case "market":
		filled, err := s.ex.CreateMarketOrder(trader, req.Symbol, side, req.Amount)
		if err != nil {
			respondEngineError(w, err)
			return
		}
		s.broadcastOrderbook(req.Symbol)
		respondJSON(w, CreateOrderResponse{Status: "executed", Filled: filled})

	default:
		respondError(w, http.StatusBadRequest, "invalid order type", "expected limit or market")
	}
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	side, err := book.ParseSide(vars["side"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}

	orders := s.ex.Orders(vars["symbol"], side)
	response := OrderbookSnapshot{
		Symbol:    vars["symbol"],
		Side:      side.String(),
		Orders:    toOrderInfos(orders),
		Timestamp: time.Now().UnixMilli(),
	}
	respondJSON(w, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// broadcastOrderbook pushes both sides of a book to subscribed clients.
func (s *Server) broadcastOrderbook(symbol string) {
	update := OrderbookUpdate{
		Type:      "orderbook",
		Symbol:    symbol,
		Bids:      toOrderInfos(s.ex.Orders(symbol, book.Buy)),
		Asks:      toOrderInfos(s.ex.Orders(symbol, book.Sell)),
		Timestamp: time.Now().UnixMilli(),
	}
	s.hub.BroadcastToChannel("orderbook:"+symbol, update)
}

// ==============================
// Helper Functions
// ==============================

func toOrderInfos(orders []book.Order) []OrderInfo {
	out := make([]OrderInfo, len(orders))
	for i, o := range orders {
		out[i] = OrderInfo{
			ID:        o.ID,
			Trader:    o.Trader.Hex(),
			Symbol:    o.Symbol,
			Side:      o.Side.String(),
			Price:     o.Price,
			Amount:    o.Amount,
			Filled:    o.Filled,
			Remaining: o.Remaining(),
			CreatedAt: o.CreatedAt,
		}
	}
	return out
}

func parseAddress(w http.ResponseWriter, s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		respondError(w, http.StatusBadRequest, "invalid address", s)
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

// respondEngineError maps the exchange error taxonomy to HTTP status
// codes. The error kind reaches the client verbatim.
func respondEngineError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, dex.ErrUnknownAsset):
		status = http.StatusNotFound
	case errors.Is(err, dex.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, dex.ErrAlreadyRegistered):
		status = http.StatusConflict
	case errors.Is(err, dex.ErrQuoteNotTradable),
		errors.Is(err, dex.ErrInsufficientBalance),
		errors.Is(err, dex.ErrInsufficientQuoteBalance),
		errors.Is(err, dex.ErrInsufficientAssetBalance):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, dex.ErrTransferFailed):
		status = http.StatusBadGateway
	}
	respondError(w, status, err.Error(), "")
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
