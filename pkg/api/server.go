package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/pviana/matchbook/pkg/book"
)

// TradeLister reads back recorded trade history.
type TradeLister interface {
	List(limit int) ([]book.Trade, error)
}

// Server exposes one order book over REST and a WebSocket trade feed.
//
// The engine is single-threaded and non-reentrant, so the server serializes
// all book access behind one mutex: single-writer discipline is the caller's
// responsibility, and here the server is that caller.
type Server struct {
	book    *book.Book
	factory *book.Factory
	trades  TradeLister
	router  *mux.Router
	hub     *Hub
	log     *zap.SugaredLogger
	depth   int

	mu sync.Mutex // serializes book access
}

// NewServer creates the API server for one book.
func NewServer(b *book.Book, trades TradeLister, hub *Hub, depth int, log *zap.SugaredLogger) *Server {
	s := &Server{
		book:    b,
		factory: book.NewFactory(),
		trades:  trades,
		router:  mux.NewRouter(),
		hub:     hub,
		log:     log,
		depth:   depth,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/book", s.handleGetBook).Methods("GET")
	api.HandleFunc("/trades", s.handleGetTrades).Methods("GET")
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start runs the hub and serves HTTP on addr.
func (s *Server) Start(addr string, allowedOrigins []string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	bids := s.book.ListBids(s.depth)
	asks := s.book.ListAsks(s.depth)
	bestBid, hasBid := s.book.BestBid()
	bestAsk, hasAsk := s.book.BestAsk()
	s.mu.Unlock()

	snapshot := BookSnapshot{
		Asset:     s.book.Asset(),
		Bids:      toBookOrders(bids),
		Asks:      toBookOrders(asks),
		Timestamp: time.Now().UnixMilli(),
	}
	if hasBid {
		snapshot.BestBid = &bestBid
	}
	if hasAsk {
		snapshot.BestAsk = &bestAsk
	}

	respondJSON(w, snapshot)
}

func toBookOrders(orders []book.Order) []BookOrder {
	out := make([]BookOrder, len(orders))
	for i, o := range orders {
		out[i] = BookOrder{ID: o.ID, Price: o.Price, Qty: o.Qty}
	}
	return out
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := s.depth
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	trades, err := s.trades.List(limit)
	if err != nil {
		s.log.Errorw("trade_list_failed", "err", err)
		respondError(w, http.StatusInternalServerError, "trade history unavailable", err.Error())
		return
	}
	if trades == nil {
		trades = []book.Trade{}
	}
	respondJSON(w, trades)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	kind, err := book.ParseKind(req.Kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order kind", err.Error())
		return
	}
	side, err := book.ParseSide(req.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order side", err.Error())
		return
	}
	pf, err := book.ParsePartialFill(req.PartialFill)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid partial fill behavior", err.Error())
		return
	}

	order, err := s.factory.Create(kind, book.OrderRequest{
		ID:            req.ID,
		Asset:         s.book.Asset(),
		Side:          side,
		Price:         req.Price,
		Qty:           req.Qty,
		PartialFill:   pf,
		FallbackPrice: req.FallbackPrice,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		return
	}

	s.mu.Lock()
	avg, err := s.book.Add(order)
	s.mu.Unlock()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, book.ErrNoLiquidity) {
			status = http.StatusConflict
		}
		s.log.Warnw("order_rejected", "order_id", req.ID, "err", err)
		respondError(w, status, "order not fully processed", err.Error())
		return
	}

	respondJSON(w, SubmitOrderResponse{ID: req.ID, Status: "accepted", AvgPrice: avg})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	// Unknown ids are a no-op: cancel-after-fill races are expected.
	s.mu.Lock()
	s.book.Remove(req.ID)
	s.mu.Unlock()

	respondJSON(w, SubmitOrderResponse{ID: req.ID, Status: "cancelled"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok", "asset": s.book.Asset()})
}

// ==============================
// Helpers
// ==============================

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:  error,
		Detail: detail,
	})
}
