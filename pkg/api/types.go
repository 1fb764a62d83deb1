package api

// API request/response types for REST endpoints and WebSocket messages

// ==============================
// REST Request Types
// ==============================

// SubmitOrderRequest is the payload for POST /api/v1/orders.
// Price applies to limit orders; partialFill and fallbackPrice to market
// orders.
type SubmitOrderRequest struct {
	ID            int64  `json:"id"`
	Kind          string `json:"kind"` // "limit" or "market"
	Side          string `json:"side"` // "buy" or "sell"
	Price         int64  `json:"price,omitempty"`
	Qty           int64  `json:"qty"`
	PartialFill   string `json:"partialFill,omitempty"` // "cancel" or "convert_to_limit"
	FallbackPrice int64  `json:"fallbackPrice,omitempty"`
}

// CancelOrderRequest is the payload for POST /api/v1/orders/cancel.
type CancelOrderRequest struct {
	ID int64 `json:"id"`
}

// ==============================
// REST Response Types
// ==============================

// SubmitOrderResponse acknowledges an accepted order. AvgPrice is the
// volume-weighted average execution price, set for market orders only.
type SubmitOrderResponse struct {
	ID       int64   `json:"id"`
	Status   string  `json:"status"`
	AvgPrice float64 `json:"avgPrice,omitempty"`
}

// BookOrder is one resting order in a depth snapshot.
type BookOrder struct {
	ID    int64 `json:"id"`
	Price int64 `json:"price"`
	Qty   int64 `json:"qty"`
}

// BookSnapshot is the current book state down to a configured depth.
// Bids are sorted high to low, asks low to high.
type BookSnapshot struct {
	Asset     string      `json:"asset"`
	Bids      []BookOrder `json:"bids"`
	Asks      []BookOrder `json:"asks"`
	BestBid   *int64      `json:"bestBid,omitempty"`
	BestAsk   *int64      `json:"bestAsk,omitempty"`
	Timestamp int64       `json:"timestamp"` // Unix milliseconds
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
