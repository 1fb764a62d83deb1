package book

import "time"

// Trade is an immutable execution fact, created only by a matcher at
// execution time.
type Trade struct {
	BuyOrderID  int64     `json:"buyOrderId"`
	SellOrderID int64     `json:"sellOrderId"`
	Price       int64     `json:"price"`
	Qty         int64     `json:"qty"`
	Asset       string    `json:"asset"`
	Timestamp   time.Time `json:"timestamp"`
}

// Recorder is the sink matchers post trades to. A failed Record aborts the
// in-progress match and propagates to the caller; a lost trade record is an
// auditability violation, never swallowed. Trades already recorded stay
// recorded — matching never rolls back.
type Recorder interface {
	Record(Trade) error
}
