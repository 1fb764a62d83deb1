package book

import "time"

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

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Kind selects the matching algorithm for an order.
type Kind int8

const (
	KindLimit Kind = iota
	KindMarket
)

func (k Kind) String() string {
	switch k {
	case KindLimit:
		return "limit"
	case KindMarket:
		return "market"
	default:
		return "unknown"
	}
}

// PartialFill decides what happens to a market order's remainder after the
// opposing book runs out of liquidity.
type PartialFill int8

const (
	// CancelRemainder discards the unfilled quantity with no resting effect.
	CancelRemainder PartialFill = iota
	// ConvertToLimit rests the remainder as a limit order at the best
	// opposite-side price observed during the sweep.
	ConvertToLimit
)

func (p PartialFill) String() string {
	switch p {
	case CancelRemainder:
		return "cancel"
	case ConvertToLimit:
		return "convert_to_limit"
	default:
		return "unknown"
	}
}

// Order is a single resting or incoming order. Limit and market orders share
// one struct discriminated by Kind; Price is meaningful only for limit orders,
// PartialFill and FallbackPrice only for market orders.
//
// Qty is the remaining quantity. It only ever decreases; cancellation forces
// it to zero. Prices are integer ticks.
type Order struct {
	ID        int64
	Asset     string
	Side      Side
	Kind      Kind
	Price     int64
	Qty       int64
	Timestamp time.Time
	Seq       int64

	PartialFill   PartialFill
	FallbackPrice int64 // 0 = unset; used only when converting with no observed price
}

// NewLimitOrder builds a resting-capable limit order.
// Fails if quantity is not positive.
func NewLimitOrder(id, price, qty int64, side Side, asset string) (*Order, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	return &Order{
		ID:    id,
		Asset: asset,
		Side:  side,
		Kind:  KindLimit,
		Price: price,
		Qty:   qty,
	}, nil
}

// NewMarketOrder builds a market order that consumes resting liquidity
// irrespective of price. Fails if quantity is not positive.
func NewMarketOrder(id, qty int64, side Side, asset string, pf PartialFill, fallbackPrice int64) (*Order, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	return &Order{
		ID:            id,
		Asset:         asset,
		Side:          side,
		Kind:          KindMarket,
		Qty:           qty,
		PartialFill:   pf,
		FallbackPrice: fallbackPrice,
	}, nil
}

// less is the side-aware priority order over resting limit orders.
// Better price first (bids: higher, asks: lower), then earlier timestamp,
// then earlier arrival sequence. The two sides never share one comparator;
// the side parameter flips the price leg.
func less(a, b *Order, side Side) bool {
	if a.Price != b.Price {
		if side == Buy {
			return a.Price > b.Price
		}
		return a.Price < b.Price
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.Seq < b.Seq
}
