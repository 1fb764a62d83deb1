package book

import "fmt"

// limitMatcher realizes continuous price-time-priority matching for incoming
// limit orders. The incoming order is already resting on its side, so the
// algorithm is purely top-vs-top: while the spread crosses, the two best
// orders trade at the resting (maker) side's price.
type limitMatcher struct{}

func (limitMatcher) Match(b *Book, o *Order) (float64, error) {
	b.cleanup()
	for b.bids.Len() > 0 && b.asks.Len() > 0 {
		bid, ask := b.bids.peek(), b.asks.peek()
		if bid.Price < ask.Price {
			break
		}

		// Any crossing is caused by the incoming order, so the maker is
		// always the side opposite it.
		price := ask.Price
		if o.Side == Sell {
			price = bid.Price
		}
		qty := min64(bid.Qty, ask.Qty)

		if err := b.fill(bid, ask, price, qty); err != nil {
			return 0, err
		}
		if bid.Qty == 0 {
			b.retire(bid)
		}
		if ask.Qty == 0 {
			b.retire(ask)
		}
		b.cleanup()
	}
	return 0, nil
}

// marketMatcher sweeps the opposing side regardless of price: each fill
// executes at the resting order's price until the incoming order is filled or
// the opposing book drains. The leftover, if any, follows the order's
// partial-fill policy. Returns the volume-weighted average execution price
// over the original quantity.
type marketMatcher struct{}

func (marketMatcher) Match(b *Book, o *Order) (float64, error) {
	opposing := b.asks
	if o.Side == Sell {
		opposing = b.bids
	}

	var notional int64
	var bestSeen int64
	seen := false
	original := o.Qty

	for o.Qty > 0 {
		b.cleanup()
		top := opposing.peek()
		if top == nil {
			break
		}

		price := top.Price
		if !seen {
			// Sweeps consume best-first, so the first price is the best
			// opposite-side price observed.
			bestSeen = price
			seen = true
		}
		qty := min64(o.Qty, top.Qty)

		bid, ask := o, top
		if o.Side == Sell {
			bid, ask = top, o
		}
		if err := b.fill(bid, ask, price, qty); err != nil {
			return vwap(notional, original), err
		}
		notional += qty * price
		if top.Qty == 0 {
			b.retire(top)
		}
	}

	if o.Qty > 0 {
		if err := b.disposeRemainder(o, bestSeen, seen); err != nil {
			return vwap(notional, original), err
		}
	}
	return vwap(notional, original), nil
}

// disposeRemainder applies the partial-fill policy once the opposing book has
// drained with quantity still open. Errors here abort only this residual
// step; the sweep's trades are already recorded and stay valid.
func (b *Book) disposeRemainder(o *Order, bestSeen int64, seen bool) error {
	switch o.PartialFill {
	case ConvertToLimit:
		price := bestSeen
		if !seen {
			if o.FallbackPrice <= 0 {
				return fmt.Errorf("%w: cannot convert order %d", ErrNoLiquidity, o.ID)
			}
			price = o.FallbackPrice
		}
		rest, err := NewLimitOrder(o.ID, price, o.Qty, o.Side, o.Asset)
		if err != nil {
			return err
		}
		b.stamp(rest)
		b.rest(rest)
		b.log.Infow("market_order_converted",
			"order_id", o.ID, "price", price, "qty", rest.Qty)
	case CancelRemainder:
		b.log.Warnw("market_order_cancelled",
			"order_id", o.ID, "unfilled_qty", o.Qty)
		o.Qty = 0
	}
	return nil
}

// vwap is total notional over the original incoming quantity. Construction
// rejects zero-quantity orders, so the denominator is always positive for a
// matched order.
func vwap(notional, originalQty int64) float64 {
	if originalQty == 0 {
		return 0
	}
	return float64(notional) / float64(originalQty)
}
