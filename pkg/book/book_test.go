package book

import (
	"errors"
	"testing"
	"time"

	"github.com/pviana/matchbook/pkg/util"
)

var errSinkDown = errors.New("sink down")

// capture is a test recorder that can be told to fail after n records.
type capture struct {
	trades    []Trade
	failAfter int // fail once this many trades are recorded; 0 = never
}

func (c *capture) Record(t Trade) error {
	if c.failAfter > 0 && len(c.trades) >= c.failAfter {
		return errSinkDown
	}
	c.trades = append(c.trades, t)
	return nil
}

func newTestBook(rec Recorder) *Book {
	clock := &util.FixedClock{T: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), Step: time.Millisecond}
	return New("BTC-USD", rec, WithClock(clock))
}

func mustLimit(t *testing.T, id, price, qty int64, side Side) *Order {
	t.Helper()
	o, err := NewLimitOrder(id, price, qty, side, "BTC-USD")
	if err != nil {
		t.Fatalf("NewLimitOrder: %v", err)
	}
	return o
}

func mustMarket(t *testing.T, id, qty int64, side Side, pf PartialFill, fallback int64) *Order {
	t.Helper()
	o, err := NewMarketOrder(id, qty, side, "BTC-USD", pf, fallback)
	if err != nil {
		t.Fatalf("NewMarketOrder: %v", err)
	}
	return o
}

func mustAdd(t *testing.T, b *Book, o *Order) float64 {
	t.Helper()
	avg, err := b.Add(o)
	if err != nil {
		t.Fatalf("Add(%d): %v", o.ID, err)
	}
	return avg
}

// checkInvariants asserts the heap and no-cross invariants that must hold
// after every Add/Remove returns.
func checkInvariants(t *testing.T, b *Book) {
	t.Helper()
	for _, q := range []*sideQueue{b.bids, b.asks} {
		top := q.peek()
		if top == nil {
			continue
		}
		if top.Qty == 0 {
			t.Errorf("%v top has zero quantity", q.side)
		}
		for _, o := range q.orders[1:] {
			if o.Qty > 0 && less(o, top, q.side) {
				t.Errorf("%v top %d does not dominate resting order %d", q.side, top.ID, o.ID)
			}
		}
	}
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	if hasBid && hasAsk && bid >= ask {
		t.Errorf("book is crossed: bid %d >= ask %d", bid, ask)
	}
}

func TestEmptyBook(t *testing.T) {
	b := newTestBook(&capture{})

	if _, ok := b.BestBid(); ok {
		t.Error("empty book reported a best bid")
	}
	if _, ok := b.BestAsk(); ok {
		t.Error("empty book reported a best ask")
	}
	if bids := b.ListBids(10); len(bids) != 0 {
		t.Errorf("empty book listed %d bids", len(bids))
	}
}

func TestNonCrossingLimitsRest(t *testing.T) {
	rec := &capture{}
	b := newTestBook(rec)

	mustAdd(t, b, mustLimit(t, 1, 100, 10, Buy))
	mustAdd(t, b, mustLimit(t, 2, 105, 5, Sell))

	if len(rec.trades) != 0 {
		t.Fatalf("spread not crossed but %d trades executed", len(rec.trades))
	}
	if bid, ok := b.BestBid(); !ok || bid != 100 {
		t.Errorf("BestBid() = %d, %v, want 100", bid, ok)
	}
	if ask, ok := b.BestAsk(); !ok || ask != 105 {
		t.Errorf("BestAsk() = %d, %v, want 105", ask, ok)
	}
	checkInvariants(t, b)
}

func TestCrossingLimitExecutesAtMakerPrice(t *testing.T) {
	rec := &capture{}
	b := newTestBook(rec)

	mustAdd(t, b, mustLimit(t, 1, 100, 10, Buy))
	mustAdd(t, b, mustLimit(t, 2, 99, 5, Sell)) // crosses the resting bid

	if len(rec.trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(rec.trades))
	}
	tr := rec.trades[0]
	if tr.BuyOrderID != 1 || tr.SellOrderID != 2 {
		t.Errorf("trade pair = (%d, %d), want (1, 2)", tr.BuyOrderID, tr.SellOrderID)
	}
	if tr.Price != 100 {
		t.Errorf("execution price = %d, want maker price 100", tr.Price)
	}
	if tr.Qty != 5 {
		t.Errorf("trade qty = %d, want 5", tr.Qty)
	}
	if tr.Asset != "BTC-USD" {
		t.Errorf("trade asset = %q", tr.Asset)
	}

	// Buy order keeps its remainder, ask side is empty.
	if top := b.bids.peek(); top == nil || top.ID != 1 || top.Qty != 5 {
		t.Errorf("resting bid = %+v, want order 1 with qty 5", top)
	}
	if _, ok := b.BestAsk(); ok {
		t.Error("ask side should be empty after the sweep")
	}
	checkInvariants(t, b)
}

func TestIncomingBuyExecutesAtAskPrice(t *testing.T) {
	rec := &capture{}
	b := newTestBook(rec)

	mustAdd(t, b, mustLimit(t, 1, 100, 10, Sell))
	mustAdd(t, b, mustLimit(t, 2, 103, 10, Buy)) // taker pays the resting ask

	if len(rec.trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(rec.trades))
	}
	if rec.trades[0].Price != 100 {
		t.Errorf("execution price = %d, want resting ask 100", rec.trades[0].Price)
	}
	checkInvariants(t, b)
}

func TestPriceTimePriority(t *testing.T) {
	rec := &capture{}
	b := newTestBook(rec)

	// Two resting buys at the same price match in arrival order.
	mustAdd(t, b, mustLimit(t, 1, 100, 10, Buy))
	mustAdd(t, b, mustLimit(t, 2, 100, 10, Buy))
	mustAdd(t, b, mustLimit(t, 3, 100, 10, Sell))

	if len(rec.trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(rec.trades))
	}
	if rec.trades[0].BuyOrderID != 1 {
		t.Errorf("matched buy order %d first, want order 1 (earliest)", rec.trades[0].BuyOrderID)
	}
	checkInvariants(t, b)
}

func TestMultiLevelSweepByLimit(t *testing.T) {
	rec := &capture{}
	b := newTestBook(rec)

	mustAdd(t, b, mustLimit(t, 1, 100, 10, Sell))
	mustAdd(t, b, mustLimit(t, 2, 101, 10, Sell))
	mustAdd(t, b, mustLimit(t, 3, 101, 15, Buy)) // consumes both asks

	if len(rec.trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(rec.trades))
	}
	if rec.trades[0].Price != 100 || rec.trades[0].Qty != 10 {
		t.Errorf("first fill = %d@%d, want 10@100", rec.trades[0].Qty, rec.trades[0].Price)
	}
	if rec.trades[1].Price != 101 || rec.trades[1].Qty != 5 {
		t.Errorf("second fill = %d@%d, want 5@101", rec.trades[1].Qty, rec.trades[1].Price)
	}
	if top := b.asks.peek(); top == nil || top.ID != 2 || top.Qty != 5 {
		t.Errorf("resting ask = %+v, want order 2 with qty 5", top)
	}
	checkInvariants(t, b)
}

func TestRemoveOrder(t *testing.T) {
	rec := &capture{}
	b := newTestBook(rec)

	mustAdd(t, b, mustLimit(t, 1, 100, 10, Buy))
	mustAdd(t, b, mustLimit(t, 2, 99, 10, Buy))

	b.Remove(1)
	if bid, ok := b.BestBid(); !ok || bid != 99 {
		t.Errorf("BestBid() after cancel = %d, %v, want 99", bid, ok)
	}

	// A cancelled order no longer matches.
	mustAdd(t, b, mustLimit(t, 3, 98, 5, Sell))
	if len(rec.trades) != 1 || rec.trades[0].BuyOrderID != 2 {
		t.Fatalf("trades after cancel = %+v, want one fill against order 2", rec.trades)
	}
	checkInvariants(t, b)
}

func TestRemoveUnknownOrderIsNoop(t *testing.T) {
	b := newTestBook(&capture{})
	mustAdd(t, b, mustLimit(t, 1, 100, 10, Buy))

	b.Remove(42) // cancel-after-fill race, must not panic or error

	if bid, ok := b.BestBid(); !ok || bid != 100 {
		t.Errorf("BestBid() = %d, %v, want 100 untouched", bid, ok)
	}
}

func TestLazyCancelledInteriorEntry(t *testing.T) {
	rec := &capture{}
	b := newTestBook(rec)

	mustAdd(t, b, mustLimit(t, 1, 100, 10, Buy))
	mustAdd(t, b, mustLimit(t, 2, 99, 10, Buy))
	mustAdd(t, b, mustLimit(t, 3, 98, 10, Buy))

	// Cancel the interior order; it stays in the heap until it surfaces.
	b.Remove(2)

	// Sell enough to chew through the top; the dead entry must be skipped.
	mustAdd(t, b, mustLimit(t, 4, 90, 15, Sell))

	if len(rec.trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(rec.trades))
	}
	if rec.trades[0].BuyOrderID != 1 || rec.trades[1].BuyOrderID != 3 {
		t.Errorf("matched buys = (%d, %d), want (1, 3) skipping cancelled 2",
			rec.trades[0].BuyOrderID, rec.trades[1].BuyOrderID)
	}
	checkInvariants(t, b)
}

func TestAddRejectsWrongAsset(t *testing.T) {
	b := newTestBook(&capture{})
	o, err := NewLimitOrder(1, 100, 10, Buy, "ETH-USD")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Add(o); !errors.Is(err, ErrAssetMismatch) {
		t.Errorf("Add() error = %v, want ErrAssetMismatch", err)
	}
}

func TestAddRejectsUnknownKind(t *testing.T) {
	b := newTestBook(&capture{})
	o := &Order{ID: 1, Asset: "BTC-USD", Side: Buy, Kind: Kind(9), Qty: 10}
	if _, err := b.Add(o); !errors.Is(err, ErrUnknownOrderKind) {
		t.Errorf("Add() error = %v, want ErrUnknownOrderKind", err)
	}
}

func TestQuantityConservation(t *testing.T) {
	rec := &capture{}
	b := newTestBook(rec)

	mustAdd(t, b, mustLimit(t, 1, 100, 7, Buy))
	mustAdd(t, b, mustLimit(t, 2, 100, 3, Buy))
	mustAdd(t, b, mustLimit(t, 3, 95, 4, Sell))
	mustAdd(t, b, mustLimit(t, 4, 95, 4, Sell))

	filledPerBuy := map[int64]int64{}
	for _, tr := range rec.trades {
		filledPerBuy[tr.BuyOrderID] += tr.Qty
	}
	if filledPerBuy[1] > 7 || filledPerBuy[2] > 3 {
		t.Errorf("cumulative fills exceed original quantity: %v", filledPerBuy)
	}
	var total int64
	for _, q := range filledPerBuy {
		total += q
	}
	if total != 8 {
		t.Errorf("total filled = %d, want 8", total)
	}
	checkInvariants(t, b)
}
