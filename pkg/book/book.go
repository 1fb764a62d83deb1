package book

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pviana/matchbook/pkg/util"
)

// Matcher is one matching algorithm. Matchers are stateless and operate only
// on the book and order passed to them. The returned price is the
// volume-weighted average execution price; it is meaningful for market orders
// and zero for limit orders.
type Matcher interface {
	Match(b *Book, o *Order) (float64, error)
}

// Book is a single-asset order book: two heap-ordered sides of resting limit
// orders, an id index for cancellation, a trade recorder, and a matcher per
// order kind.
//
// Book is single-threaded by design: one Add/Remove call runs to completion,
// including all matching and trade emission, before the next is accepted.
// Callers that share a Book across goroutines must serialize access.
type Book struct {
	asset    string
	bids     *sideQueue
	asks     *sideQueue
	index    map[int64]*Order
	recorder Recorder
	matchers map[Kind]Matcher
	clock    util.Clock
	log      *zap.SugaredLogger
	seq      int64
}

// Option configures a Book.
type Option func(*Book)

// WithLogger injects a logger. The default is a nop logger; observability is
// a caller concern.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(b *Book) { b.log = log }
}

// WithClock injects the clock used to stamp orders and trades.
func WithClock(c util.Clock) Option {
	return func(b *Book) { b.clock = c }
}

// New builds a book for one asset. The matcher table is fixed at construction:
// limit and market, one implementation each.
func New(asset string, recorder Recorder, opts ...Option) *Book {
	b := &Book{
		asset:    asset,
		bids:     newSideQueue(Buy),
		asks:     newSideQueue(Sell),
		index:    make(map[int64]*Order),
		recorder: recorder,
		matchers: map[Kind]Matcher{
			KindLimit:  limitMatcher{},
			KindMarket: marketMatcher{},
		},
		clock: util.RealClock{},
		log:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Asset returns the symbol this book trades.
func (b *Book) Asset() string { return b.asset }

// Add inserts a limit order into its side and dispatches the order to the
// matcher for its kind. May emit zero or more trades through the recorder.
// For market orders the returned price is the volume-weighted average over
// all fills; for limit orders it is zero.
func (b *Book) Add(o *Order) (float64, error) {
	if o.Asset != b.asset {
		return 0, fmt.Errorf("%w: order %d is for %q, book trades %q", ErrAssetMismatch, o.ID, o.Asset, b.asset)
	}
	m, ok := b.matchers[o.Kind]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownOrderKind, o.Kind)
	}

	b.stamp(o)
	if o.Kind == KindLimit {
		b.rest(o)
	}

	b.log.Debugw("order_accepted",
		"order_id", o.ID, "kind", o.Kind.String(), "side", o.Side.String(), "qty", o.Qty)
	return m.Match(b, o)
}

// Remove cancels a resting order by id. The order's quantity is forced to
// zero and its index entry dropped immediately; physical heap removal is
// deferred until the entry surfaces at its heap's top. Unknown ids are a
// no-op: cancel-after-fill races are expected.
func (b *Book) Remove(id int64) {
	o, ok := b.index[id]
	if !ok {
		return
	}
	o.Qty = 0
	delete(b.index, id)
	b.cleanup()
	b.log.Debugw("order_cancelled", "order_id", id)
}

// BestBid returns the top bid price, or false when the bid side is empty.
func (b *Book) BestBid() (int64, bool) {
	b.cleanup()
	top := b.bids.peek()
	if top == nil {
		return 0, false
	}
	return top.Price, true
}

// BestAsk returns the top ask price, or false when the ask side is empty.
func (b *Book) BestAsk() (int64, bool) {
	b.cleanup()
	top := b.asks.peek()
	if top == nil {
		return 0, false
	}
	return top.Price, true
}

// ListBids returns up to depth resting bids in priority order.
func (b *Book) ListBids(depth int) []Order {
	b.cleanup()
	return b.bids.topK(depth)
}

// ListAsks returns up to depth resting asks in priority order.
func (b *Book) ListAsks(depth int) []Order {
	b.cleanup()
	return b.asks.topK(depth)
}

// stamp assigns the arrival sequence and, if unset, the creation timestamp.
// Both are immutable afterwards and together form the time leg of priority.
func (b *Book) stamp(o *Order) {
	b.seq++
	o.Seq = b.seq
	if o.Timestamp.IsZero() {
		o.Timestamp = b.clock.Now()
	}
}

// rest parks a limit order on its side and indexes it for cancellation.
func (b *Book) rest(o *Order) {
	if o.Side == Buy {
		b.bids.push(o)
	} else {
		b.asks.push(o)
	}
	b.index[o.ID] = o
}

// cleanup pops each side's top while it is dead (quantity zero). Interior
// dead entries are tolerated until they surface. Must run before any read of
// a heap top.
func (b *Book) cleanup() {
	for b.bids.Len() > 0 && b.bids.peek().Qty == 0 {
		b.bids.pop()
	}
	for b.asks.Len() > 0 && b.asks.peek().Qty == 0 {
		b.asks.pop()
	}
}

// fill settles one execution: record the trade, decrement both participants,
// and retire whichever resting orders are exhausted.
func (b *Book) fill(bid, ask *Order, price, qty int64) error {
	t := Trade{
		BuyOrderID:  bid.ID,
		SellOrderID: ask.ID,
		Price:       price,
		Qty:         qty,
		Asset:       b.asset,
		Timestamp:   b.clock.Now(),
	}
	if err := b.recorder.Record(t); err != nil {
		return fmt.Errorf("record trade: %w", err)
	}
	bid.Qty -= qty
	ask.Qty -= qty
	b.log.Infow("trade_executed",
		"buy_order_id", bid.ID, "sell_order_id", ask.ID, "price", price, "qty", qty)
	return nil
}

// retire removes an exhausted resting order from the top of its side.
func (b *Book) retire(o *Order) {
	if o.Side == Buy {
		b.bids.pop()
	} else {
		b.asks.pop()
	}
	delete(b.index, o.ID)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
