package book

import (
	"container/heap"
	"sort"
)

// sideQueue is one side of the book: a binary heap of resting limit orders
// under the side-aware priority order. Cancelled orders stay in the heap with
// Qty == 0 until they surface at the top (lazy invalidation); callers peek
// only after the book's cleanup pass.
type sideQueue struct {
	side   Side
	orders []*Order
}

func newSideQueue(side Side) *sideQueue {
	q := &sideQueue{side: side}
	heap.Init(q)
	return q
}

func (q *sideQueue) Len() int           { return len(q.orders) }
func (q *sideQueue) Less(i, j int) bool { return less(q.orders[i], q.orders[j], q.side) }
func (q *sideQueue) Swap(i, j int)      { q.orders[i], q.orders[j] = q.orders[j], q.orders[i] }
func (q *sideQueue) Push(x any)         { q.orders = append(q.orders, x.(*Order)) }
func (q *sideQueue) Pop() any {
	old := q.orders
	n := len(old)
	o := old[n-1]
	old[n-1] = nil
	q.orders = old[:n-1]
	return o
}

func (q *sideQueue) push(o *Order) { heap.Push(q, o) }

func (q *sideQueue) pop() *Order { return heap.Pop(q).(*Order) }

// peek returns the current top without removing it, nil when empty.
func (q *sideQueue) peek() *Order {
	if len(q.orders) == 0 {
		return nil
	}
	return q.orders[0]
}

// topK returns up to depth live orders in strict priority order without
// mutating the heap. Works on a copy, so interior zero-qty entries are
// filtered rather than popped.
func (q *sideQueue) topK(depth int) []Order {
	if depth <= 0 {
		return nil
	}
	live := make([]*Order, 0, len(q.orders))
	for _, o := range q.orders {
		if o.Qty > 0 {
			live = append(live, o)
		}
	}
	sort.Slice(live, func(i, j int) bool { return less(live[i], live[j], q.side) })
	if len(live) > depth {
		live = live[:depth]
	}
	out := make([]Order, len(live))
	for i, o := range live {
		out[i] = *o
	}
	return out
}
