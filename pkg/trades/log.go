// Package trades provides recorders the matching engine posts trade facts to,
// plus history listing on top of them.
package trades

import (
	"sync"

	"github.com/pviana/matchbook/pkg/book"
)

// Log is an in-memory recorder retaining every trade in execution order.
type Log struct {
	mu     sync.RWMutex
	trades []book.Trade
}

func NewLog() *Log {
	return &Log{}
}

// Record appends the trade. Never fails.
func (l *Log) Record(t book.Trade) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trades = append(l.trades, t)
	return nil
}

// List returns up to limit most recent trades, oldest first.
// limit <= 0 returns everything.
func (l *Log) List(limit int) ([]book.Trade, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.trades)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]book.Trade, n)
	copy(out, l.trades[len(l.trades)-n:])
	return out, nil
}

// Len returns the number of recorded trades.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trades)
}

var _ book.Recorder = (*Log)(nil)
