package trades

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/pviana/matchbook/pkg/book"
)

// tradePrefix namespaces trade records. Keys are t:<8-byte big-endian seq>,
// so iteration order is insertion order.
var tradePrefix = []byte("t:")

// Store is a pebble-backed trade recorder. Every Record is a synced write:
// a trade the engine considers recorded survives a crash.
type Store struct {
	mu  sync.Mutex
	db  *pebble.DB
	seq uint64
}

// Open opens (or creates) the trade database at path and resumes the
// sequence counter from the last stored trade.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open trade db: %w", err)
	}
	s := &Store{db: db}
	if err := s.recoverSeq(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func tradeKey(seq uint64) []byte {
	key := make([]byte, len(tradePrefix)+8)
	copy(key, tradePrefix)
	binary.BigEndian.PutUint64(key[len(tradePrefix):], seq)
	return key
}

func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (s *Store) recoverSeq() error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: tradePrefix,
		UpperBound: keyUpperBound(tradePrefix),
	})
	if err != nil {
		return fmt.Errorf("recover trade seq: %w", err)
	}
	defer iter.Close()

	if iter.Last() && iter.Valid() {
		key := iter.Key()
		s.seq = binary.BigEndian.Uint64(key[len(tradePrefix):])
	}
	return nil
}

// Record persists the trade. A failure here propagates to the matcher and
// aborts the in-progress match.
func (s *Store) Record(t book.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}
	s.seq++
	if err := s.db.Set(tradeKey(s.seq), data, pebble.Sync); err != nil {
		s.seq--
		return fmt.Errorf("persist trade: %w", err)
	}
	return nil
}

// List returns up to limit most recent trades, oldest first.
// limit <= 0 returns everything.
func (s *Store) List(limit int) ([]book.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: tradePrefix,
		UpperBound: keyUpperBound(tradePrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer iter.Close()

	var out []book.Trade
	for ok := iter.Last(); ok && iter.Valid(); ok = iter.Prev() {
		var t book.Trade
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			return nil, fmt.Errorf("decode trade: %w", err)
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	// Reverse into oldest-first order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

var _ book.Recorder = (*Store)(nil)
