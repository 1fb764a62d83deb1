package trades

import "github.com/pviana/matchbook/pkg/book"

// Tee fans a trade out to several recorders in order. The first failure
// stops the fan-out and propagates; recorders earlier in the list keep what
// they already recorded.
type Tee []book.Recorder

func (t Tee) Record(tr book.Trade) error {
	for _, r := range t {
		if err := r.Record(tr); err != nil {
			return err
		}
	}
	return nil
}

var _ book.Recorder = Tee(nil)
