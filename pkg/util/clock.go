package util

import "time"

// Clock abstracts time so order timestamps are controllable in tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock advances by a constant step on every read, giving strictly
// increasing deterministic timestamps.
type FixedClock struct {
	T    time.Time
	Step time.Duration
}

func (c *FixedClock) Now() time.Time {
	t := c.T
	c.T = c.T.Add(c.Step)
	return t
}
