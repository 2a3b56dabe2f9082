package montecarlo

import "sync/atomic"

// SimCounter counts started trials across all workers. It exists only for
// progress reporting; work assignment never depends on it.
type SimCounter struct {
	count atomic.Int64
}

func NewSimCounter() *SimCounter { return &SimCounter{} }

// Increment adds one and returns the new count.
func (c *SimCounter) Increment() int {
	return int(c.count.Add(1))
}

func (c *SimCounter) Count() int {
	return int(c.count.Load())
}
