// Package errcounter provides a small thread-safe tally of error
// counts by type, shared by any component that wants to expose
// per-reason counters without inventing its own locking.
package errcounter

import "sync"

// ErrCounter accumulates named error counts.
type ErrCounter interface {
	ReportError(errtype string)
	ErrorCounts() map[string]uint64
}

type counter struct {
	mu     sync.Mutex
	counts map[string]uint64
}

// New returns an ErrCounter starting from zero counts.
func New() ErrCounter {
	return &counter{counts: make(map[string]uint64)}
}

func (c *counter) ReportError(errtype string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[errtype]++
}

func (c *counter) ErrorCounts() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}
