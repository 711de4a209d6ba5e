package registry

import "sync"

// Clock supplies the monotonic height counter the registry timestamps
// and rate-limits against. The surrounding ledger provides the real
// one; the registry never reads wall time.
type Clock interface {
	// Height returns the current monotonic height.
	Height() uint64
}

// TickClock is a manually advanced Clock for embedders and tests.
type TickClock struct {
	mu sync.Mutex
	h  uint64
}

// NewTickClock creates a TickClock starting at the given height.
func NewTickClock(start uint64) *TickClock {
	return &TickClock{h: start}
}

// Height returns the current height.
func (c *TickClock) Height() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.h
}

// Advance moves the clock forward by n and returns the new height.
func (c *TickClock) Advance(n uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.h += n
	return c.h
}
