// Package chainweb assembles the multi-chain deployment web: one chain
// context per configured chain id, each carrying its own journal, KYC
// registry, reserve-cap oracle and token instance, plus an in-process
// relay that moves cross-chain burns between them.
package chainweb

import (
	"sync"
	"time"
)

// Chain is the per-chain execution context: the chain identity and the
// timestamp source its token instance judges approval expiry against.
// The clock follows wall time by default and can be shifted or pinned,
// so expiry behavior is rehearsable without waiting.
type Chain struct {
	id uint64

	offset uint64
	pinned uint64 // pinned timestamp; 0 follows wall clock

	mu sync.RWMutex
}

// NewChain creates the context for one chain id.
func NewChain(id uint64) *Chain {
	return &Chain{id: id}
}

// ID returns the chain id.
func (c *Chain) ID() uint64 {
	return c.id
}

// Now returns the chain's current timestamp: wall clock plus any
// accumulated offset, or the pinned value while the clock is pinned.
func (c *Chain) Now() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.pinned != 0 {
		return c.pinned
	}
	return uint64(time.Now().Unix()) + c.offset
}

// IncreaseTime advances the clock by seconds and returns the new
// timestamp. A pinned clock advances from its pinned value.
func (c *Chain) IncreaseTime(seconds uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pinned != 0 {
		c.pinned += seconds
		return c.pinned
	}
	c.offset += seconds
	return uint64(time.Now().Unix()) + c.offset
}

// SetTimestamp pins the clock to a fixed timestamp.
func (c *Chain) SetTimestamp(ts uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pinned = ts
}

// FollowWallClock unpins the clock and discards any accumulated offset.
func (c *Chain) FollowWallClock() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pinned = 0
	c.offset = 0
}
