// package shuffle implements the windowed, pool-weighted random chain that
// picks which track gets queued next.
package shuffle

import (
	"math/rand/v2"
	"sync"

	"github.com/desertthunder/qfill/internal/shared"
)

// DefaultWindow is the number of most recently added pools kept eligible for
// selection when no explicit window size is configured.
const DefaultWindow = 7

// Chain is an append-only sequence of track pools with a sliding selection
// window. Each pool (one album, or one track when ungrouped) carries equal
// selection weight regardless of how many tracks it holds, so a 20-track
// album is no more likely to be picked from than a stand-alone single.
//
// Only the most recently added pools, up to the window size, are eligible for
// selection. A pool pushed out of the window is gone for the rest of the run;
// the window bounds how often recent picks repeat, it does not recycle
// content.
type Chain struct {
	mu      sync.Mutex
	window  int
	pools   [][]string // eligible pools, oldest first
	pending []string   // pool under construction
	total   int
}

// New creates a chain with the given window size. Sizes below one fall back
// to [DefaultWindow].
func New(window int) *Chain {
	if window < 1 {
		window = DefaultWindow
	}
	return &Chain{window: window}
}

// AddToCurrentPool appends a track to the pool under construction. The track
// is not eligible for selection until the pool is closed by [Chain.StartNewPool]
// or a call to [Chain.Pick].
func (c *Chain) AddToCurrentPool(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, uri)
	c.total++
}

// StartNewPool closes the pool under construction, making it the newest
// member of the window and evicting the oldest pool if the window is over
// capacity. Closing an empty pool is a no-op.
func (c *Chain) StartNewPool() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.close()
}

// Add appends a track as its own single-member pool.
func (c *Chain) Add(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, uri)
	c.total++
	c.close()
}

// Pick selects a pool uniformly at random from the window, then a track
// uniformly at random within that pool. Picking has no side effects: the same
// pool stays eligible and may repeat while it remains in the window. A still
// open pool is closed first.
//
// Returns [shared.ErrEmptyChain] if no pool was ever added.
func (c *Chain) Pick() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.close()
	if len(c.pools) == 0 {
		return "", shared.ErrEmptyChain
	}
	pool := c.pools[rand.IntN(len(c.pools))]
	return pool[rand.IntN(len(pool))], nil
}

// Len returns the total number of tracks ever added, including tracks in
// pools that have since left the window.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

func (c *Chain) close() {
	if len(c.pending) == 0 {
		return
	}
	c.pools = append(c.pools, c.pending)
	c.pending = nil
	if len(c.pools) > c.window {
		c.pools = c.pools[1:]
	}
}
