package marketdata

import (
	"sync"
	"time"
)

// Snapshot is the cached market view of one ticker. It is replaced whole
// on refresh and never mutated in place, so readers can never observe a
// torn entry.
type Snapshot struct {
	Ticker     string    `json:"ticker"`
	Price      float64   `json:"price"`
	Volatility float64   `json:"volatility"` // annualized, from trailing log returns
	MarketCap  float64   `json:"market_cap"`
	Name       string    `json:"name"`
	Currency   string    `json:"currency"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// State classifies a cache lookup.
type State int

const (
	Miss    State = iota // no entry for the ticker
	Hit                  // live entry returned
	Expired              // entry existed but aged past the TTL
)

func (s State) String() string {
	switch s {
	case Hit:
		return "hit"
	case Expired:
		return "expired"
	}
	return "miss"
}

// Cache is a process-wide keyed snapshot store with time-based
// invalidation. Entries live for the configured TTL from their FetchedAt
// stamp; an expired entry is discarded on lookup, never returned.
//
// The zero value is not usable; construct with NewCache.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Snapshot
}

// NewCache creates a snapshot cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Snapshot),
	}
}

// Lookup returns the cached snapshot for the ticker and the cache state.
// The snapshot is only meaningful when the state is Hit. An expired entry
// is deleted as a side effect so a later Put is the only way back in.
func (c *Cache) Lookup(ticker string) (Snapshot, State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.entries[ticker]
	if !ok {
		return Snapshot{}, Miss
	}
	if c.now().Sub(snap.FetchedAt) >= c.ttl {
		delete(c.entries, ticker)
		return Snapshot{}, Expired
	}
	return snap, Hit
}

// Put stamps the snapshot with the current time, stores it under its
// ticker, and returns the stamped copy. Concurrent writers for the same
// ticker race benignly: last writer wins, whole-value replacement.
func (c *Cache) Put(snap Snapshot) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap.FetchedAt = c.now()
	c.entries[snap.Ticker] = snap
	return snap
}

// Len reports the number of stored entries, live or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reset discards all entries. Intended for tests and explicit teardown.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Snapshot)
}
