// Package cache holds recently assembled profiles keyed by normalized
// address and radius.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/property-profile/internal/model"
	"github.com/sells-group/property-profile/internal/normalize"
)

// DefaultTTL is how long a profile stays fresh.
const DefaultTTL = 15 * time.Minute

// Clock returns the current time.
type Clock func() time.Time

// ProfileCache is a read-through cache of complete profiles. Entries are
// JSON snapshots so a reader never shares memory with the writer or with
// another reader. Writes are last-writer-wins; expired entries are dropped
// when read or when Purge runs.
type ProfileCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     Clock
	hits    atomic.Int64
	misses  atomic.Int64
}

type entry struct {
	snapshot  []byte
	createdAt time.Time
}

// Stats contains cache statistics.
type Stats struct {
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// New creates a ProfileCache. A nil clock uses time.Now; a non-positive
// ttl uses DefaultTTL.
func New(ttl time.Duration, now Clock) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &ProfileCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     now,
	}
}

// Key hashes the normalized address text and radius.
func Key(address string, radius int) string {
	h := sha256.Sum256([]byte(normalize.Address(address) + "|" + strconv.Itoa(radius)))
	return hex.EncodeToString(h[:])
}

// Get returns a private copy of the cached profile, or false on a miss or
// an expired entry.
func (c *ProfileCache) Get(address string, radius int) (*model.PropertyProfile, bool) {
	key := Key(address, radius)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Sub(e.createdAt) >= c.ttl {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && cur.createdAt.Equal(e.createdAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	var p model.PropertyProfile
	if err := json.Unmarshal(e.snapshot, &p); err != nil {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &p, true
}

// Put stores a snapshot of p.
func (c *ProfileCache) Put(address string, radius int, p *model.PropertyProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "cache: snapshot profile")
	}
	key := Key(address, radius)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{snapshot: data, createdAt: c.now()}
	return nil
}

// Purge drops every expired entry and returns how many were removed.
func (c *ProfileCache) Purge() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.createdAt) >= c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// RunJanitor purges expired entries every interval until ctx is done. A
// non-positive interval uses the cache TTL.
func (c *ProfileCache) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = c.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Purge(); n > 0 {
				zap.L().Debug("cache: purged expired profiles", zap.Int("removed", n))
			}
		}
	}
}

// Len returns the number of stored entries, expired or not.
func (c *ProfileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *ProfileCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{Entries: c.Len(), Hits: hits, Misses: misses, HitRate: rate}
}
