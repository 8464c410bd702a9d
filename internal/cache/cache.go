package cache

import (
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"flood-geoservice/internal/models"
	"flood-geoservice/internal/observability"
)

// Cache maps a request signature to a previously built response envelope
// with bounded lifetime. Entries expire lazily: an expired entry is treated
// as a miss on read and removed then. Concurrent misses on the same
// signature may each rebuild the response; last writer wins.
type Cache struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	ttl     time.Duration
	entries map[string]entry
	metrics *observability.Metrics
}

type entry struct {
	env     models.ResponseEnvelope
	expires time.Time
}

func New(ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *Cache {
	return &Cache{
		clock:   clock,
		ttl:     ttl,
		entries: make(map[string]entry),
		metrics: metrics,
	}
}

// Signature derives the cache key from a request: the literal path plus the
// raw query string. No canonicalization — two requests differing only in
// query-parameter order are different signatures.
func Signature(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + r.URL.RawQuery
}

// Get returns the cached envelope for a signature, treating expired entries
// as misses.
func (c *Cache) Get(signature string) (models.ResponseEnvelope, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[signature]
	if ok && !c.clock.Now().Before(e.expires) {
		delete(c.entries, signature)
		ok = false
	}
	c.count(ok)
	if !ok {
		return models.ResponseEnvelope{}, false
	}
	return e.env, true
}

// Put stores an envelope under a signature, overwriting any previous entry
// wholesale and restarting its lifetime.
func (c *Cache) Put(signature string, env models.ResponseEnvelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[signature] = entry{env: env, expires: c.clock.Now().Add(c.ttl)}
}

// Sweep removes expired entries and returns how many were dropped. Lazy
// expiry alone is correct; the sweep only bounds memory.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	dropped := 0
	for sig, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, sig)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) count(hit bool) {
	if c.metrics == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.metrics.CacheLookups.WithLabelValues(result).Inc()
}
