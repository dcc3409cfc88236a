// Package curvecache provides a hash-keyed, reference-counted store that
// deduplicates structurally equal curves so many channels can share one
// instance.
//
// Handles are generation checked: a Ref whose entry was evicted is dead, and
// releasing or acquiring it is detected and logged instead of corrupting the
// counts of a newer entry.
package curvecache

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/brushkit/domain/curve"
)

// Observer receives cache events. Implementations must be cheap; they are
// called with the cache lock held.
type Observer interface {
	CurveHit()
	CurveMiss()
	CurveEvicted()
	CurveRepaired()
	CacheSize(entries int)
}

type nopObserver struct{}

func (nopObserver) CurveHit()      {}
func (nopObserver) CurveMiss()     {}
func (nopObserver) CurveEvicted()  {}
func (nopObserver) CurveRepaired() {}
func (nopObserver) CacheSize(int)  {}

// Config configures a Cache.
type Config struct {
	Logger   zerolog.Logger
	Observer Observer
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int    `json:"entries"`
	Pinned    int    `json:"pinned"`
	Refs      int    `json:"refs"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Repairs   uint64 `json:"repairs"`
}

// Ref is a shared handle to a cached curve. The curve behind a live Ref is
// read-only and has its lookup table built, so it can be evaluated from any
// goroutine without locking.
type Ref struct {
	c      *curve.Curve
	hash   uint64
	gen    uint64 // 0 once evicted
	refs   int
	pinned bool
	owner  *Cache
}

// Curve returns the shared curve. Callers must not modify it.
func (r *Ref) Curve() *curve.Curve {
	return r.c
}

// Hash returns the structural hash of the curve.
func (r *Ref) Hash() uint64 {
	return r.hash
}

// Eval evaluates the shared curve at x.
func (r *Ref) Eval(x float64) float64 {
	return r.c.Eval(x)
}

// Cache deduplicates curves. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	buckets map[uint64][]*Ref
	presets map[curve.Preset]*Ref
	nextGen uint64
	stats   Stats

	logger   zerolog.Logger
	observer Observer
}

// New creates an empty cache.
func New(cfg Config) *Cache {
	obs := cfg.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Cache{
		buckets:  make(map[uint64][]*Ref),
		presets:  make(map[curve.Preset]*Ref),
		logger:   cfg.Logger,
		observer: obs,
	}
}

// GetOrInsert interns c. If an equal curve is cached its reference count is
// incremented and it is returned; otherwise c itself is adopted with a count
// of one. Either way the caller gives up ownership of c and must use the
// returned Ref from now on.
//
// A malformed candidate is repaired to the default linear curve before it is
// hashed. A nil candidate is treated as the default curve.
func (c *Cache) GetOrInsert(cv *curve.Curve) *Ref {
	if cv == nil {
		cv = curve.Default()
	}
	repairErr := curve.Repair(cv)

	c.mu.Lock()
	defer c.mu.Unlock()

	if repairErr != nil {
		c.stats.Repairs++
		c.observer.CurveRepaired()
		c.logger.Warn().Err(repairErr).Msg("repaired malformed curve before caching")
	}
	return c.intern(cv)
}

// intern must be called with c.mu held.
func (c *Cache) intern(cv *curve.Curve) *Ref {
	h := curve.Hash(cv)
	for _, r := range c.buckets[h] {
		if curve.Equal(r.c, cv) {
			r.refs++
			c.stats.Hits++
			c.observer.CurveHit()
			return r
		}
	}

	cv.BuildTable()
	c.nextGen++
	r := &Ref{c: cv, hash: h, gen: c.nextGen, refs: 1, owner: c}
	c.buckets[h] = append(c.buckets[h], r)
	c.stats.Entries++
	c.stats.Misses++
	c.observer.CurveMiss()
	c.observer.CacheSize(c.stats.Entries)
	return r
}

// Acquire increments the reference count for a new holder of r. A dead or
// foreign handle is re-interned instead, so the result is always live.
func (c *Cache) Acquire(r *Ref) *Ref {
	if r == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.owner != c || r.gen == 0 {
		if r.owner == c {
			c.logger.Error().Uint64("hash", r.hash).Msg("acquire of evicted curve handle")
		}
		return c.intern(r.c.Clone())
	}
	r.refs++
	return r
}

// Release drops one reference. The entry is evicted when the count reaches
// zero unless it is pinned.
func (c *Cache) Release(r *Ref) {
	if r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.owner != c || r.gen == 0 {
		c.logger.Error().Uint64("hash", r.hash).Msg("release of dead or foreign curve handle")
		return
	}
	if r.refs == 0 {
		// Only pinned entries survive at zero.
		c.logger.Error().Uint64("hash", r.hash).Msg("release of unreferenced pinned curve")
		return
	}
	r.refs--
	if r.refs == 0 && !r.pinned {
		c.evict(r)
	}
}

// evict must be called with c.mu held.
func (c *Cache) evict(r *Ref) {
	bucket := c.buckets[r.hash]
	for i, e := range bucket {
		if e == r {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(c.buckets, r.hash)
	} else {
		c.buckets[r.hash] = bucket
	}
	r.gen = 0
	c.stats.Entries--
	c.stats.Evictions++
	c.observer.CurveEvicted()
	c.observer.CacheSize(c.stats.Entries)
}

// IsCached reports whether r is a live handle of this cache.
func (c *Cache) IsCached(r *Ref) bool {
	if r == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return r.owner == c && r.gen != 0
}

// Refs returns the reference count of r, or 0 for dead handles.
func (c *Cache) Refs(r *Ref) int {
	if r == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.owner != c || r.gen == 0 {
		return 0
	}
	return r.refs
}

// Preset returns a reference to the built-in curve p. Preset entries are
// pinned and stay cached when their count drops to zero. The caller owns
// the returned reference and must release it.
func (c *Cache) Preset(p curve.Preset) *Ref {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.presets[p]; ok && r.gen != 0 {
		r.refs++
		return r
	}
	r := c.intern(curve.NewPreset(p))
	if !r.pinned {
		r.pinned = true
		c.stats.Pinned++
	}
	c.presets[p] = r
	return r
}

// Len returns the number of cached curves.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.Entries
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	for _, bucket := range c.buckets {
		for _, r := range bucket {
			s.Refs += r.refs
		}
	}
	return s
}
