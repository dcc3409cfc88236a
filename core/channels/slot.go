package channels

import (
	"github.com/artpar/brushkit/core/curvecache"
	"github.com/artpar/brushkit/domain/curve"
)

// curveSlot holds either a private curve or a shared cache reference, never
// both. The zero value is an empty slot that evaluates as identity.
type curveSlot struct {
	private *curve.Curve
	shared  *curvecache.Ref
}

func (s *curveSlot) get() *curve.Curve {
	if s.shared != nil {
		return s.shared.Curve()
	}
	return s.private
}

func (s *curveSlot) eval(x float64) float64 {
	switch {
	case s.shared != nil:
		return s.shared.Eval(x)
	case s.private != nil:
		return s.private.Eval(x)
	}
	return x
}

func (s *curveSlot) empty() bool {
	return s.shared == nil && s.private == nil
}

// copyTo returns a slot for a new holder in cache. Shared curves are
// acquired, private curves are cloned.
func (s *curveSlot) copyTo(cache *curvecache.Cache) curveSlot {
	switch {
	case s.shared != nil:
		return curveSlot{shared: cache.Acquire(s.shared)}
	case s.private != nil:
		return curveSlot{private: s.private.Clone()}
	}
	return curveSlot{}
}

// free releases the slot's curve and empties it.
func (s *curveSlot) free(cache *curvecache.Cache) {
	if s.shared != nil {
		cache.Release(s.shared)
	}
	s.shared = nil
	s.private = nil
}

// commit moves a private curve into the cache.
func (s *curveSlot) commit(cache *curvecache.Cache) {
	if s.private == nil {
		return
	}
	s.shared = cache.GetOrInsert(s.private)
	s.private = nil
}

// writable makes the slot private and returns the curve for editing.
func (s *curveSlot) writable(cache *curvecache.Cache, fallback curve.Preset) *curve.Curve {
	switch {
	case s.private != nil:
	case s.shared != nil:
		s.private = s.shared.Curve().Clone()
		cache.Release(s.shared)
		s.shared = nil
	default:
		s.private = curve.NewPreset(fallback)
	}
	s.private.Invalidate()
	return s.private
}

// set replaces the slot with a private curve.
func (s *curveSlot) set(cache *curvecache.Cache, c *curve.Curve) {
	s.free(cache)
	s.private = c
}
