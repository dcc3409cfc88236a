package curve

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
)

// Quantum is the number of quantization steps per unit used by Equal and Hash.
// Coordinates closer than 1/Quantum usually land on the same step; two curves
// are equal exactly when every coordinate lands on the same step.
const Quantum = 8192

// Epsilon is the coordinate tolerance implied by Quantum.
const Epsilon = 1.0 / Quantum

// ErrMalformedCurve is reported when a curve cannot be evaluated correctly.
var ErrMalformedCurve = errors.New("malformed curve")

// quantize maps a coordinate onto the hashing grid. Non-finite values map to
// sentinels so they still hash deterministically.
func quantize(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return math.MinInt64
	case math.IsInf(v, 1):
		return math.MaxInt64
	case math.IsInf(v, -1):
		return math.MinInt64 + 1
	}
	return int64(math.Round(v * Quantum))
}

// Equal reports whether two curves are structurally equal: same point count,
// same modes, and all coordinates equal on the quantization grid.
func Equal(a, b *Curve) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if len(a.Points) != len(b.Points) || a.Interp != b.Interp || a.Extend != b.Extend {
		return false
	}
	for i := range a.Points {
		if quantize(a.Points[i].X) != quantize(b.Points[i].X) ||
			quantize(a.Points[i].Y) != quantize(b.Points[i].Y) {
			return false
		}
	}
	return true
}

// Hash returns a deterministic hash consistent with Equal.
func Hash(c *Curve) uint64 {
	h := fnv.New64a()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(len(c.Points)))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte{byte(c.Interp), byte(c.Extend)})
	for _, p := range c.Points {
		binary.LittleEndian.PutUint64(buf[:], uint64(quantize(p.X)))
		_, _ = h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(quantize(p.Y)))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// Validate checks that a curve can be evaluated. It returns an error wrapping
// ErrMalformedCurve describing the first problem found.
func Validate(c *Curve) error {
	if c == nil {
		return fmt.Errorf("%w: nil curve", ErrMalformedCurve)
	}
	if len(c.Points) < 2 {
		return fmt.Errorf("%w: %d control points", ErrMalformedCurve, len(c.Points))
	}
	if c.Interp > Smooth {
		return fmt.Errorf("%w: interpolation mode %d", ErrMalformedCurve, c.Interp)
	}
	if c.Extend > Extrapolate {
		return fmt.Errorf("%w: extension mode %d", ErrMalformedCurve, c.Extend)
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	for i, p := range c.Points {
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("%w: point %d is not finite", ErrMalformedCurve, i)
		}
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
	}
	if maxX-minX < Epsilon {
		return fmt.Errorf("%w: zero-size range", ErrMalformedCurve)
	}
	return nil
}

// Repair normalizes c in place. Points are sorted and X is clamped to [0,1].
// A curve that fails Validate is reset to the default linear curve; in that
// case the validation error is returned so the caller can report it.
func Repair(c *Curve) error {
	if c == nil {
		return fmt.Errorf("%w: nil curve", ErrMalformedCurve)
	}
	err := Validate(c)
	if err != nil {
		c.Points = append(c.Points[:0], Point{0, 0}, Point{1, 1})
		c.Interp = Linear
		c.Extend = Horizontal
		c.table = nil
		return err
	}

	changed := false
	for i := range c.Points {
		if x := clamp01(c.Points[i].X); x != c.Points[i].X {
			c.Points[i].X = x
			changed = true
		}
	}
	for i := 1; i < len(c.Points); i++ {
		if c.Points[i].X < c.Points[i-1].X {
			c.sortPoints()
			changed = true
			break
		}
	}
	if changed {
		c.table = nil
		// Clamping can collapse the range.
		if err := Validate(c); err != nil {
			return Repair(c)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
