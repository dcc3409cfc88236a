// Package curve provides pure response-curve values.
// A Curve maps a normalized input to an output through a handful of control
// points. Evaluation goes through a dense lookup table that is built on first
// use and dropped whenever the points change.
package curve

import (
	"math"
	"sort"
)

// Point is a control point (value type).
type Point struct {
	X float64
	Y float64
}

// Interp selects how values between control points are computed.
type Interp uint8

const (
	Linear Interp = iota // straight segments
	Smooth               // monotone cubic (Fritsch-Carlson)
)

// String returns the interpolation name.
func (i Interp) String() string {
	switch i {
	case Linear:
		return "linear"
	case Smooth:
		return "smooth"
	default:
		return "unknown"
	}
}

// Extend selects how values outside the first/last control point are computed.
type Extend uint8

const (
	Horizontal  Extend = iota // hold the end point values
	Extrapolate               // continue the end segment slopes
)

// String returns the extension name.
func (e Extend) String() string {
	switch e {
	case Horizontal:
		return "horizontal"
	case Extrapolate:
		return "extrapolate"
	default:
		return "unknown"
	}
}

// TableSize is the number of lookup table intervals over [0,1].
const TableSize = 256

// Curve is a response curve. A curve published into a cache must not be
// modified; use a clone instead.
type Curve struct {
	Points []Point
	Interp Interp
	Extend Extend

	// table holds TableSize+1 samples over [0,1], nil until built.
	table []float64
}

// New creates a curve from the given points. Points are copied and sorted by X.
func New(points []Point, interp Interp, extend Extend) *Curve {
	c := &Curve{
		Points: append([]Point(nil), points...),
		Interp: interp,
		Extend: extend,
	}
	c.sortPoints()
	return c
}

// Default returns the identity curve (0,0)-(1,1).
func Default() *Curve {
	return New([]Point{{0, 0}, {1, 1}}, Linear, Horizontal)
}

// Clone returns a deep copy. A built lookup table is copied as well.
func (c *Curve) Clone() *Curve {
	out := &Curve{
		Points: append([]Point(nil), c.Points...),
		Interp: c.Interp,
		Extend: c.Extend,
	}
	if c.table != nil {
		out.table = append([]float64(nil), c.table...)
	}
	return out
}

// SetPoints replaces the control points and invalidates the lookup table.
func (c *Curve) SetPoints(points []Point) {
	c.Points = append(c.Points[:0], points...)
	c.sortPoints()
	c.table = nil
}

// Invalidate drops the lookup table. Call after editing Points, Interp or Extend directly.
func (c *Curve) Invalidate() {
	c.table = nil
}

// HasTable reports whether the lookup table is built.
func (c *Curve) HasTable() bool {
	return c.table != nil
}

// BuildTable builds the lookup table if it is missing.
func (c *Curve) BuildTable() {
	if c.table != nil {
		return
	}
	c.table = make([]float64, TableSize+1)
	tangents := c.tangents()
	for i := 0; i <= TableSize; i++ {
		c.table[i] = c.sample(float64(i)/TableSize, tangents)
	}
}

// Eval evaluates the curve at x. NaN inputs evaluate as 0.
// Inside [0,1] the result is linearly interpolated between two table samples.
func (c *Curve) Eval(x float64) float64 {
	if math.IsNaN(x) {
		x = 0
	}
	if len(c.Points) == 0 {
		return x
	}
	if x < 0 || x > 1 {
		if c.Extend == Horizontal || math.IsInf(x, 0) {
			x = clamp01(x)
		} else {
			return c.extrapolate(x)
		}
	}
	if c.table == nil {
		c.BuildTable()
	}

	f := x * TableSize
	i := int(f)
	if i >= TableSize {
		return c.table[TableSize]
	}
	t := f - float64(i)
	return c.table[i] + (c.table[i+1]-c.table[i])*t
}

func (c *Curve) sortPoints() {
	sort.SliceStable(c.Points, func(i, j int) bool {
		return c.Points[i].X < c.Points[j].X
	})
}

// sample evaluates the control polygon exactly at x.
func (c *Curve) sample(x float64, tangents []float64) float64 {
	pts := c.Points
	n := len(pts)
	if n == 1 {
		return pts[0].Y
	}
	if x <= pts[0].X || x >= pts[n-1].X {
		return c.extrapolate(x)
	}

	// First point with X > x; x lies in segment [k-1, k].
	k := sort.Search(n, func(i int) bool { return pts[i].X > x })
	p0, p1 := pts[k-1], pts[k]
	dx := p1.X - p0.X
	if dx <= 0 {
		return p1.Y
	}
	t := (x - p0.X) / dx

	if c.Interp == Linear || tangents == nil {
		return p0.Y + (p1.Y-p0.Y)*t
	}

	// Cubic Hermite segment.
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return h00*p0.Y + h10*dx*tangents[k-1] + h01*p1.Y + h11*dx*tangents[k]
}

// extrapolate evaluates outside the control point span.
func (c *Curve) extrapolate(x float64) float64 {
	pts := c.Points
	n := len(pts)
	first, last := pts[0], pts[n-1]

	if x <= first.X {
		if c.Extend == Extrapolate && n > 1 {
			return first.Y + slope(first, pts[1])*(x-first.X)
		}
		return first.Y
	}
	if x >= last.X {
		if c.Extend == Extrapolate && n > 1 {
			return last.Y + slope(pts[n-2], last)*(x-last.X)
		}
		return last.Y
	}
	return c.sample(x, nil)
}

// tangents computes monotone cubic tangents, or nil for linear curves.
func (c *Curve) tangents() []float64 {
	n := len(c.Points)
	if c.Interp != Smooth || n < 3 {
		return nil
	}
	pts := c.Points

	d := make([]float64, n-1)
	for k := 0; k < n-1; k++ {
		d[k] = slope(pts[k], pts[k+1])
	}

	m := make([]float64, n)
	m[0] = d[0]
	m[n-1] = d[n-2]
	for k := 1; k < n-1; k++ {
		if d[k-1]*d[k] <= 0 {
			m[k] = 0
		} else {
			m[k] = (d[k-1] + d[k]) / 2
		}
	}

	for k := 0; k < n-1; k++ {
		if d[k] == 0 {
			m[k] = 0
			m[k+1] = 0
			continue
		}
		a := m[k] / d[k]
		b := m[k+1] / d[k]
		if s := a*a + b*b; s > 9 {
			tau := 3 / math.Sqrt(s)
			m[k] = tau * a * d[k]
			m[k+1] = tau * b * d[k]
		}
	}
	return m
}

func slope(a, b Point) float64 {
	dx := b.X - a.X
	if dx <= 0 {
		return 0
	}
	return (b.Y - a.Y) / dx
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
