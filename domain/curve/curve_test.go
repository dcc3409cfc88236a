package curve_test

import (
	"errors"
	"math"
	"testing"

	"github.com/artpar/brushkit/domain/curve"
)

const tolerance = 1e-9

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestEval_DefaultIsIdentity(t *testing.T) {
	c := curve.Default()

	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{0.25, 0.25},
		{0.5, 0.5},
		{0.999, 0.999},
		{1, 1},
		{-0.5, 0}, // horizontal extension clamps
		{1.5, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
	}

	for _, tt := range tests {
		if got := c.Eval(tt.in); !approx(got, tt.want, 1e-6) {
			t.Errorf("Eval(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEval_Extrapolate(t *testing.T) {
	c := curve.New([]curve.Point{{0, 0}, {1, 2}}, curve.Linear, curve.Extrapolate)

	if got := c.Eval(1.5); !approx(got, 3, tolerance) {
		t.Errorf("Eval(1.5) = %v, want 3", got)
	}
	if got := c.Eval(-0.5); !approx(got, -1, tolerance) {
		t.Errorf("Eval(-0.5) = %v, want -1", got)
	}
}

func TestEval_HorizontalBeforeFirstPoint(t *testing.T) {
	c := curve.New([]curve.Point{{0.25, 0.1}, {0.75, 0.9}}, curve.Linear, curve.Horizontal)

	if got := c.Eval(0.1); !approx(got, 0.1, 1e-6) {
		t.Errorf("Eval(0.1) = %v, want 0.1", got)
	}
	if got := c.Eval(0.9); !approx(got, 0.9, 1e-6) {
		t.Errorf("Eval(0.9) = %v, want 0.9", got)
	}
	if got := c.Eval(0.5); !approx(got, 0.5, 1e-6) {
		t.Errorf("Eval(0.5) = %v, want 0.5", got)
	}
}

func TestEval_SmoothIsMonotone(t *testing.T) {
	for _, p := range curve.Presets() {
		c := curve.NewPreset(p)
		prev := c.Eval(0)
		for i := 1; i <= 200; i++ {
			x := float64(i) / 200
			v := c.Eval(x)
			if v < prev-1e-9 {
				t.Errorf("preset %s not monotone at %v: %v < %v", p, x, v, prev)
				break
			}
			prev = v
		}
	}
}

func TestEval_BuildsTableLazily(t *testing.T) {
	c := curve.New([]curve.Point{{0, 0}, {1, 1}}, curve.Linear, curve.Horizontal)
	if c.HasTable() {
		t.Fatal("table built before first evaluation")
	}
	c.Eval(0.5)
	if !c.HasTable() {
		t.Fatal("table not built after evaluation")
	}

	c.SetPoints([]curve.Point{{0, 1}, {1, 0}})
	if c.HasTable() {
		t.Error("SetPoints did not invalidate the table")
	}
	if got := c.Eval(0.25); !approx(got, 0.75, 1e-6) {
		t.Errorf("Eval(0.25) after edit = %v, want 0.75", got)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	a := curve.NewPreset(curve.PresetSharp)
	a.BuildTable()
	b := a.Clone()

	b.Points[1].Y = 0.9
	b.Invalidate()

	if curve.Equal(a, b) {
		t.Error("clone shares points with original")
	}
	if !a.HasTable() {
		t.Error("original lost its table")
	}
}

func TestEqual_ImpliesSameHash(t *testing.T) {
	base := []curve.Point{{0, 0}, {0.5, 0.25}, {1, 1}}
	jitter := []curve.Point{{0, 1e-9}, {0.5 + 1e-9, 0.25 - 1e-9}, {1, 1}}

	a := curve.New(base, curve.Smooth, curve.Horizontal)
	b := curve.New(jitter, curve.Smooth, curve.Horizontal)

	if !curve.Equal(a, b) {
		t.Fatal("curves differing only by jitter should be equal")
	}
	if curve.Hash(a) != curve.Hash(b) {
		t.Error("equal curves have different hashes")
	}

	for _, p := range curve.Presets() {
		x, y := curve.NewPreset(p), curve.NewPreset(p)
		if !curve.Equal(x, y) || curve.Hash(x) != curve.Hash(y) {
			t.Errorf("preset %s: equal=%v hashes %x/%x", p, curve.Equal(x, y), curve.Hash(x), curve.Hash(y))
		}
	}
}

func TestEqual_Differences(t *testing.T) {
	a := curve.New([]curve.Point{{0, 0}, {1, 1}}, curve.Linear, curve.Horizontal)

	tests := []struct {
		name string
		b    *curve.Curve
	}{
		{"point count", curve.New([]curve.Point{{0, 0}, {0.5, 0.5}, {1, 1}}, curve.Linear, curve.Horizontal)},
		{"interp", curve.New([]curve.Point{{0, 0}, {1, 1}}, curve.Smooth, curve.Horizontal)},
		{"extend", curve.New([]curve.Point{{0, 0}, {1, 1}}, curve.Linear, curve.Extrapolate)},
		{"coordinate", curve.New([]curve.Point{{0, 0}, {1, 0.9}}, curve.Linear, curve.Horizontal)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if curve.Equal(a, tt.b) {
				t.Error("expected curves to differ")
			}
		})
	}

	if curve.Equal(a, nil) {
		t.Error("curve equal to nil")
	}
}

func TestRepair_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		points []curve.Point
	}{
		{"no points", nil},
		{"one point", []curve.Point{{0.5, 0.5}}},
		{"nan", []curve.Point{{0, 0}, {math.NaN(), 1}}},
		{"inf", []curve.Point{{0, math.Inf(1)}, {1, 1}}},
		{"zero range", []curve.Point{{0.5, 0}, {0.5, 1}}},
		{"collapses when clamped", []curve.Point{{1.5, 0}, {2, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &curve.Curve{Points: tt.points, Interp: curve.Smooth}
			err := curve.Repair(c)
			if !errors.Is(err, curve.ErrMalformedCurve) {
				t.Fatalf("Repair error = %v, want ErrMalformedCurve", err)
			}
			if !curve.Equal(c, curve.Default()) {
				t.Errorf("repaired curve = %+v, want default linear", c.Points)
			}
			if err := curve.Validate(c); err != nil {
				t.Errorf("repaired curve fails validation: %v", err)
			}
		})
	}
}

func TestRepair_NormalizesValidCurve(t *testing.T) {
	c := &curve.Curve{Points: []curve.Point{{1, 1}, {-0.2, 0}, {0.5, 0.3}}}

	if err := curve.Repair(c); err != nil {
		t.Fatalf("Repair() error = %v", err)
	}

	want := []curve.Point{{0, 0}, {0.5, 0.3}, {1, 1}}
	for i, p := range want {
		if c.Points[i] != p {
			t.Errorf("Points[%d] = %v, want %v", i, c.Points[i], p)
		}
	}
}

func TestPreset_Names(t *testing.T) {
	for _, p := range curve.Presets() {
		got, ok := curve.ParsePreset(p.String())
		if !ok || got != p {
			t.Errorf("ParsePreset(%q) = %v, %v", p.String(), got, ok)
		}
		if err := curve.Validate(curve.NewPreset(p)); err != nil {
			t.Errorf("preset %s invalid: %v", p, err)
		}
	}

	if _, ok := curve.ParsePreset("bogus"); ok {
		t.Error("ParsePreset accepted unknown name")
	}

	c := curve.NewPreset(curve.PresetConstant)
	if got := c.Eval(0.3); got != 1 {
		t.Errorf("constant preset Eval(0.3) = %v, want 1", got)
	}
}
