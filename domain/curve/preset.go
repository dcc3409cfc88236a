package curve

import "math"

// Preset names a built-in curve shape. All presets rise from the left edge to
// the right edge of the unit square, except Constant.
type Preset uint8

const (
	PresetCustom Preset = iota
	PresetLinear
	PresetSmooth
	PresetSmoother
	PresetSphere
	PresetRoot
	PresetSharp
	PresetConstant
	PresetInvSquare
	PresetPow4
)

var presetNames = [...]string{
	PresetCustom:    "custom",
	PresetLinear:    "linear",
	PresetSmooth:    "smooth",
	PresetSmoother:  "smoother",
	PresetSphere:    "sphere",
	PresetRoot:      "root",
	PresetSharp:     "sharp",
	PresetConstant:  "constant",
	PresetInvSquare: "inverse_square",
	PresetPow4:      "pow4",
}

// String returns the preset name.
func (p Preset) String() string {
	if int(p) < len(presetNames) {
		return presetNames[p]
	}
	return "unknown"
}

// ParsePreset returns the preset with the given name.
func ParsePreset(name string) (Preset, bool) {
	for i, n := range presetNames {
		if n == name {
			return Preset(i), true
		}
	}
	return PresetCustom, false
}

// Presets returns every preset except PresetCustom.
func Presets() []Preset {
	out := make([]Preset, 0, len(presetNames)-1)
	for i := 1; i < len(presetNames); i++ {
		out = append(out, Preset(i))
	}
	return out
}

// presetSamples is the control point count for sampled presets.
const presetSamples = 9

// NewPreset builds the curve for p. PresetCustom yields the default linear curve.
func NewPreset(p Preset) *Curve {
	switch p {
	case PresetLinear, PresetCustom:
		return Default()
	case PresetConstant:
		return New([]Point{{0, 1}, {1, 1}}, Linear, Horizontal)
	}

	fn := presetFunc(p)
	if fn == nil {
		return Default()
	}
	pts := make([]Point, presetSamples)
	for i := range pts {
		x := float64(i) / (presetSamples - 1)
		pts[i] = Point{X: x, Y: fn(x)}
	}
	return New(pts, Smooth, Horizontal)
}

func presetFunc(p Preset) func(float64) float64 {
	switch p {
	case PresetSmooth:
		return func(x float64) float64 { return x * x * (3 - 2*x) }
	case PresetSmoother:
		return func(x float64) float64 { return x * x * x * (x*(x*6-15) + 10) }
	case PresetSphere:
		return func(x float64) float64 { return math.Sqrt(math.Max(0, 1-(1-x)*(1-x))) }
	case PresetRoot:
		return math.Sqrt
	case PresetSharp:
		return func(x float64) float64 { return x * x }
	case PresetInvSquare:
		return func(x float64) float64 { return 1 - (1-x)*(1-x) }
	case PresetPow4:
		return func(x float64) float64 { return x * x * x * x }
	}
	return nil
}
