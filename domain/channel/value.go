// Package channel provides the pure schema of brush channels: numeric kinds,
// tagged values, flags, mapping enums, input signals and the static registry
// of channel type definitions.
//
// Everything in this package is immutable or a value type. Channel instances
// that own curves live in core/channels.
package channel

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by channel lookups and accessors.
var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrTypeMismatch    = errors.New("channel type mismatch")
)

// Kind is the numeric kind of a channel.
type Kind uint8

const (
	KindFloat Kind = iota
	KindInt
	KindBool
	KindEnum
	KindBitmask
	KindVec3
	KindVec4
	KindCurve
)

var kindNames = [...]string{
	KindFloat:   "float",
	KindInt:     "int",
	KindBool:    "bool",
	KindEnum:    "enum",
	KindBitmask: "bitmask",
	KindVec3:    "vec3",
	KindVec4:    "vec4",
	KindCurve:   "curve",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Mappable reports whether input mappings can modulate channels of this kind.
func (k Kind) Mappable() bool {
	return k == KindFloat || k == KindInt || k == KindCurve
}

// Value is the tagged union of channel values.
// The concrete types are FloatValue, IntValue, Vec3Value and Vec4Value.
type Value interface {
	isValue()
	String() string
}

// FloatValue holds Float channels and the scale of Curve channels.
type FloatValue float64

// IntValue holds Int, Bool, Enum and Bitmask channels.
type IntValue int64

// Vec3Value holds Vec3 channels.
type Vec3Value [3]float64

// Vec4Value holds Vec4 channels.
type Vec4Value [4]float64

func (FloatValue) isValue() {}
func (IntValue) isValue()   {}
func (Vec3Value) isValue()  {}
func (Vec4Value) isValue()  {}

func (v FloatValue) String() string { return fmt.Sprintf("%g", float64(v)) }
func (v IntValue) String() string   { return fmt.Sprintf("%d", int64(v)) }
func (v Vec3Value) String() string  { return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2]) }
func (v Vec4Value) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", v[0], v[1], v[2], v[3])
}

// ValueTag identifies a concrete Value type in persisted data.
type ValueTag uint8

const (
	TagFloat ValueTag = iota + 1
	TagInt
	TagVec3
	TagVec4
)

// TagOf returns the tag for v.
func TagOf(v Value) ValueTag {
	switch v.(type) {
	case FloatValue:
		return TagFloat
	case IntValue:
		return TagInt
	case Vec3Value:
		return TagVec3
	case Vec4Value:
		return TagVec4
	}
	return 0
}

// TagFor returns the value tag channels of kind k must carry.
func TagFor(k Kind) ValueTag {
	switch k {
	case KindFloat, KindCurve:
		return TagFloat
	case KindInt, KindBool, KindEnum, KindBitmask:
		return TagInt
	case KindVec3:
		return TagVec3
	case KindVec4:
		return TagVec4
	}
	return 0
}

// Matches reports whether v is the right variant for kind k.
func Matches(k Kind, v Value) bool {
	return v != nil && TagOf(v) == TagFor(k)
}

// CheckValue returns ErrTypeMismatch when v does not fit the definition's kind.
func CheckValue(def *TypeDef, v Value) error {
	if !Matches(def.Kind, v) {
		return fmt.Errorf("%w: %s is %s, got %T", ErrTypeMismatch, def.ID, def.Kind, v)
	}
	return nil
}

// Scalar returns the value as a float. Vectors return their first component.
func Scalar(v Value) float64 {
	switch x := v.(type) {
	case FloatValue:
		return float64(x)
	case IntValue:
		return float64(x)
	case Vec3Value:
		return x[0]
	case Vec4Value:
		return x[0]
	}
	return 0
}

// Sanitize clamps v into the definition's hard range and replaces non-finite
// components with the default. Bool values collapse to 0/1 and bitmasks drop
// bits no item defines.
func (d *TypeDef) Sanitize(v Value) Value {
	switch x := v.(type) {
	case FloatValue:
		f := float64(x)
		if !isFinite(f) {
			return d.Default
		}
		return FloatValue(clampRange(f, d.Min, d.Max))

	case IntValue:
		switch d.Kind {
		case KindBool:
			if x != 0 {
				return IntValue(1)
			}
			return IntValue(0)
		case KindBitmask:
			return x & IntValue(d.BitmaskAll())
		case KindEnum:
			return x
		}
		return IntValue(clampRange(float64(x), d.Min, d.Max))

	case Vec3Value:
		def, _ := d.Default.(Vec3Value)
		for i := range x {
			if !isFinite(x[i]) {
				x[i] = def[i]
			}
			x[i] = clampRange(x[i], d.Min, d.Max)
		}
		return x

	case Vec4Value:
		def, _ := d.Default.(Vec4Value)
		for i := range x {
			if !isFinite(x[i]) {
				x[i] = def[i]
			}
			x[i] = clampRange(x[i], d.Min, d.Max)
		}
		return x
	}
	return v
}

// clampRange clamps v into [lo, hi]. An empty range (lo >= hi) leaves v unchanged.
func clampRange(v, lo, hi float64) float64 {
	if lo >= hi {
		return v
	}
	return math.Max(lo, math.Min(hi, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
