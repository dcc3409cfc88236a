package channel

import "github.com/artpar/brushkit/domain/curve"

// Subtype refines how a channel's number is presented.
type Subtype uint8

const (
	SubtypeNone Subtype = iota
	SubtypeFactor
	SubtypePercentage
	SubtypePixel
	SubtypeDistance
	SubtypeColor
	SubtypeAngle
)

var subtypeNames = [...]string{
	SubtypeNone:       "none",
	SubtypeFactor:     "factor",
	SubtypePercentage: "percentage",
	SubtypePixel:      "pixel",
	SubtypeDistance:   "distance",
	SubtypeColor:      "color",
	SubtypeAngle:      "angle",
}

// String returns the subtype name.
func (s Subtype) String() string {
	if int(s) < len(subtypeNames) {
		return subtypeNames[s]
	}
	return "unknown"
}

// EnumItem is one choice of an Enum channel or one bit of a Bitmask channel.
type EnumItem struct {
	Value int64
	ID    string
	Name  string
}

// MappingDef is the default configuration of one mapping slot.
type MappingDef struct {
	Enabled     bool
	Invert      bool
	Curve       curve.Preset
	Blend       BlendMode
	Min         float64
	Max         float64
	Factor      float64
	Premultiply float64
}

// TypeDef describes one recognized channel (immutable after registry init).
type TypeDef struct {
	ID          string
	Name        string
	Category    string
	Description string

	Kind    Kind
	Subtype Subtype

	Min, Max         float64 // hard range
	SoftMin, SoftMax float64 // UI range

	Default     Value
	EnumItems   []EnumItem
	CurvePreset curve.Preset

	Mappings [NumMappings]MappingDef
	Flags    Flags
}

// Mappable reports whether the channel accepts input mappings.
func (d *TypeDef) Mappable() bool {
	return d.Kind.Mappable() && !d.Flags.Has(FlagNoMappings)
}

// BitmaskAll returns the union of all item bits.
func (d *TypeDef) BitmaskAll() int64 {
	var all int64
	for _, it := range d.EnumItems {
		all |= it.Value
	}
	return all
}

// EnumItem returns the item with the given identifier.
func (d *TypeDef) EnumItem(id string) (EnumItem, bool) {
	for _, it := range d.EnumItems {
		if it.ID == id {
			return it, true
		}
	}
	return EnumItem{}, false
}

// normalize fills unset mapping fields and soft ranges.
func (d *TypeDef) normalize() {
	for i := range d.Mappings {
		m := &d.Mappings[i]
		if m.Max == 0 && m.Min == 0 {
			m.Max = 1
		}
		if m.Factor == 0 {
			m.Factor = 1
		}
		if m.Premultiply == 0 {
			m.Premultiply = 1
		}
		if m.Curve == curve.PresetCustom {
			m.Curve = curve.PresetLinear
		}
	}
	if d.SoftMin == 0 && d.SoftMax == 0 {
		d.SoftMin, d.SoftMax = d.Min, d.Max
	}
	if d.Default == nil {
		switch TagFor(d.Kind) {
		case TagFloat:
			d.Default = FloatValue(0)
		case TagInt:
			d.Default = IntValue(0)
		case TagVec3:
			d.Default = Vec3Value{}
		case TagVec4:
			d.Default = Vec4Value{}
		}
	}
	if !d.Kind.Mappable() {
		d.Flags |= FlagNoMappings
	}
}
