package channels

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/artpar/brushkit/core/curvecache"
	"github.com/artpar/brushkit/domain/channel"
	"github.com/artpar/brushkit/domain/curve"
)

// Document is the human-editable form of a channel set.
type Document struct {
	Name     string       `yaml:"name" json:"name"`
	Channels []ChannelDoc `yaml:"channels" json:"channels"`
}

// ChannelDoc is one channel of a Document. Value holds one number for
// scalar kinds and three or four for vectors. Items names the selected enum
// item or the set bitmask bits and takes precedence over Value on import.
type ChannelDoc struct {
	ID       string       `yaml:"id" json:"id"`
	Value    []float64    `yaml:"value,flow" json:"value"`
	Items    []string     `yaml:"items,omitempty,flow" json:"items,omitempty"`
	Flags    []string     `yaml:"flags,omitempty,flow" json:"flags,omitempty"`
	Curve    *CurveDoc    `yaml:"curve,omitempty" json:"curve,omitempty"`
	Mappings []MappingDoc `yaml:"mappings,omitempty" json:"mappings,omitempty"`
}

// MappingDoc is one mapping slot. Slots equal to the registry default are
// omitted on export and take the default on import.
type MappingDoc struct {
	Input       string    `yaml:"input" json:"input"`
	Enabled     bool      `yaml:"enabled" json:"enabled"`
	Invert      bool      `yaml:"invert,omitempty" json:"invert,omitempty"`
	Inherit     bool      `yaml:"inherit,omitempty" json:"inherit,omitempty"`
	Blend       string    `yaml:"blend" json:"blend"`
	Factor      float64   `yaml:"factor" json:"factor"`
	Min         float64   `yaml:"min" json:"min"`
	Max         float64   `yaml:"max" json:"max"`
	Premultiply float64   `yaml:"premultiply" json:"premultiply"`
	Curve       *CurveDoc `yaml:"curve,omitempty" json:"curve,omitempty"`
}

// CurveDoc is either a preset name or explicit points.
type CurveDoc struct {
	Preset string       `yaml:"preset,omitempty" json:"preset,omitempty"`
	Interp string       `yaml:"interp,omitempty" json:"interp,omitempty"`
	Extend string       `yaml:"extend,omitempty" json:"extend,omitempty"`
	Points [][2]float64 `yaml:"points,omitempty,flow" json:"points,omitempty"`
}

// ToDocument converts a set to its document form. Channels are in id order.
func ToDocument(s *Set) Document {
	doc := Document{Name: s.Name, Channels: make([]ChannelDoc, 0, s.Len())}
	for _, ch := range s.Channels() {
		doc.Channels = append(doc.Channels, channelDoc(ch))
	}
	return doc
}

// ChannelDocument returns the document form of one channel.
func ChannelDocument(ch *Channel) ChannelDoc {
	return channelDoc(ch)
}

func channelDoc(ch *Channel) ChannelDoc {
	cd := ChannelDoc{
		ID:    ch.ID,
		Value: ValueNumbers(ch.value),
		Items: itemsDoc(ch.Def, ch.value),
		Flags: ch.Flags.Names(),
	}
	if ch.Def.Kind == channel.KindCurve {
		cd.Curve = curveDoc(ch.curve.get())
	}
	for i := range ch.Mappings {
		m := &ch.Mappings[i]
		if mappingIsDefault(m, &ch.Def.Mappings[i]) {
			continue
		}
		cd.Mappings = append(cd.Mappings, MappingDoc{
			Input:       channel.MappingType(i).String(),
			Enabled:     m.Enabled(),
			Invert:      m.Inverted(),
			Inherit:     m.Inherits(),
			Blend:       m.Blend.String(),
			Factor:      m.Factor,
			Min:         m.Min,
			Max:         m.Max,
			Premultiply: m.Premultiply,
			Curve:       curveDoc(m.curve.get()),
		})
	}
	return cd
}

func mappingIsDefault(m *Mapping, md *channel.MappingDef) bool {
	return m.Enabled() == md.Enabled && m.Inverted() == md.Invert && !m.Inherits() &&
		m.Blend == md.Blend && m.Factor == md.Factor && m.Min == md.Min && m.Max == md.Max &&
		m.Premultiply == md.Premultiply && curve.Equal(m.curve.get(), curve.NewPreset(md.Curve))
}

// ValueNumbers returns the document number list for v.
func ValueNumbers(v channel.Value) []float64 {
	switch x := v.(type) {
	case channel.FloatValue:
		return []float64{float64(x)}
	case channel.IntValue:
		return []float64{float64(x)}
	case channel.Vec3Value:
		return x[:]
	case channel.Vec4Value:
		return x[:]
	}
	return nil
}

func itemsDoc(def *channel.TypeDef, v channel.Value) []string {
	iv, ok := v.(channel.IntValue)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range def.EnumItems {
		switch def.Kind {
		case channel.KindEnum:
			if it.Value == int64(iv) {
				out = append(out, it.ID)
			}
		case channel.KindBitmask:
			if int64(iv)&it.Value != 0 {
				out = append(out, it.ID)
			}
		}
	}
	return out
}

func curveDoc(c *curve.Curve) *CurveDoc {
	if c == nil {
		return nil
	}
	for _, p := range curve.Presets() {
		if curve.Equal(c, curve.NewPreset(p)) {
			return &CurveDoc{Preset: p.String()}
		}
	}
	cd := &CurveDoc{Interp: c.Interp.String(), Extend: c.Extend.String()}
	for _, p := range c.Points {
		cd.Points = append(cd.Points, [2]float64{p.X, p.Y})
	}
	return cd
}

// FromDocument builds a set from a document. Channels start from registry
// defaults. Unknown channel ids, flags, items and names are errors.
func FromDocument(doc Document, cache *curvecache.Cache) (*Set, error) {
	s := NewSet(doc.Name, cache)
	for _, cd := range doc.Channels {
		if err := s.applyDoc(cd); err != nil {
			s.Free()
			return nil, fmt.Errorf("channel %q: %w", cd.ID, err)
		}
	}
	s.Commit()
	return s, nil
}

func (s *Set) applyDoc(cd ChannelDoc) error {
	def, err := channel.Lookup(cd.ID)
	if err != nil {
		return err
	}
	ch := NewChannel(def, s.cache)
	if err := fillChannel(ch, cd); err != nil {
		ch.Free()
		return err
	}
	s.Put(ch)
	return nil
}

func fillChannel(ch *Channel, cd ChannelDoc) error {
	flags, ok := channel.ParseFlags(cd.Flags)
	if !ok {
		return fmt.Errorf("unknown flag in %v", cd.Flags)
	}
	ch.Flags = flags

	v, err := valueFromDoc(ch.Def, cd)
	if err != nil {
		return err
	}
	if err := ch.SetValue(v); err != nil {
		return err
	}

	if cd.Curve != nil {
		c, err := curveFromDoc(cd.Curve)
		if err != nil {
			return err
		}
		if err := ch.SetCurve(c); err != nil {
			return err
		}
	}

	for _, md := range cd.Mappings {
		t, ok := channel.ParseMappingType(md.Input)
		if !ok {
			return fmt.Errorf("unknown mapping input %q", md.Input)
		}
		blend, ok := channel.ParseBlendMode(md.Blend)
		if !ok {
			return fmt.Errorf("unknown blend mode %q", md.Blend)
		}
		m := ch.Mapping(t)
		m.Flags = channel.MappingFlags(0).
			With(channel.MappingEnabled, md.Enabled).
			With(channel.MappingInvert, md.Invert).
			With(channel.MappingInherit, md.Inherit)
		m.Blend = blend
		m.Factor = finiteOr(md.Factor, 1)
		m.Min = finiteOr(md.Min, 0)
		m.Max = finiteOr(md.Max, 1)
		m.Premultiply = finiteOr(md.Premultiply, 1)
		if md.Curve != nil {
			c, err := curveFromDoc(md.Curve)
			if err != nil {
				return err
			}
			ch.SetMappingCurve(t, c)
		}
	}
	return nil
}

// ApplyChannelDoc replaces the channel cd names with one built from cd.
// The set is unchanged when cd is invalid.
func (s *Set) ApplyChannelDoc(cd ChannelDoc) error {
	if err := s.applyDoc(cd); err != nil {
		return fmt.Errorf("channel %q: %w", cd.ID, err)
	}
	s.chans[cd.ID].Commit()
	return nil
}

func valueFromDoc(def *channel.TypeDef, cd ChannelDoc) (channel.Value, error) {
	if len(cd.Items) > 0 {
		var v int64
		for _, id := range cd.Items {
			it, ok := def.EnumItem(id)
			if !ok {
				return nil, fmt.Errorf("unknown item %q", id)
			}
			if def.Kind == channel.KindBitmask {
				v |= it.Value
			} else {
				v = it.Value
			}
		}
		return channel.IntValue(v), nil
	}
	return ValueFromNumbers(def, cd.Value)
}

// ValueFromNumbers converts a document number list into a value of the
// definition's kind. An empty list yields the default.
func ValueFromNumbers(def *channel.TypeDef, nums []float64) (channel.Value, error) {
	if len(nums) == 0 {
		return def.Default, nil
	}

	want := 1
	switch channel.TagFor(def.Kind) {
	case channel.TagVec3:
		want = 3
	case channel.TagVec4:
		want = 4
	}
	if len(nums) != want {
		return nil, fmt.Errorf("%w: %s wants %d components, got %d", channel.ErrTypeMismatch, def.ID, want, len(nums))
	}

	switch channel.TagFor(def.Kind) {
	case channel.TagFloat:
		return channel.FloatValue(nums[0]), nil
	case channel.TagInt:
		return channel.IntValue(int64(nums[0])), nil
	case channel.TagVec3:
		var v channel.Vec3Value
		copy(v[:], nums)
		return v, nil
	}
	var v channel.Vec4Value
	copy(v[:], nums)
	return v, nil
}

func curveFromDoc(cd *CurveDoc) (*curve.Curve, error) {
	if cd.Preset != "" {
		p, ok := curve.ParsePreset(cd.Preset)
		if !ok {
			return nil, fmt.Errorf("unknown curve preset %q", cd.Preset)
		}
		return curve.NewPreset(p), nil
	}

	interp := curve.Linear
	switch cd.Interp {
	case "", "linear":
	case "smooth":
		interp = curve.Smooth
	default:
		return nil, fmt.Errorf("unknown interpolation %q", cd.Interp)
	}
	extend := curve.Horizontal
	switch cd.Extend {
	case "", "horizontal":
	case "extrapolate":
		extend = curve.Extrapolate
	default:
		return nil, fmt.Errorf("unknown extension %q", cd.Extend)
	}

	pts := make([]curve.Point, len(cd.Points))
	for i, p := range cd.Points {
		pts[i] = curve.Point{X: p[0], Y: p[1]}
	}
	return curve.New(pts, interp, extend), nil
}

// MarshalYAML encodes a set as a YAML document.
func MarshalYAML(s *Set) ([]byte, error) {
	return yaml.Marshal(ToDocument(s))
}

// UnmarshalYAML decodes a YAML document into a new set.
func UnmarshalYAML(data []byte, cache *curvecache.Cache) (*Set, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse channel document: %w", err)
	}
	return FromDocument(doc, cache)
}
