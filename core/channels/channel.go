// Package channels holds mutable channel instances: channels with their
// mapping slots, named channel sets, the inheritance resolver, the mapping
// evaluator and the persistence codecs.
//
// Curves referenced by channels are either private to one slot or shared
// through a curvecache.Cache. A Set and all of its channels intern into the
// same cache; Free releases every shared reference the set holds.
package channels

import (
	"fmt"

	"github.com/artpar/brushkit/core/curvecache"
	"github.com/artpar/brushkit/domain/channel"
	"github.com/artpar/brushkit/domain/curve"
)

// Mapping binds one input signal to a curve and a blend rule.
type Mapping struct {
	Type        channel.MappingType
	Flags       channel.MappingFlags
	Blend       channel.BlendMode
	Factor      float64
	Min         float64
	Max         float64
	Premultiply float64

	curve curveSlot
}

// Enabled reports whether the slot takes part in evaluation.
func (m *Mapping) Enabled() bool { return m.Flags.Has(channel.MappingEnabled) }

// Inverted reports whether the signal is inverted before the curve.
func (m *Mapping) Inverted() bool { return m.Flags.Has(channel.MappingInvert) }

// Inherits reports whether the slot is taken from the parent when resolving.
func (m *Mapping) Inherits() bool { return m.Flags.Has(channel.MappingInherit) }

// Curve returns the slot's curve for reading. Nil means identity.
func (m *Mapping) Curve() *curve.Curve { return m.curve.get() }

// SharedCurve returns the cache reference, or nil for private or empty slots.
func (m *Mapping) SharedCurve() *curvecache.Ref { return m.curve.shared }

// copyFrom overwrites the slot configuration and curve from src.
func (m *Mapping) copyFrom(src *Mapping, cache *curvecache.Cache) {
	m.curve.free(cache)
	*m = Mapping{
		Type:        src.Type,
		Flags:       src.Flags,
		Blend:       src.Blend,
		Factor:      src.Factor,
		Min:         src.Min,
		Max:         src.Max,
		Premultiply: src.Premultiply,
		curve:       src.curve.copyTo(cache),
	}
}

// Channel is one typed, input-mappable parameter instance.
type Channel struct {
	ID       string
	Def      *channel.TypeDef
	Flags    channel.Flags
	Mappings [channel.NumMappings]Mapping

	value channel.Value
	curve curveSlot // Curve kind only
	cache *curvecache.Cache
}

// NewChannel creates a channel with the registry defaults for def. Mapping
// and falloff curves are shared pinned presets.
func NewChannel(def *channel.TypeDef, cache *curvecache.Cache) *Channel {
	ch := &Channel{
		ID:    def.ID,
		Def:   def,
		Flags: def.Flags,
		value: def.Default,
		cache: cache,
	}
	for i, md := range def.Mappings {
		m := &ch.Mappings[i]
		m.Type = channel.MappingType(i)
		m.Flags = channel.MappingFlags(0).
			With(channel.MappingEnabled, md.Enabled).
			With(channel.MappingInvert, md.Invert)
		m.Blend = md.Blend
		m.Factor = md.Factor
		m.Min = md.Min
		m.Max = md.Max
		m.Premultiply = md.Premultiply
		m.curve.shared = cache.Preset(md.Curve)
	}
	if def.Kind == channel.KindCurve {
		ch.curve.shared = cache.Preset(def.CurvePreset)
	}
	return ch
}

// Value returns the base value.
func (ch *Channel) Value() channel.Value {
	return ch.value
}

// SetValue sets the base value. The value must match the channel kind; it
// is clamped into the hard range.
func (ch *Channel) SetValue(v channel.Value) error {
	if err := channel.CheckValue(ch.Def, v); err != nil {
		return err
	}
	ch.value = ch.Def.Sanitize(v)
	return nil
}

// Inherits reports whether the channel is taken from the parent when resolving.
func (ch *Channel) Inherits() bool {
	return ch.Flags.Has(channel.FlagInherit)
}

// SetInherit sets or clears the inherit flag.
func (ch *Channel) SetInherit(on bool) {
	ch.Flags = ch.Flags.With(channel.FlagInherit, on)
}

// Mappable reports whether mappings are evaluated for this channel.
func (ch *Channel) Mappable() bool {
	return ch.Def.Mappable() && !ch.Flags.Has(channel.FlagNoMappings)
}

// Mapping returns the slot for signal t.
func (ch *Channel) Mapping(t channel.MappingType) *Mapping {
	return &ch.Mappings[t]
}

// Curve returns the channel curve of a Curve-kind channel for reading.
func (ch *Channel) Curve() *curve.Curve {
	return ch.curve.get()
}

// EnsureWritableCurve returns a private copy of the channel curve that may
// be edited. Call Commit on the owning set when the edit ends.
func (ch *Channel) EnsureWritableCurve() (*curve.Curve, error) {
	if ch.Def.Kind != channel.KindCurve {
		return nil, fmt.Errorf("%w: %s has no channel curve", channel.ErrTypeMismatch, ch.ID)
	}
	return ch.curve.writable(ch.cache, ch.Def.CurvePreset), nil
}

// EnsureWritableMappingCurve returns a private, editable copy of the curve of
// mapping slot t.
func (ch *Channel) EnsureWritableMappingCurve(t channel.MappingType) *curve.Curve {
	return ch.Mappings[t].curve.writable(ch.cache, ch.Def.Mappings[t].Curve)
}

// SetMappingCurve replaces a slot's curve with a private curve. The channel
// takes ownership of c.
func (ch *Channel) SetMappingCurve(t channel.MappingType, c *curve.Curve) {
	ch.Mappings[t].curve.set(ch.cache, c)
}

// SetCurve replaces the channel curve of a Curve-kind channel.
func (ch *Channel) SetCurve(c *curve.Curve) error {
	if ch.Def.Kind != channel.KindCurve {
		return fmt.Errorf("%w: %s has no channel curve", channel.ErrTypeMismatch, ch.ID)
	}
	ch.curve.set(ch.cache, c)
	return nil
}

// Commit interns every private curve of the channel.
func (ch *Channel) Commit() {
	ch.curve.commit(ch.cache)
	for i := range ch.Mappings {
		ch.Mappings[i].curve.commit(ch.cache)
	}
}

// Copy returns a deep copy holding its own curve references in cache.
func (ch *Channel) Copy(cache *curvecache.Cache) *Channel {
	out := &Channel{
		ID:    ch.ID,
		Def:   ch.Def,
		Flags: ch.Flags,
		value: ch.value,
		curve: ch.curve.copyTo(cache),
		cache: cache,
	}
	for i := range ch.Mappings {
		out.Mappings[i].copyFrom(&ch.Mappings[i], cache)
	}
	return out
}

// Free drops private curves and releases shared ones.
func (ch *Channel) Free() {
	ch.curve.free(ch.cache)
	for i := range ch.Mappings {
		ch.Mappings[i].curve.free(ch.cache)
	}
}

// takeFrom overwrites value, mappings and channel curve from src, keeping
// the receiver's channel flags and per-slot inherit marks.
func (ch *Channel) takeFrom(src *Channel) {
	ch.value = src.value
	ch.curve.free(ch.cache)
	ch.curve = src.curve.copyTo(ch.cache)
	for i := range ch.Mappings {
		m := &ch.Mappings[i]
		inherit := m.Inherits()
		m.copyFrom(&src.Mappings[i], ch.cache)
		m.Flags = m.Flags.With(channel.MappingInherit, inherit)
	}
}
