package channels

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/rs/zerolog"

	"github.com/artpar/brushkit/core/curvecache"
	"github.com/artpar/brushkit/domain/channel"
	"github.com/artpar/brushkit/domain/curve"
)

// ErrCorruptData is returned when serialized channel data cannot be decoded.
var ErrCorruptData = errors.New("corrupt channel data")

const (
	codecMagic   = "BKCS"
	codecVersion = 1

	maxStringLen = 1 << 12
	maxPoints    = 1 << 10
)

// Serialize encodes a set. Private curves are written like shared ones; the
// decoder interns all of them.
func Serialize(s *Set) ([]byte, error) {
	w := &writer{}
	w.bytes([]byte(codecMagic))
	w.u16(codecVersion)
	if err := w.str(s.Name); err != nil {
		return nil, err
	}

	chans := s.Channels()
	w.u32(uint32(len(chans)))
	for _, ch := range chans {
		if err := w.str(ch.ID); err != nil {
			return nil, err
		}
		w.u32(uint32(ch.Flags))
		w.value(ch.value)
		if err := w.curve(ch.curve.get()); err != nil {
			return nil, fmt.Errorf("channel %s: %w", ch.ID, err)
		}
		for i := range ch.Mappings {
			m := &ch.Mappings[i]
			w.u8(uint8(i))
			w.u8(uint8(m.Flags))
			w.u8(uint8(m.Blend))
			w.f64(m.Factor)
			w.f64(m.Min)
			w.f64(m.Max)
			w.f64(m.Premultiply)
			if err := w.curve(m.curve.get()); err != nil {
				return nil, fmt.Errorf("channel %s mapping %d: %w", ch.ID, i, err)
			}
		}
	}
	return w.buf.Bytes(), nil
}

// Deserialize decodes a set and interns every curve into cache.
//
// Data problems that leave the rest of the set usable are repaired and
// logged: unknown channel ids are skipped, values of the wrong type are reset
// to the default, malformed curves are repaired by the cache. Truncated or
// structurally invalid data returns ErrCorruptData.
func Deserialize(data []byte, cache *curvecache.Cache, log zerolog.Logger) (*Set, error) {
	r := &reader{r: bytes.NewReader(data)}

	magic := r.bytes(len(codecMagic))
	if r.err == nil && string(magic) != codecMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptData, magic)
	}
	if v := r.u16(); r.err == nil && v != codecVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptData, v)
	}
	name := r.str()
	count := r.u32()
	if r.err != nil {
		return nil, r.corrupt()
	}

	s := NewSet(name, cache)
	for n := uint32(0); n < count; n++ {
		rec := r.channel()
		if r.err != nil {
			s.Free()
			return nil, r.corrupt()
		}
		if err := s.adopt(rec, log); err != nil {
			log.Warn().Err(err).Str("channel", rec.id).Msg("skipping channel")
		}
	}
	if r.r.Len() != 0 {
		log.Warn().Int("bytes", r.r.Len()).Str("set", name).Msg("trailing data after channel set")
	}
	return s, nil
}

type mappingRecord struct {
	flags       channel.MappingFlags
	blend       channel.BlendMode
	factor      float64
	min, max    float64
	premultiply float64
	curve       *curve.Curve
}

type channelRecord struct {
	id       string
	flags    channel.Flags
	value    channel.Value
	curve    *curve.Curve
	mappings [channel.NumMappings]mappingRecord
}

// adopt builds a channel from a decoded record and interns its curves.
func (s *Set) adopt(rec channelRecord, log zerolog.Logger) error {
	def, err := channel.Lookup(rec.id)
	if err != nil {
		return err
	}
	ch := &Channel{ID: def.ID, Def: def, Flags: rec.flags & channel.FlagMask, cache: s.cache}

	if channel.Matches(def.Kind, rec.value) {
		ch.value = def.Sanitize(rec.value)
	} else {
		log.Warn().Str("channel", rec.id).Str("kind", def.Kind.String()).
			Msg("value type does not match channel kind, using default")
		ch.value = def.Default
	}

	if def.Kind == channel.KindCurve {
		c := rec.curve
		if c == nil {
			c = curve.NewPreset(def.CurvePreset)
		}
		ch.curve.shared = s.cache.GetOrInsert(c)
	}

	for i, mr := range rec.mappings {
		m := &ch.Mappings[i]
		m.Type = channel.MappingType(i)
		m.Flags = mr.flags & channel.MappingFlagMask
		m.Blend = mr.blend
		if m.Blend > channel.BlendAbsDiff {
			log.Warn().Str("channel", rec.id).Uint8("blend", uint8(mr.blend)).Msg("unknown blend mode, using multiply")
			m.Blend = channel.BlendMultiply
		}
		m.Factor = finiteOr(mr.factor, 1)
		m.Min = finiteOr(mr.min, 0)
		m.Max = finiteOr(mr.max, 1)
		m.Premultiply = finiteOr(mr.premultiply, 1)
		if mr.curve != nil {
			m.curve.shared = s.cache.GetOrInsert(mr.curve)
		}
	}
	s.Put(ch)
	return nil
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

type writer struct {
	buf bytes.Buffer
	tmp [8]byte
}

func (w *writer) bytes(b []byte) { w.buf.Write(b) }
func (w *writer) u8(v uint8)     { w.buf.WriteByte(v) }

func (w *writer) u16(v uint16) {
	binary.LittleEndian.PutUint16(w.tmp[:2], v)
	w.buf.Write(w.tmp[:2])
}

func (w *writer) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.tmp[:4], v)
	w.buf.Write(w.tmp[:4])
}

func (w *writer) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.tmp[:8], v)
	w.buf.Write(w.tmp[:8])
}

func (w *writer) f64(v float64) { w.u64(math.Float64bits(v)) }

func (w *writer) str(s string) error {
	if len(s) > maxStringLen {
		return fmt.Errorf("string of %d bytes exceeds limit", len(s))
	}
	w.u16(uint16(len(s)))
	w.buf.WriteString(s)
	return nil
}

func (w *writer) value(v channel.Value) {
	w.u8(uint8(channel.TagOf(v)))
	switch x := v.(type) {
	case channel.FloatValue:
		w.f64(float64(x))
	case channel.IntValue:
		w.u64(uint64(x))
	case channel.Vec3Value:
		for _, c := range x {
			w.f64(c)
		}
	case channel.Vec4Value:
		for _, c := range x {
			w.f64(c)
		}
	}
}

func (w *writer) curve(c *curve.Curve) error {
	if c == nil {
		w.u8(0)
		return nil
	}
	if len(c.Points) > maxPoints {
		return fmt.Errorf("curve has %d points", len(c.Points))
	}
	w.u8(1)
	w.u8(uint8(c.Interp))
	w.u8(uint8(c.Extend))
	w.u16(uint16(len(c.Points)))
	for _, p := range c.Points {
		w.f64(p.X)
		w.f64(p.Y)
	}
	return nil
}

// reader keeps the first error; later reads return zero values.
type reader struct {
	r   *bytes.Reader
	err error
	tmp [8]byte
}

func (r *reader) corrupt() error {
	if errors.Is(r.err, ErrCorruptData) {
		return r.err
	}
	return fmt.Errorf("%w: %v", ErrCorruptData, r.err)
}

func (r *reader) fill(n int) []byte {
	if r.err != nil {
		return r.tmp[:n]
	}
	if _, err := io.ReadFull(r.r, r.tmp[:n]); err != nil {
		r.err = err
	}
	return r.tmp[:n]
}

func (r *reader) bytes(n int) []byte {
	b := make([]byte, n)
	if r.err != nil {
		return b
	}
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.err = err
	}
	return b
}

func (r *reader) u8() uint8   { return r.fill(1)[0] }
func (r *reader) u16() uint16 { return binary.LittleEndian.Uint16(r.fill(2)) }
func (r *reader) u32() uint32 { return binary.LittleEndian.Uint32(r.fill(4)) }
func (r *reader) u64() uint64 { return binary.LittleEndian.Uint64(r.fill(8)) }
func (r *reader) f64() float64 {
	return math.Float64frombits(r.u64())
}

func (r *reader) str() string {
	n := int(r.u16())
	if r.err == nil && n > maxStringLen {
		r.err = fmt.Errorf("%w: string of %d bytes", ErrCorruptData, n)
	}
	return string(r.bytes(n))
}

func (r *reader) value() channel.Value {
	tag := channel.ValueTag(r.u8())
	switch tag {
	case channel.TagFloat:
		return channel.FloatValue(r.f64())
	case channel.TagInt:
		return channel.IntValue(int64(r.u64()))
	case channel.TagVec3:
		var v channel.Vec3Value
		for i := range v {
			v[i] = r.f64()
		}
		return v
	case channel.TagVec4:
		var v channel.Vec4Value
		for i := range v {
			v[i] = r.f64()
		}
		return v
	}
	if r.err == nil {
		r.err = fmt.Errorf("%w: unknown value tag %d", ErrCorruptData, tag)
	}
	return nil
}

func (r *reader) curve() *curve.Curve {
	if r.u8() == 0 {
		return nil
	}
	interp := curve.Interp(r.u8())
	extend := curve.Extend(r.u8())
	n := int(r.u16())
	if r.err == nil && n > maxPoints {
		r.err = fmt.Errorf("%w: curve with %d points", ErrCorruptData, n)
	}
	if r.err != nil {
		return nil
	}
	pts := make([]curve.Point, n)
	for i := range pts {
		pts[i] = curve.Point{X: r.f64(), Y: r.f64()}
	}
	// Unsorted or malformed input is left for the cache to repair.
	return &curve.Curve{Points: pts, Interp: interp, Extend: extend}
}

func (r *reader) channel() channelRecord {
	var rec channelRecord
	rec.id = r.str()
	rec.flags = channel.Flags(r.u32())
	rec.value = r.value()
	rec.curve = r.curve()
	for i := range rec.mappings {
		slot := r.u8()
		if r.err == nil && int(slot) != i {
			r.err = fmt.Errorf("%w: mapping slot %d at position %d", ErrCorruptData, slot, i)
		}
		m := &rec.mappings[i]
		m.flags = channel.MappingFlags(r.u8())
		m.blend = channel.BlendMode(r.u8())
		m.factor = r.f64()
		m.min = r.f64()
		m.max = r.f64()
		m.premultiply = r.f64()
		m.curve = r.curve()
	}
	return rec
}
