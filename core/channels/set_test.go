package channels_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/artpar/brushkit/core/channels"
	"github.com/artpar/brushkit/core/curvecache"
	"github.com/artpar/brushkit/domain/channel"
	"github.com/artpar/brushkit/domain/curve"
)

func newCache() *curvecache.Cache {
	return curvecache.New(curvecache.Config{Logger: zerolog.Nop()})
}

func TestNewDefaultSet(t *testing.T) {
	cache := newCache()
	s := channels.NewDefaultSet("defaults", cache)

	if s.Len() != channel.Len() {
		t.Errorf("Len() = %d, want %d", s.Len(), channel.Len())
	}
	r, err := s.GetFloat(channel.Radius)
	if err != nil || r != 50 {
		t.Errorf("GetFloat(radius) = %v, %v, want 50", r, err)
	}

	// Defaults share pinned preset curves.
	stats := cache.Stats()
	if stats.Entries != stats.Pinned {
		t.Errorf("entries = %d, pinned = %d; defaults created unpinned curves", stats.Entries, stats.Pinned)
	}

	s.Free()
	if s.Len() != 0 {
		t.Errorf("Len() after Free = %d", s.Len())
	}
	if got := cache.Stats().Refs; got != 0 {
		t.Errorf("refs after Free = %d, want 0", got)
	}
}

func TestSet_Lookup(t *testing.T) {
	s := channels.NewSet("empty", newCache())

	if _, err := s.Lookup(channel.Radius); !errors.Is(err, channel.ErrChannelNotFound) {
		t.Errorf("Lookup(missing) error = %v, want ErrChannelNotFound", err)
	}
	if _, err := s.Ensure("bogus"); !errors.Is(err, channel.ErrChannelNotFound) {
		t.Errorf("Ensure(bogus) error = %v, want ErrChannelNotFound", err)
	}
	ch, err := s.Ensure(channel.Radius)
	if err != nil {
		t.Fatalf("Ensure(radius) error = %v", err)
	}
	if ch.Value() != channel.FloatValue(50) {
		t.Errorf("Value() = %v, want 50", ch.Value())
	}
	if again, _ := s.Ensure(channel.Radius); again != ch {
		t.Error("Ensure created a second channel")
	}
}

func TestSet_TypedAccessors(t *testing.T) {
	s := channels.NewSet("brush", newCache())

	if err := s.SetFloat(channel.Strength, 0.75); err != nil {
		t.Fatalf("SetFloat() error = %v", err)
	}
	if v, _ := s.GetFloat(channel.Strength); v != 0.75 {
		t.Errorf("GetFloat() = %v, want 0.75", v)
	}

	if err := s.SetInt(channel.Direction, channel.DirectionSubtract); err != nil {
		t.Fatalf("SetInt() error = %v", err)
	}
	if v, _ := s.GetInt(channel.Direction); v != channel.DirectionSubtract {
		t.Errorf("GetInt() = %v", v)
	}

	if err := s.SetBool(channel.DyntopoDisabled, true); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	if v, _ := s.GetBool(channel.DyntopoDisabled); !v {
		t.Error("GetBool() = false")
	}

	if err := s.SetVec3(channel.Gravity, [3]float64{0, 1, 0}); err != nil {
		t.Fatalf("SetVec3() error = %v", err)
	}
	if v, _ := s.GetVec3(channel.Gravity); v != [3]float64{0, 1, 0} {
		t.Errorf("GetVec3() = %v", v)
	}

	if err := s.SetVec4(channel.Color, [4]float64{1, 0, 0, 1}); err != nil {
		t.Fatalf("SetVec4() error = %v", err)
	}
	if v, _ := s.GetVec4(channel.Color); v != [4]float64{1, 0, 0, 1} {
		t.Errorf("GetVec4() = %v", v)
	}

	// Setters clamp into the hard range.
	_ = s.SetFloat(channel.Radius, 1e6)
	if v, _ := s.GetFloat(channel.Radius); v != 500 {
		t.Errorf("GetFloat(radius) = %v, want 500", v)
	}
}

func TestSet_TypeMismatch(t *testing.T) {
	s := channels.NewDefaultSet("brush", newCache())

	checks := []struct {
		name string
		err  error
	}{
		{"GetFloat on vec4", func() error { _, err := s.GetFloat(channel.Color); return err }()},
		{"GetVec3 on float", func() error { _, err := s.GetVec3(channel.Radius); return err }()},
		{"SetBool on float", s.SetBool(channel.Radius, true)},
		{"SetInt on bool", s.SetInt(channel.Accumulate, 1)},
		{"SetValue with wrong tag", s.SetValue(channel.Radius, channel.IntValue(3))},
	}
	for _, c := range checks {
		if !errors.Is(c.err, channel.ErrTypeMismatch) {
			t.Errorf("%s: error = %v, want ErrTypeMismatch", c.name, c.err)
		}
	}

	empty := channels.NewSet("empty", newCache())
	if err := empty.SetBool(channel.Radius, true); err == nil || empty.Has(channel.Radius) {
		t.Errorf("mismatched setter added the channel (err = %v)", err)
	}
}

func TestSet_CopyIsDeep(t *testing.T) {
	cache := newCache()
	s := channels.NewDefaultSet("a", cache)
	cp := s.Copy("b")

	_ = cp.SetFloat(channel.Radius, 10)
	if v, _ := s.GetFloat(channel.Radius); v != 50 {
		t.Errorf("original radius = %v after editing copy", v)
	}

	ch, _ := s.Lookup(channel.Strength)
	ref := ch.Mapping(channel.MappingPressure).SharedCurve()
	before := cache.Refs(ref)
	cp.Free()
	// Both sets held the same number of references to the linear preset.
	if after := cache.Refs(ref); after != before/2 {
		t.Errorf("refs after freeing copy = %d, want %d", after, before/2)
	}
}

func TestChannel_CopyOnWriteCurve(t *testing.T) {
	cache := newCache()
	s := channels.NewDefaultSet("brush", cache)
	ch, _ := s.Lookup(channel.FalloffCurve)

	shared := ch.Curve()
	w, err := ch.EnsureWritableCurve()
	if err != nil {
		t.Fatalf("EnsureWritableCurve() error = %v", err)
	}
	if w == shared {
		t.Fatal("writable curve is the shared instance")
	}
	w.SetPoints([]curve.Point{{X: 0, Y: 1}, {X: 1, Y: 0}})

	other := channels.NewDefaultSet("other", cache)
	och, _ := other.Lookup(channel.FalloffCurve)
	if !curve.Equal(och.Curve(), curve.NewPreset(curve.PresetSmooth)) {
		t.Error("editing a private copy changed the shared preset")
	}

	s.Commit()
	ref := cache.GetOrInsert(curve.New([]curve.Point{{X: 0, Y: 1}, {X: 1, Y: 0}}, curve.Smooth, curve.Horizontal))
	if cache.Refs(ref) != 2 {
		t.Errorf("committed curve refs = %d, want 2", cache.Refs(ref))
	}

	if _, err := ch.EnsureWritableCurve(); err != nil {
		t.Fatal(err)
	}
	if cache.Refs(ref) != 1 {
		t.Errorf("refs after ensure-writable = %d, want 1", cache.Refs(ref))
	}

	radius, _ := s.Lookup(channel.Radius)
	if _, err := radius.EnsureWritableCurve(); !errors.Is(err, channel.ErrTypeMismatch) {
		t.Errorf("EnsureWritableCurve(radius) error = %v, want ErrTypeMismatch", err)
	}
}

func TestChannel_MappingCurveCommit(t *testing.T) {
	cache := newCache()
	s := channels.NewSet("brush", cache)
	ch, _ := s.Ensure(channel.Strength)

	c := ch.EnsureWritableMappingCurve(channel.MappingPressure)
	c.SetPoints([]curve.Point{{X: 0, Y: 0}, {X: 0.5, Y: 0.8}, {X: 1, Y: 1}})
	if ch.Mapping(channel.MappingPressure).SharedCurve() != nil {
		t.Fatal("slot still shared after ensure-writable")
	}

	s.Commit()
	ref := ch.Mapping(channel.MappingPressure).SharedCurve()
	if ref == nil || !cache.IsCached(ref) {
		t.Fatal("Commit did not intern the mapping curve")
	}
	if !ref.Curve().HasTable() {
		t.Error("committed curve has no table")
	}
}
