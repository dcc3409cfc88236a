package channel_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/artpar/brushkit/domain/channel"
)

func TestLookup_Radius(t *testing.T) {
	def, err := channel.Lookup(channel.Radius)
	if err != nil {
		t.Fatalf("Lookup(radius) error = %v", err)
	}
	if def.Kind != channel.KindFloat {
		t.Errorf("Kind = %v, want float", def.Kind)
	}
	if def.Default != channel.FloatValue(50) {
		t.Errorf("Default = %v, want 50", def.Default)
	}
	if def.Min != 0.5 || def.Max != 500 {
		t.Errorf("range = [%v, %v], want [0.5, 500]", def.Min, def.Max)
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := channel.Lookup("no_such_channel")
	if !errors.Is(err, channel.ErrChannelNotFound) {
		t.Errorf("Lookup() error = %v, want ErrChannelNotFound", err)
	}
}

func TestMustLookup_PanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustLookup() did not panic")
		}
	}()
	channel.MustLookup("no_such_channel")
}

func TestRegistry_DefaultsMatchKinds(t *testing.T) {
	for _, def := range channel.All() {
		if err := channel.CheckValue(def, def.Default); err != nil {
			t.Errorf("%s: %v", def.ID, err)
		}
		if def.SoftMin < def.Min && def.Min < def.Max {
			t.Errorf("%s: soft min %v below hard min %v", def.ID, def.SoftMin, def.Min)
		}
		if !def.Kind.Mappable() && !def.Flags.Has(channel.FlagNoMappings) {
			t.Errorf("%s: non-mappable kind without no_mappings flag", def.ID)
		}
		for i, m := range def.Mappings {
			if m.Factor == 0 || m.Premultiply == 0 {
				t.Errorf("%s: mapping %d not normalized: %+v", def.ID, i, m)
			}
		}
	}
}

func TestRegistry_IDs(t *testing.T) {
	ids := channel.IDs()
	if len(ids) != channel.Len() {
		t.Fatalf("len(IDs()) = %d, want %d", len(ids), channel.Len())
	}
	if !sort.StringsAreSorted(ids) {
		t.Error("IDs() not sorted")
	}
	required := []string{
		channel.Radius, channel.Strength, channel.Spacing, channel.Autosmooth,
		channel.TopologyRake, channel.DyntopoDisabled, channel.DyntopoMode,
		channel.Automasking, channel.FalloffCurve, channel.Color, channel.Gravity,
	}
	for _, id := range required {
		if _, err := channel.Lookup(id); err != nil {
			t.Errorf("Lookup(%q) error = %v", id, err)
		}
	}
}

func TestRegistry_StrengthHasPressureMapping(t *testing.T) {
	def := channel.MustLookup(channel.Strength)
	if !def.Mappings[channel.MappingPressure].Enabled {
		t.Error("strength pressure mapping disabled by default")
	}
	if def.Mappings[channel.MappingXTilt].Enabled {
		t.Error("strength x-tilt mapping enabled by default")
	}
}

func TestRegistry_Bitmasks(t *testing.T) {
	def := channel.MustLookup(channel.DyntopoMode)
	if def.Kind != channel.KindBitmask {
		t.Fatalf("Kind = %v, want bitmask", def.Kind)
	}
	want := channel.DyntopoSubdivide | channel.DyntopoCollapse | channel.DyntopoCleanup |
		channel.DyntopoLocalCollapse | channel.DyntopoLocalSubdiv
	if got := def.BitmaskAll(); got != want {
		t.Errorf("BitmaskAll() = %b, want %b", got, want)
	}
	if it, ok := def.EnumItem("cleanup"); !ok || it.Value != channel.DyntopoCleanup {
		t.Errorf("EnumItem(cleanup) = %+v, %v", it, ok)
	}
}
