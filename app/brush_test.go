package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/artpar/brushkit/adapters/clock"
	"github.com/artpar/brushkit/adapters/idgen"
	"github.com/artpar/brushkit/adapters/memory"
	"github.com/artpar/brushkit/app"
	"github.com/artpar/brushkit/core/channels"
	"github.com/artpar/brushkit/core/commandlist"
	"github.com/artpar/brushkit/core/curvecache"
	"github.com/artpar/brushkit/core/events"
	"github.com/artpar/brushkit/domain/channel"
	"github.com/artpar/brushkit/domain/preset"
	"github.com/artpar/brushkit/ports"
	"github.com/rs/zerolog"
)

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

type recordingMetrics struct {
	resolves    []int
	commands    map[string]int
	evaluated   []string
	storeErrors []string
}

func (m *recordingMetrics) ResolveCompleted(depth int, d time.Duration) {
	m.resolves = append(m.resolves, depth)
}
func (m *recordingMetrics) CommandsBuilt(tool string, n int) { m.commands[tool] += n }
func (m *recordingMetrics) ChannelEvaluated(id string)       { m.evaluated = append(m.evaluated, id) }
func (m *recordingMetrics) StoreError(op string)             { m.storeErrors = append(m.storeErrors, op) }

type testEnv struct {
	svc     *app.BrushService
	store   *memory.PresetStore
	cache   *curvecache.Cache
	clock   *clock.Fake
	metrics *recordingMetrics
	events  []events.Event
}

func newTestService() *testEnv {
	env := &testEnv{
		store:   memory.NewPresetStore(),
		cache:   curvecache.New(curvecache.Config{Logger: zerolog.Nop()}),
		clock:   clock.NewFake(baseTime),
		metrics: &recordingMetrics{commands: make(map[string]int)},
	}
	bus := events.NewBus(zerolog.Nop())
	bus.Subscribe("*", func(ctx context.Context, e events.Event) error {
		env.events = append(env.events, e)
		return nil
	})
	env.svc = app.NewBrushService(app.BrushDeps{
		Presets: env.store,
		Cache:   env.cache,
		IDGen:   idgen.NewSequential("preset-"),
		Clock:   env.clock,
		Metrics: env.metrics,
		Events:  bus,
		Logger:  zerolog.Nop(),
	})
	return env
}

// createChain stores tool -> brush presets for clay. The brush sets radius
// 10 and inherits it.
func createChain(t *testing.T, env *testEnv) (tool, brush preset.Preset) {
	t.Helper()
	ctx := context.Background()

	toolSet := channels.NewSet("clay tool", env.cache)
	defer toolSet.Free()
	if err := toolSet.SetFloat(channel.Strength, 0.8); err != nil {
		t.Fatalf("SetFloat failed: %v", err)
	}

	var err error
	tool, err = env.svc.CreatePreset(ctx, app.CreatePresetInput{
		Name:     "Clay Tool",
		Scope:    preset.ScopeTool,
		Tool:     "clay",
		Channels: toolSet,
	})
	if err != nil {
		t.Fatalf("CreatePreset(tool) failed: %v", err)
	}

	brushSet := channels.NewSet("clay brush", env.cache)
	defer brushSet.Free()
	if err := brushSet.SetFloat(channel.Radius, 10); err != nil {
		t.Fatalf("SetFloat failed: %v", err)
	}
	if err := brushSet.SetInherit(channel.Radius, true); err != nil {
		t.Fatalf("SetInherit failed: %v", err)
	}

	brush, err = env.svc.CreatePreset(ctx, app.CreatePresetInput{
		Name:     "Clay Brush",
		Scope:    preset.ScopeBrush,
		Tool:     "clay",
		ParentID: tool.ID,
		Channels: brushSet,
	})
	if err != nil {
		t.Fatalf("CreatePreset(brush) failed: %v", err)
	}
	return tool, brush
}

func TestBrushService_CreatePreset(t *testing.T) {
	env := newTestService()
	ctx := context.Background()

	p, err := env.svc.CreatePreset(ctx, app.CreatePresetInput{
		Name:  "  Draw  ",
		Scope: preset.ScopeBrush,
		Tool:  "draw",
	})
	if err != nil {
		t.Fatalf("CreatePreset failed: %v", err)
	}
	if p.ID != "preset-1" {
		t.Errorf("ID = %s, want preset-1", p.ID)
	}
	if p.Name != "Draw" {
		t.Errorf("Name = %q, want Draw", p.Name)
	}
	if !p.CreatedAt.Equal(baseTime) {
		t.Errorf("CreatedAt = %v, want %v", p.CreatedAt, baseTime)
	}
	if len(p.Data) == 0 {
		t.Error("expected serialized channel data")
	}

	set, _, err := env.svc.LoadSet(ctx, p.ID)
	if err != nil {
		t.Fatalf("LoadSet failed: %v", err)
	}
	defer set.Free()
	if set.Len() != 0 {
		t.Errorf("expected empty set, got %d channels", set.Len())
	}
}

func TestBrushService_CreatePreset_Invalid(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	tool, _ := createChain(t, env)

	tests := []struct {
		name string
		in   app.CreatePresetInput
		want error
	}{
		{"empty name", app.CreatePresetInput{Name: " ", Scope: preset.ScopeBrush, Tool: "draw"}, preset.ErrInvalid},
		{"bad scope", app.CreatePresetInput{Name: "x", Scope: "stroke", Tool: "draw"}, preset.ErrInvalid},
		{"unknown tool", app.CreatePresetInput{Name: "x", Scope: preset.ScopeBrush, Tool: "airbrush"}, app.ErrUnknownTool},
		{"missing parent", app.CreatePresetInput{Name: "x", Scope: preset.ScopeBrush, Tool: "clay", ParentID: "nope"}, ports.ErrNotFound},
		{"tool under brush", app.CreatePresetInput{Name: "x", Scope: preset.ScopeTool, Tool: "clay", ParentID: "preset-2"}, preset.ErrInvalid},
		{"tool mismatch", app.CreatePresetInput{Name: "x", Scope: preset.ScopeBrush, Tool: "draw", ParentID: tool.ID}, preset.ErrInvalid},
		{"duplicate name", app.CreatePresetInput{Name: "Clay Tool", Scope: preset.ScopeTool, Tool: "clay"}, ports.ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreatePreset(ctx, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if len(env.metrics.storeErrors) != 0 {
		t.Errorf("expected no store error metrics, got %v", env.metrics.storeErrors)
	}
}

func TestBrushService_Resolve_InheritFromTool(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	_, brush := createChain(t, env)

	if err := env.svc.ApplyToolConfig(map[string]map[string][]float64{
		"clay": {channel.Radius: {80}},
	}); err != nil {
		t.Fatalf("ApplyToolConfig failed: %v", err)
	}

	resolved, p, err := env.svc.Resolve(ctx, brush.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	defer resolved.Free()

	if p.ID != brush.ID {
		t.Errorf("leaf = %s, want %s", p.ID, brush.ID)
	}
	radius, err := resolved.GetFloat(channel.Radius)
	if err != nil {
		t.Fatalf("GetFloat failed: %v", err)
	}
	if radius != 80 {
		t.Errorf("radius = %v, want 80", radius)
	}
	strength, err := resolved.GetFloat(channel.Strength)
	if err != nil {
		t.Fatalf("GetFloat failed: %v", err)
	}
	if strength != 0.8 {
		t.Errorf("strength = %v, want 0.8", strength)
	}
	if len(env.metrics.resolves) != 1 || env.metrics.resolves[0] != 3 {
		t.Errorf("resolve depths = %v, want [3]", env.metrics.resolves)
	}
}

func TestBrushService_Resolve_OwnValueWithoutInherit(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	_, brush := createChain(t, env)

	set, _, err := env.svc.LoadSet(ctx, brush.ID)
	if err != nil {
		t.Fatalf("LoadSet failed: %v", err)
	}
	if err := set.SetInherit(channel.Radius, false); err != nil {
		t.Fatalf("SetInherit failed: %v", err)
	}
	if _, err := env.svc.SaveSet(ctx, brush.ID, set); err != nil {
		t.Fatalf("SaveSet failed: %v", err)
	}
	set.Free()

	resolved, _, err := env.svc.Resolve(ctx, brush.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	defer resolved.Free()

	radius, _ := resolved.GetFloat(channel.Radius)
	if radius != 10 {
		t.Errorf("radius = %v, want 10", radius)
	}
}

func TestBrushService_Resolve_ReleasesLayers(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	_, brush := createChain(t, env)

	warm, _, err := env.svc.Resolve(ctx, brush.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	warm.Free()
	before := env.cache.Stats().Refs

	for i := 0; i < 5; i++ {
		resolved, _, err := env.svc.Resolve(ctx, brush.ID)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		resolved.Free()
	}
	if after := env.cache.Stats().Refs; after != before {
		t.Errorf("cache refs = %d after resolves, want %d", after, before)
	}
}

func TestBrushService_Lineage(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	tool, brush := createChain(t, env)

	chain, err := env.svc.Lineage(ctx, brush.ID)
	if err != nil {
		t.Fatalf("Lineage failed: %v", err)
	}
	if len(chain) != 2 || chain[0].ID != tool.ID || chain[1].ID != brush.ID {
		t.Errorf("unexpected lineage: %v", chain)
	}
}

func TestBrushService_Lineage_Cycle(t *testing.T) {
	env := newTestService()
	ctx := context.Background()

	// Seed a cycle directly in the store.
	a := preset.Preset{ID: "a", Name: "A", Scope: preset.ScopeBrush, Tool: "draw", ParentID: "b"}
	b := preset.Preset{ID: "b", Name: "B", Scope: preset.ScopeBrush, Tool: "draw", ParentID: "a"}
	_ = env.store.Create(ctx, a)
	_ = env.store.Create(ctx, b)

	if _, err := env.svc.Lineage(ctx, "a"); !errors.Is(err, preset.ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}
	if _, _, err := env.svc.Resolve(ctx, "a"); !errors.Is(err, preset.ErrCycle) {
		t.Errorf("expected ErrCycle from Resolve, got %v", err)
	}
}

func TestBrushService_UpdatePreset_RejectsCycle(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	_, brush := createChain(t, env)

	child, err := env.svc.CreatePreset(ctx, app.CreatePresetInput{
		Name: "Clay Stroke", Scope: preset.ScopeBrush, Tool: "clay", ParentID: brush.ID,
	})
	if err != nil {
		t.Fatalf("CreatePreset failed: %v", err)
	}

	parent := child.ID
	if _, err := env.svc.UpdatePreset(ctx, brush.ID, app.UpdatePresetInput{ParentID: &parent}); !errors.Is(err, preset.ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}

	name := "Clay Brush 2"
	env.clock.Advance(time.Minute)
	updated, err := env.svc.UpdatePreset(ctx, brush.ID, app.UpdatePresetInput{Name: &name})
	if err != nil {
		t.Fatalf("UpdatePreset failed: %v", err)
	}
	if updated.Name != name {
		t.Errorf("Name = %s, want %s", updated.Name, name)
	}
	if !updated.UpdatedAt.Equal(baseTime.Add(time.Minute)) {
		t.Errorf("UpdatedAt = %v, want %v", updated.UpdatedAt, baseTime.Add(time.Minute))
	}
}

func TestBrushService_DeletePreset(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	tool, brush := createChain(t, env)

	if err := env.svc.DeletePreset(ctx, tool.ID); !errors.Is(err, app.ErrPresetInUse) {
		t.Errorf("expected ErrPresetInUse, got %v", err)
	}
	if err := env.svc.DeletePreset(ctx, brush.ID); err != nil {
		t.Fatalf("DeletePreset(brush) failed: %v", err)
	}
	if err := env.svc.DeletePreset(ctx, tool.ID); err != nil {
		t.Fatalf("DeletePreset(tool) failed: %v", err)
	}
	if _, err := env.svc.GetPreset(ctx, tool.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// childAddedStore simulates a child created between the service's
// ListChildren check and the delete.
type childAddedStore struct {
	*memory.PresetStore
}

func (s childAddedStore) Delete(ctx context.Context, id string) error {
	return fmt.Errorf("delete %s: %w", id, ports.ErrHasChildren)
}

func TestBrushService_DeletePreset_StoreRejectsChildren(t *testing.T) {
	store := memory.NewPresetStore()
	metrics := &recordingMetrics{commands: make(map[string]int)}
	svc := app.NewBrushService(app.BrushDeps{
		Presets: childAddedStore{store},
		Cache:   curvecache.New(curvecache.Config{Logger: zerolog.Nop()}),
		IDGen:   idgen.NewSequential("preset-"),
		Clock:   clock.NewFake(baseTime),
		Metrics: metrics,
		Logger:  zerolog.Nop(),
	})
	ctx := context.Background()

	p, err := svc.CreatePreset(ctx, app.CreatePresetInput{Name: "Clay", Scope: preset.ScopeTool, Tool: "clay"})
	if err != nil {
		t.Fatalf("CreatePreset failed: %v", err)
	}
	err = svc.DeletePreset(ctx, p.ID)
	if !errors.Is(err, app.ErrPresetInUse) {
		t.Errorf("expected ErrPresetInUse, got %v", err)
	}
	if len(metrics.storeErrors) != 0 {
		t.Errorf("store errors = %v, want none", metrics.storeErrors)
	}
}

func TestBrushService_FindPreset(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	tool, _ := createChain(t, env)

	byName, err := env.svc.FindPreset(ctx, "Clay Tool")
	if err != nil {
		t.Fatalf("FindPreset failed: %v", err)
	}
	if byName.ID != tool.ID {
		t.Errorf("ID = %s, want %s", byName.ID, tool.ID)
	}
	if _, err := env.svc.FindPreset(ctx, "nothing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBrushService_GetSetChannel(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	_, brush := createChain(t, env)

	doc, err := env.svc.GetChannel(ctx, brush.ID, channel.Radius)
	if err != nil {
		t.Fatalf("GetChannel failed: %v", err)
	}
	if len(doc.Value) != 1 || doc.Value[0] != 10 {
		t.Errorf("radius value = %v, want [10]", doc.Value)
	}

	if _, err := env.svc.GetChannel(ctx, brush.ID, channel.Hardness); !errors.Is(err, channel.ErrChannelNotFound) {
		t.Errorf("expected ErrChannelNotFound for unset channel, got %v", err)
	}

	got, err := env.svc.SetChannel(ctx, brush.ID, channels.ChannelDoc{ID: channel.Hardness, Value: []float64{0.25}})
	if err != nil {
		t.Fatalf("SetChannel failed: %v", err)
	}
	if got.Value[0] != 0.25 {
		t.Errorf("hardness = %v, want 0.25", got.Value)
	}

	_, err = env.svc.SetChannel(ctx, brush.ID, channels.ChannelDoc{ID: channel.Color, Value: []float64{1, 0}})
	if !errors.Is(err, channel.ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}

	resolved, _, err := env.svc.Resolve(ctx, brush.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	defer resolved.Free()
	if h, _ := resolved.GetFloat(channel.Hardness); h != 0.25 {
		t.Errorf("resolved hardness = %v, want 0.25", h)
	}
}

func TestBrushService_BuildCommands(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	_, brush := createChain(t, env)

	if err := env.svc.ApplyToolConfig(map[string]map[string][]float64{
		"clay": {channel.Autosmooth: {0.5}},
	}); err != nil {
		t.Fatalf("ApplyToolConfig failed: %v", err)
	}

	list, err := env.svc.BuildCommands(ctx, brush.ID)
	if err != nil {
		t.Fatalf("BuildCommands failed: %v", err)
	}
	defer list.Free()

	stages := list.Stages()
	if len(stages) < 2 || stages[0] != commandlist.StagePrimary || stages[1] != commandlist.StageAutoSmooth {
		t.Errorf("stages = %v, want primary then autosmooth first", stages)
	}
	if env.metrics.commands["clay"] != len(list.Commands) {
		t.Errorf("commands metric = %d, want %d", env.metrics.commands["clay"], len(list.Commands))
	}
}

func TestBrushService_Evaluate(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	_, brush := createChain(t, env)

	ev, err := env.svc.Evaluate(ctx, brush.ID, channel.Strength, channel.InputSignals{Pressure: 0.5})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if ev.Base != channel.FloatValue(0.8) {
		t.Errorf("base = %v, want 0.8", ev.Base)
	}
	if got := float64(ev.Value.(channel.FloatValue)); got < 0.39999 || got > 0.40001 {
		t.Errorf("value = %v, want 0.4", got)
	}
	if len(env.metrics.evaluated) != 1 || env.metrics.evaluated[0] != channel.Strength {
		t.Errorf("evaluated = %v", env.metrics.evaluated)
	}

	if _, err := env.svc.Evaluate(ctx, brush.ID, "no_such_channel", channel.InputSignals{}); !errors.Is(err, channel.ErrChannelNotFound) {
		t.Errorf("expected ErrChannelNotFound, got %v", err)
	}
}

func TestBrushService_ApplyToolConfig_Invalid(t *testing.T) {
	env := newTestService()

	tests := []struct {
		name      string
		overrides map[string]map[string][]float64
		want      error
	}{
		{"unknown tool", map[string]map[string][]float64{"airbrush": {channel.Radius: {1}}}, app.ErrUnknownTool},
		{"unknown channel", map[string]map[string][]float64{"clay": {"sparkle": {1}}}, channel.ErrChannelNotFound},
		{"wrong arity", map[string]map[string][]float64{"clay": {channel.Color: {1}}}, channel.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := env.svc.ApplyToolConfig(tt.overrides); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBrushService_ToolDefaults(t *testing.T) {
	env := newTestService()

	if err := env.svc.ApplyToolConfig(map[string]map[string][]float64{
		"clay": {channel.Radius: {9999}},
	}); err != nil {
		t.Fatalf("ApplyToolConfig failed: %v", err)
	}

	set, err := env.svc.ToolDefaults("clay")
	if err != nil {
		t.Fatalf("ToolDefaults failed: %v", err)
	}
	defer set.Free()

	def := channel.MustLookup(channel.Radius)
	if r, _ := set.GetFloat(channel.Radius); r != def.Max {
		t.Errorf("radius = %v, want clamped %v", r, def.Max)
	}

	other, err := env.svc.ToolDefaults("draw")
	if err != nil {
		t.Fatalf("ToolDefaults failed: %v", err)
	}
	defer other.Free()
	if r, _ := other.GetFloat(channel.Radius); r != channel.Scalar(def.Default) {
		t.Errorf("draw radius = %v, want default %v", r, def.Default)
	}

	if _, err := env.svc.ToolDefaults("airbrush"); !errors.Is(err, app.ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
}

func TestBrushService_Events(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	_, brush := createChain(t, env)

	name := "Clay Brush 2"
	if _, err := env.svc.UpdatePreset(ctx, brush.ID, app.UpdatePresetInput{Name: &name}); err != nil {
		t.Fatalf("UpdatePreset failed: %v", err)
	}
	if _, err := env.svc.SetChannel(ctx, brush.ID, channels.ChannelDoc{ID: channel.Hardness, Value: []float64{0.2}}); err != nil {
		t.Fatalf("SetChannel failed: %v", err)
	}
	if err := env.svc.DeletePreset(ctx, brush.ID); err != nil {
		t.Fatalf("DeletePreset failed: %v", err)
	}
	if err := env.svc.ApplyToolConfig(nil); err != nil {
		t.Fatalf("ApplyToolConfig failed: %v", err)
	}

	want := []string{
		events.PresetCreated,
		events.PresetCreated,
		events.PresetUpdated,
		events.ChannelsSaved,
		events.PresetDeleted,
		events.ToolsChanged,
	}
	if len(env.events) != len(want) {
		t.Fatalf("got %d events, want %d", len(env.events), len(want))
	}
	for i, e := range env.events {
		if e.Name != want[i] {
			t.Errorf("event %d = %s, want %s", i, e.Name, want[i])
		}
	}
	if env.events[2].PresetID != brush.ID || env.events[2].Tool != "clay" {
		t.Errorf("update event = %+v", env.events[2])
	}
}
