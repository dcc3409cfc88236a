// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/artpar/brushkit/core/channels"
	"github.com/artpar/brushkit/core/commandlist"
	"github.com/artpar/brushkit/core/curvecache"
	"github.com/artpar/brushkit/core/events"
	"github.com/artpar/brushkit/domain/channel"
	"github.com/artpar/brushkit/domain/preset"
	"github.com/artpar/brushkit/ports"
	"github.com/rs/zerolog"
)

// Errors returned by BrushService.
var (
	ErrUnknownTool = errors.New("unknown tool")
	ErrPresetInUse = errors.New("preset has children")
)

// BrushService stores presets and resolves them into channel sets and
// stroke command lists.
type BrushService struct {
	presets ports.PresetStore
	cache   *curvecache.Cache
	idGen   ports.IDGenerator
	clock   ports.Clock
	metrics ports.Metrics
	events  *events.Bus
	logger  zerolog.Logger

	// Tool-level values layered below every preset (hot-reloadable).
	toolValues atomic.Pointer[toolValues]
}

type toolValues map[commandlist.ToolKind]map[string]channel.Value

// BrushDeps contains dependencies for BrushService.
type BrushDeps struct {
	Presets ports.PresetStore
	Cache   *curvecache.Cache
	IDGen   ports.IDGenerator
	Clock   ports.Clock
	Metrics ports.Metrics // optional
	Events  *events.Bus   // optional
	Logger  zerolog.Logger
}

// NewBrushService creates a new brush service.
func NewBrushService(deps BrushDeps) *BrushService {
	m := deps.Metrics
	if m == nil {
		m = nopMetrics{}
	}
	s := &BrushService{
		presets: deps.Presets,
		cache:   deps.Cache,
		idGen:   deps.IDGen,
		clock:   deps.Clock,
		metrics: m,
		events:  deps.Events,
		logger:  deps.Logger,
	}
	s.toolValues.Store(&toolValues{})
	return s
}

// Cache returns the curve cache all sets of this service share.
func (s *BrushService) Cache() *curvecache.Cache {
	return s.cache
}

// -----------------------------------------------------------------------------
// Tool configuration
// -----------------------------------------------------------------------------

// ApplyToolConfig replaces the tool-level channel values. Keys are tool kind
// then channel id; values are document number lists. Nothing changes when
// any entry is invalid.
func (s *BrushService) ApplyToolConfig(overrides map[string]map[string][]float64) error {
	next := make(toolValues, len(overrides))
	for tool, values := range overrides {
		kind := commandlist.ToolKind(tool)
		if !kind.Known() {
			return fmt.Errorf("%w: %q", ErrUnknownTool, tool)
		}
		converted := make(map[string]channel.Value, len(values))
		for id, nums := range values {
			def, err := channel.Lookup(id)
			if err != nil {
				return fmt.Errorf("tool %s: %w", tool, err)
			}
			v, err := channels.ValueFromNumbers(def, nums)
			if err != nil {
				return fmt.Errorf("tool %s: %w", tool, err)
			}
			converted[id] = def.Sanitize(v)
		}
		next[kind] = converted
	}
	s.toolValues.Store(&next)
	s.logger.Info().Int("tools", len(next)).Msg("tool configuration applied")
	s.publish(context.Background(), events.ToolsChanged, preset.Preset{})
	return nil
}

// ToolDefaults returns the bottom layer of every resolve for tool: the
// registry defaults with configured tool values applied. The caller owns
// the returned set.
func (s *BrushService) ToolDefaults(tool commandlist.ToolKind) (*channels.Set, error) {
	if !tool.Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tool)
	}
	set := channels.NewDefaultSet("defaults:"+string(tool), s.cache)
	values := (*s.toolValues.Load())[tool]
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := set.SetValue(id, values[id]); err != nil {
			set.Free()
			return nil, err
		}
	}
	return set, nil
}

// -----------------------------------------------------------------------------
// Presets
// -----------------------------------------------------------------------------

// CreatePresetInput describes a new preset. A nil Channels set stores an
// empty set, which inherits every channel from its parent.
type CreatePresetInput struct {
	Name     string
	Scope    preset.Scope
	Tool     string
	ParentID string
	Channels *channels.Set
}

// CreatePreset validates and stores a new preset.
func (s *BrushService) CreatePreset(ctx context.Context, in CreatePresetInput) (preset.Preset, error) {
	now := s.clock.Now()
	p := preset.Preset{
		ID:        s.idGen.New(),
		Name:      strings.TrimSpace(in.Name),
		Scope:     in.Scope,
		Tool:      in.Tool,
		ParentID:  in.ParentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.checkPreset(ctx, p); err != nil {
		return preset.Preset{}, err
	}

	set := in.Channels
	if set == nil {
		set = channels.NewSet(p.Name, s.cache)
		defer set.Free()
	}
	data, err := channels.Serialize(set)
	if err != nil {
		return preset.Preset{}, err
	}
	p.Data = data

	if err := s.presets.Create(ctx, p); err != nil {
		return preset.Preset{}, s.storeErr("create", err)
	}

	s.logger.Info().
		Str("preset_id", p.ID).
		Str("name", p.Name).
		Str("scope", string(p.Scope)).
		Str("tool", p.Tool).
		Msg("preset created")
	s.publish(ctx, events.PresetCreated, p)
	return p, nil
}

// checkPreset validates p against the registry of tools and its parent.
func (s *BrushService) checkPreset(ctx context.Context, p preset.Preset) error {
	if err := preset.Validate(p); err != nil {
		return err
	}
	if !commandlist.ToolKind(p.Tool).Known() {
		return fmt.Errorf("%w: %q", ErrUnknownTool, p.Tool)
	}
	if p.ParentID == "" {
		return nil
	}

	parent, err := s.presets.Get(ctx, p.ParentID)
	if err != nil {
		return s.storeErr("get", fmt.Errorf("parent %s: %w", p.ParentID, err))
	}
	if !preset.CanParent(parent.Scope, p.Scope) {
		return fmt.Errorf("%w: %s preset cannot inherit from %s preset", preset.ErrInvalid, p.Scope, parent.Scope)
	}
	if parent.Tool != p.Tool {
		return fmt.Errorf("%w: tool %s differs from parent tool %s", preset.ErrInvalid, p.Tool, parent.Tool)
	}

	// Walk up from the new parent; reaching p means a cycle.
	seen := map[string]bool{p.ID: true}
	for cur := parent; ; {
		if seen[cur.ID] {
			return fmt.Errorf("%w: %s", preset.ErrCycle, cur.ID)
		}
		seen[cur.ID] = true
		if cur.ParentID == "" {
			return nil
		}
		if seen[cur.ParentID] {
			return fmt.Errorf("%w: %s", preset.ErrCycle, cur.ParentID)
		}
		if cur, err = s.presets.Get(ctx, cur.ParentID); err != nil {
			return s.storeErr("get", err)
		}
	}
}

// GetPreset retrieves a preset by ID.
func (s *BrushService) GetPreset(ctx context.Context, id string) (preset.Preset, error) {
	p, err := s.presets.Get(ctx, id)
	if err != nil {
		return preset.Preset{}, s.storeErr("get", err)
	}
	return p, nil
}

// FindPreset retrieves a preset by ID, falling back to its name.
func (s *BrushService) FindPreset(ctx context.Context, idOrName string) (preset.Preset, error) {
	p, err := s.presets.Get(ctx, idOrName)
	if errors.Is(err, ports.ErrNotFound) {
		p, err = s.presets.GetByName(ctx, idOrName)
	}
	if err != nil {
		return preset.Preset{}, s.storeErr("get", err)
	}
	return p, nil
}

// ListPresets returns all presets ordered by name.
func (s *BrushService) ListPresets(ctx context.Context) ([]preset.Preset, error) {
	list, err := s.presets.List(ctx)
	if err != nil {
		return nil, s.storeErr("list", err)
	}
	return list, nil
}

// UpdatePresetInput changes preset metadata. Nil fields are left as is.
type UpdatePresetInput struct {
	Name     *string
	ParentID *string
}

// UpdatePreset renames or reparents a preset.
func (s *BrushService) UpdatePreset(ctx context.Context, id string, in UpdatePresetInput) (preset.Preset, error) {
	p, err := s.GetPreset(ctx, id)
	if err != nil {
		return preset.Preset{}, err
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.ParentID != nil {
		p.ParentID = *in.ParentID
	}
	if err := s.checkPreset(ctx, p); err != nil {
		return preset.Preset{}, err
	}
	p.UpdatedAt = s.clock.Now()
	if err := s.presets.Update(ctx, p); err != nil {
		return preset.Preset{}, s.storeErr("update", err)
	}
	s.publish(ctx, events.PresetUpdated, p)
	return p, nil
}

// DeletePreset removes a preset. Presets other presets inherit from are kept.
func (s *BrushService) DeletePreset(ctx context.Context, id string) error {
	children, err := s.presets.ListChildren(ctx, id)
	if err != nil {
		return s.storeErr("list", err)
	}
	if len(children) > 0 {
		return fmt.Errorf("%w: %d presets inherit from %s", ErrPresetInUse, len(children), id)
	}
	if err := s.presets.Delete(ctx, id); err != nil {
		if errors.Is(err, ports.ErrHasChildren) {
			return fmt.Errorf("%w: %w", ErrPresetInUse, err)
		}
		return s.storeErr("delete", err)
	}
	s.logger.Info().Str("preset_id", id).Msg("preset deleted")
	s.publish(ctx, events.PresetDeleted, preset.Preset{ID: id})
	return nil
}

// LoadSet decodes the channel set stored in a preset. The caller owns the
// returned set.
func (s *BrushService) LoadSet(ctx context.Context, id string) (*channels.Set, preset.Preset, error) {
	p, err := s.GetPreset(ctx, id)
	if err != nil {
		return nil, preset.Preset{}, err
	}
	set, err := s.decode(p)
	if err != nil {
		return nil, preset.Preset{}, err
	}
	return set, p, nil
}

func (s *BrushService) decode(p preset.Preset) (*channels.Set, error) {
	set, err := channels.Deserialize(p.Data, s.cache, s.logger.With().Str("preset_id", p.ID).Logger())
	if err != nil {
		return nil, fmt.Errorf("preset %s: %w", p.ID, err)
	}
	set.Name = p.Name
	return set, nil
}

// SaveSet replaces the channel set stored in a preset.
func (s *BrushService) SaveSet(ctx context.Context, id string, set *channels.Set) (preset.Preset, error) {
	p, err := s.GetPreset(ctx, id)
	if err != nil {
		return preset.Preset{}, err
	}
	data, err := channels.Serialize(set)
	if err != nil {
		return preset.Preset{}, err
	}
	p.Data = data
	p.UpdatedAt = s.clock.Now()
	if err := s.presets.Update(ctx, p); err != nil {
		return preset.Preset{}, s.storeErr("update", err)
	}
	s.logger.Debug().Str("preset_id", id).Int("channels", set.Len()).Msg("preset channels saved")
	s.publish(ctx, events.ChannelsSaved, p)
	return p, nil
}

// GetChannel returns the document form of a channel stored in a preset.
// Channels the preset does not store report channel.ErrChannelNotFound.
func (s *BrushService) GetChannel(ctx context.Context, presetID, channelID string) (channels.ChannelDoc, error) {
	set, _, err := s.LoadSet(ctx, presetID)
	if err != nil {
		return channels.ChannelDoc{}, err
	}
	defer set.Free()

	ch, err := set.Lookup(channelID)
	if err != nil {
		return channels.ChannelDoc{}, err
	}
	return channels.ChannelDocument(ch), nil
}

// SetChannel replaces one channel of a preset and stores the result.
func (s *BrushService) SetChannel(ctx context.Context, presetID string, doc channels.ChannelDoc) (channels.ChannelDoc, error) {
	set, _, err := s.LoadSet(ctx, presetID)
	if err != nil {
		return channels.ChannelDoc{}, err
	}
	defer set.Free()

	if err := set.ApplyChannelDoc(doc); err != nil {
		return channels.ChannelDoc{}, err
	}
	if _, err := s.SaveSet(ctx, presetID, set); err != nil {
		return channels.ChannelDoc{}, err
	}
	ch, err := set.Lookup(doc.ID)
	if err != nil {
		return channels.ChannelDoc{}, err
	}
	return channels.ChannelDocument(ch), nil
}

// -----------------------------------------------------------------------------
// Resolve and evaluate
// -----------------------------------------------------------------------------

// Lineage returns the preset chain of id from root to leaf.
func (s *BrushService) Lineage(ctx context.Context, id string) ([]preset.Preset, error) {
	var chain []preset.Preset
	seen := make(map[string]bool)
	for cur := id; cur != ""; {
		if seen[cur] {
			return nil, fmt.Errorf("%w: %s", preset.ErrCycle, cur)
		}
		seen[cur] = true
		p, err := s.GetPreset(ctx, cur)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
		cur = p.ParentID
	}
	return preset.Lineage(chain)
}

// Resolve merges a preset with its ancestors and the tool defaults into
// one channel set. The caller owns the returned set.
func (s *BrushService) Resolve(ctx context.Context, id string) (*channels.Set, preset.Preset, error) {
	chain, err := s.Lineage(ctx, id)
	if err != nil {
		return nil, preset.Preset{}, err
	}
	leaf := chain[len(chain)-1]
	start := s.clock.Now()

	base, err := s.ToolDefaults(commandlist.ToolKind(leaf.Tool))
	if err != nil {
		return nil, preset.Preset{}, err
	}
	layers := []*channels.Set{base}
	defer func() {
		for _, l := range layers {
			l.Free()
		}
	}()
	for _, p := range chain {
		set, err := s.decode(p)
		if err != nil {
			return nil, preset.Preset{}, err
		}
		layers = append(layers, set)
	}

	resolved, err := channels.Resolve(leaf.Name, layers...)
	if err != nil {
		return nil, preset.Preset{}, err
	}

	elapsed := s.clock.Now().Sub(start)
	s.metrics.ResolveCompleted(len(layers), elapsed)
	s.logger.Debug().
		Str("preset_id", id).
		Int("layers", len(layers)).
		Dur("elapsed", elapsed).
		Msg("preset resolved")
	return resolved, leaf, nil
}

// BuildCommands resolves a preset and expands it into the ordered stroke
// commands of its tool. The caller owns the returned list.
func (s *BrushService) BuildCommands(ctx context.Context, id string) (*commandlist.List, error) {
	resolved, p, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	defer resolved.Free()

	list, err := commandlist.Build(commandlist.ToolKind(p.Tool), resolved)
	if err != nil {
		return nil, err
	}
	s.metrics.CommandsBuilt(p.Tool, len(list.Commands))
	return list, nil
}

// Evaluation is the result of evaluating one resolved channel.
type Evaluation struct {
	Channel string
	Base    channel.Value
	Value   channel.Value
}

// Evaluate resolves a preset and evaluates one channel against sig.
func (s *BrushService) Evaluate(ctx context.Context, presetID, channelID string, sig channel.InputSignals) (Evaluation, error) {
	resolved, _, err := s.Resolve(ctx, presetID)
	if err != nil {
		return Evaluation{}, err
	}
	defer resolved.Free()

	ch, err := resolved.Lookup(channelID)
	if err != nil {
		return Evaluation{}, err
	}
	s.metrics.ChannelEvaluated(channelID)
	return Evaluation{
		Channel: channelID,
		Base:    ch.Value(),
		Value:   channels.Evaluate(ch, sig),
	}, nil
}

// storeErr records unexpected store failures. Not-found and duplicate
// results are part of normal operation.
func (s *BrushService) storeErr(op string, err error) error {
	if errors.Is(err, ports.ErrNotFound) || errors.Is(err, ports.ErrDuplicate) {
		return err
	}
	s.metrics.StoreError(op)
	s.logger.Error().Err(err).Str("op", op).Msg("preset store failed")
	return err
}

func (s *BrushService) publish(ctx context.Context, name string, p preset.Preset) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, events.Event{Name: name, PresetID: p.ID, Tool: p.Tool, At: s.clock.Now()})
}

type nopMetrics struct{}

func (nopMetrics) ResolveCompleted(int, time.Duration) {}
func (nopMetrics) CommandsBuilt(string, int)           {}
func (nopMetrics) ChannelEvaluated(string)             {}
func (nopMetrics) StoreError(string)                   {}
