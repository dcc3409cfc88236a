// Package memory provides in-memory implementations for testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/brushkit/domain/preset"
	"github.com/artpar/brushkit/ports"
)

// PresetStore is an in-memory implementation of ports.PresetStore.
type PresetStore struct {
	mu      sync.RWMutex
	presets map[string]preset.Preset // by ID
}

// NewPresetStore creates a new in-memory preset store.
func NewPresetStore() *PresetStore {
	return &PresetStore{
		presets: make(map[string]preset.Preset),
	}
}

// Get retrieves a preset by ID.
func (s *PresetStore) Get(ctx context.Context, id string) (preset.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presets[id]
	if !ok {
		return preset.Preset{}, ports.ErrNotFound
	}
	return clonePreset(p), nil
}

// GetByName retrieves a preset by name.
func (s *PresetStore) GetByName(ctx context.Context, name string) (preset.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.presets {
		if p.Name == name {
			return clonePreset(p), nil
		}
	}
	return preset.Preset{}, ports.ErrNotFound
}

// List returns all presets ordered by name.
func (s *PresetStore) List(ctx context.Context) ([]preset.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]preset.Preset, 0, len(s.presets))
	for _, p := range s.presets {
		result = append(result, clonePreset(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ListChildren returns the presets whose parent is parentID.
func (s *PresetStore) ListChildren(ctx context.Context, parentID string) ([]preset.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []preset.Preset
	for _, p := range s.presets {
		if p.ParentID == parentID {
			result = append(result, clonePreset(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Create stores a new preset. Names are unique.
func (s *PresetStore) Create(ctx context.Context, p preset.Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.presets[p.ID]; exists {
		return fmt.Errorf("preset %s: %w", p.ID, ports.ErrDuplicate)
	}
	for _, existing := range s.presets {
		if existing.Name == p.Name {
			return fmt.Errorf("preset name %q: %w", p.Name, ports.ErrDuplicate)
		}
	}
	s.presets[p.ID] = clonePreset(p)
	return nil
}

// Update replaces an existing preset.
func (s *PresetStore) Update(ctx context.Context, p preset.Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.presets[p.ID]; !ok {
		return ports.ErrNotFound
	}
	for id, existing := range s.presets {
		if id != p.ID && existing.Name == p.Name {
			return fmt.Errorf("preset name %q: %w", p.Name, ports.ErrDuplicate)
		}
	}
	s.presets[p.ID] = clonePreset(p)
	return nil
}

// Delete removes a preset.
func (s *PresetStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.presets[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.presets, id)
	return nil
}

// Clear removes all presets (for testing).
func (s *PresetStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presets = make(map[string]preset.Preset)
}

func clonePreset(p preset.Preset) preset.Preset {
	p.Data = append([]byte(nil), p.Data...)
	return p
}

// Ensure interface compliance.
var _ ports.PresetStore = (*PresetStore)(nil)
