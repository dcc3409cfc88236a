// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/brushkit/domain/preset"
)

// Errors returned by stores.
var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("already exists")
	ErrHasChildren = errors.New("preset has children")
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// PresetStore persists presets.
type PresetStore interface {
	// Get retrieves a preset by ID.
	Get(ctx context.Context, id string) (preset.Preset, error)

	// GetByName retrieves a preset by its unique name.
	GetByName(ctx context.Context, name string) (preset.Preset, error)

	// List returns all presets ordered by name.
	List(ctx context.Context) ([]preset.Preset, error)

	// ListChildren returns the presets whose parent is parentID.
	ListChildren(ctx context.Context, parentID string) ([]preset.Preset, error)

	// Create stores a new preset.
	Create(ctx context.Context, p preset.Preset) error

	// Update replaces an existing preset.
	Update(ctx context.Context, p preset.Preset) error

	// Delete removes a preset.
	Delete(ctx context.Context, id string) error
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// Metrics records service-level measurements.
type Metrics interface {
	// ResolveCompleted records one resolve of a preset chain.
	ResolveCompleted(depth int, d time.Duration)

	// CommandsBuilt records the number of commands a build produced.
	CommandsBuilt(tool string, n int)

	// ChannelEvaluated records one evaluation of a channel.
	ChannelEvaluated(channelID string)

	// StoreError records a failed store operation.
	StoreError(op string)
}
