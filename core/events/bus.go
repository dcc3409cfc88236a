// Package events publishes preset and tool configuration changes to
// in-process subscribers.
package events

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event names.
const (
	PresetCreated = "preset.created"
	PresetUpdated = "preset.updated"
	PresetDeleted = "preset.deleted"
	ChannelsSaved = "preset.channels_saved"
	ToolsChanged  = "tool.overrides_changed"
)

// Event represents a published change.
type Event struct {
	// Name is one of the event name constants.
	Name string

	// PresetID is empty for tool events.
	PresetID string

	// Tool is the tool kind the change applies to, if any.
	Tool string

	At time.Time
}

// Handler processes an event.
type Handler func(ctx context.Context, event Event) error

// Bus is a synchronous publish/subscribe event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler. Patterns:
//   - "preset.created" - exact match
//   - "preset.*" - every event in the group
//   - "*" - all events
func (b *Bus) Subscribe(pattern string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[pattern] = append(b.handlers[pattern], handler)
}

// Publish calls every matching handler in registration order, exact
// subscribers first. Handler errors are logged and do not stop delivery.
// A nil bus drops the event.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if b == nil {
		return
	}
	matched := b.match(event.Name)

	b.logger.Debug().
		Str("event", event.Name).
		Str("preset_id", event.PresetID).
		Int("handlers", len(matched)).
		Msg("event published")

	for _, handler := range matched {
		if err := handler(ctx, event); err != nil {
			b.logger.Error().
				Err(err).
				Str("event", event.Name).
				Msg("event handler error")
		}
	}
}

// HasSubscribers reports whether any handler matches name.
func (b *Bus) HasSubscribers(name string) bool {
	return len(b.match(name)) > 0
}

func (b *Bus) match(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []Handler
	matched = append(matched, b.handlers[name]...)
	if group, _, ok := strings.Cut(name, "."); ok {
		matched = append(matched, b.handlers[group+".*"]...)
	}
	matched = append(matched, b.handlers["*"]...)
	return matched
}
