// Package idgen provides preset identifier generators.
package idgen

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/artpar/brushkit/ports"
	"github.com/google/uuid"
)

// PresetPrefix marks identifiers of stored presets.
const PresetPrefix = "bp_"

// UUID generates prefixed random identifiers such as
// "bp_3f2a9c1e4b7d4e0f9a6b8c2d1e0f3a4b".
type UUID struct {
	Prefix string
}

// Ensure interface compliance.
var _ ports.IDGenerator = UUID{}

// NewUUID returns a generator for preset identifiers.
func NewUUID() UUID {
	return UUID{Prefix: PresetPrefix}
}

// New generates a new identifier from a random UUID without dashes.
func (g UUID) New() string {
	return g.Prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Valid reports whether id has the generator's prefix and a UUID body.
func (g UUID) Valid(id string) bool {
	body, ok := strings.CutPrefix(id, g.Prefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(body)
	return err == nil
}

// Sequential generates predictable identifiers for tests and fixtures.
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// Ensure interface compliance.
var _ ports.IDGenerator = (*Sequential)(nil)

// NewSequential creates a sequential generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New returns prefix followed by the next counter value, starting at 1.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

// Reset restarts the counter.
func (s *Sequential) Reset() {
	s.counter.Store(0)
}
