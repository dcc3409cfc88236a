// Package preset provides stored brush preset value types and pure
// validation functions. This package has NO dependencies on I/O.
package preset

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors returned by validation and lineage checks.
var (
	ErrInvalid = errors.New("invalid preset")
	ErrCycle   = errors.New("preset parent cycle")
)

// Scope is the inheritance level a preset configures.
type Scope string

const (
	ScopeTool    Scope = "tool"    // per-tool settings
	ScopeBrush   Scope = "brush"   // per-brush overrides
	ScopeCommand Scope = "command" // per-stroke-command overrides
)

// rank orders scopes from outermost to innermost.
func (s Scope) rank() int {
	switch s {
	case ScopeTool:
		return 1
	case ScopeBrush:
		return 2
	case ScopeCommand:
		return 3
	}
	return 0
}

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s.rank() > 0
}

// ParseScope parses a scope name.
func ParseScope(s string) (Scope, error) {
	sc := Scope(strings.ToLower(strings.TrimSpace(s)))
	if !sc.Valid() {
		return "", fmt.Errorf("%w: unknown scope %q", ErrInvalid, s)
	}
	return sc, nil
}

// CanParent reports whether a preset of scope parent may be the parent of a
// preset of scope child. Parents are never more specific than children.
func CanParent(parent, child Scope) bool {
	return parent.Valid() && child.Valid() && parent.rank() <= child.rank()
}

// Preset is a stored, named channel set (immutable value type).
type Preset struct {
	ID        string
	Name      string
	Scope     Scope
	Tool      string // tool kind the preset configures
	ParentID  string // empty = only registry defaults above it
	Data      []byte // serialized channel set
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fields a store requires.
func Validate(p Preset) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case !p.Scope.Valid():
		return fmt.Errorf("%w: unknown scope %q", ErrInvalid, p.Scope)
	case strings.TrimSpace(p.Tool) == "":
		return fmt.Errorf("%w: tool is required", ErrInvalid)
	case p.ParentID != "" && p.ParentID == p.ID:
		return fmt.Errorf("%w: preset is its own parent", ErrCycle)
	}
	return nil
}

// Lineage orders a preset chain from root to leaf. chain must start at the
// leaf and follow ParentID links; a repeated ID reports ErrCycle.
func Lineage(chain []Preset) ([]Preset, error) {
	seen := make(map[string]bool, len(chain))
	out := make([]Preset, len(chain))
	for i, p := range chain {
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: %s", ErrCycle, p.ID)
		}
		seen[p.ID] = true
		if i > 0 && chain[i-1].ParentID != p.ID {
			return nil, fmt.Errorf("%w: %s does not follow %s", ErrInvalid, p.ID, chain[i-1].ID)
		}
		out[len(chain)-1-i] = p
	}
	return out, nil
}
