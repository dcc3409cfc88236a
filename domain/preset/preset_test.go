package preset_test

import (
	"errors"
	"testing"

	"github.com/artpar/brushkit/domain/preset"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		want    preset.Scope
		wantErr bool
	}{
		{"tool", preset.ScopeTool, false},
		{" Brush ", preset.ScopeBrush, false},
		{"command", preset.ScopeCommand, false},
		{"stroke", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := preset.ParseScope(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseScope(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseScope(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanParent(t *testing.T) {
	tests := []struct {
		parent, child preset.Scope
		want          bool
	}{
		{preset.ScopeTool, preset.ScopeBrush, true},
		{preset.ScopeBrush, preset.ScopeBrush, true},
		{preset.ScopeTool, preset.ScopeCommand, true},
		{preset.ScopeCommand, preset.ScopeBrush, false},
		{preset.ScopeBrush, preset.ScopeTool, false},
		{"bogus", preset.ScopeTool, false},
	}

	for _, tt := range tests {
		if got := preset.CanParent(tt.parent, tt.child); got != tt.want {
			t.Errorf("CanParent(%s, %s) = %v, want %v", tt.parent, tt.child, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := preset.Preset{ID: "p1", Name: "Clay", Scope: preset.ScopeBrush, Tool: "clay"}
	if err := preset.Validate(valid); err != nil {
		t.Fatalf("Validate(valid) error = %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(p *preset.Preset)
		wantErr error
	}{
		{"no name", func(p *preset.Preset) { p.Name = " " }, preset.ErrInvalid},
		{"bad scope", func(p *preset.Preset) { p.Scope = "x" }, preset.ErrInvalid},
		{"no tool", func(p *preset.Preset) { p.Tool = "" }, preset.ErrInvalid},
		{"self parent", func(p *preset.Preset) { p.ParentID = p.ID }, preset.ErrCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if err := preset.Validate(p); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLineage(t *testing.T) {
	leaf := preset.Preset{ID: "c", ParentID: "b"}
	mid := preset.Preset{ID: "b", ParentID: "a"}
	root := preset.Preset{ID: "a"}

	got, err := preset.Lineage([]preset.Preset{leaf, mid, root})
	if err != nil {
		t.Fatalf("Lineage() error = %v", err)
	}
	if got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Errorf("Lineage() = %v, want a, b, c", got)
	}

	loop := preset.Preset{ID: "c", ParentID: "b"}
	if _, err := preset.Lineage([]preset.Preset{leaf, mid, loop}); !errors.Is(err, preset.ErrCycle) {
		t.Errorf("Lineage(cycle) error = %v, want ErrCycle", err)
	}

	if _, err := preset.Lineage([]preset.Preset{leaf, root}); !errors.Is(err, preset.ErrInvalid) {
		t.Errorf("Lineage(broken) error = %v, want ErrInvalid", err)
	}
}
