package idgen_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/artpar/brushkit/adapters/idgen"
)

func TestUUID_New(t *testing.T) {
	gen := idgen.NewUUID()
	id := gen.New()

	if !strings.HasPrefix(id, idgen.PresetPrefix) {
		t.Errorf("expected prefix %q, got %s", idgen.PresetPrefix, id)
	}
	if len(id) != len(idgen.PresetPrefix)+32 {
		t.Errorf("expected length %d, got %d", len(idgen.PresetPrefix)+32, len(id))
	}
	if strings.Contains(id, "-") {
		t.Errorf("expected no dashes, got %s", id)
	}
	if !gen.Valid(id) {
		t.Errorf("Valid(%s) = false, want true", id)
	}
}

func TestUUID_Unique(t *testing.T) {
	gen := idgen.NewUUID()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.New()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestUUID_Valid(t *testing.T) {
	gen := idgen.NewUUID()
	tests := []struct {
		id   string
		want bool
	}{
		{"bp_3f2a9c1e4b7d4e0f9a6b8c2d1e0f3a4b", true},
		{"3f2a9c1e4b7d4e0f9a6b8c2d1e0f3a4b", false},
		{"bp_not-a-uuid", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := gen.Valid(tt.id); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestSequential_New(t *testing.T) {
	gen := idgen.NewSequential("preset-")
	for _, want := range []string{"preset-1", "preset-2", "preset-3"} {
		if got := gen.New(); got != want {
			t.Errorf("New() = %s, want %s", got, want)
		}
	}
}

func TestSequential_Reset(t *testing.T) {
	gen := idgen.NewSequential("")
	gen.New()
	gen.New()
	gen.Reset()
	if got := gen.New(); got != "1" {
		t.Errorf("after Reset New() = %s, want 1", got)
	}
}

func TestSequential_ConcurrentAccess(t *testing.T) {
	gen := idgen.NewSequential("c")
	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				id := gen.New()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != 1000 {
		t.Errorf("expected 1000 unique ids, got %d", len(seen))
	}
}
