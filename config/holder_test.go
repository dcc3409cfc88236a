package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/artpar/brushkit/config"
	"github.com/rs/zerolog"
)

func TestHolder_Get(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Tool.Overrides["clay"]["radius"][0] != 80 {
		t.Errorf("clay radius = %v, want 80", got.Tool.Overrides["clay"]["radius"])
	}
}

func TestHolder_ReloadAndOnChange(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var oldRadius, newRadius float64
	h.OnChange(func(old, new *config.Config) {
		oldRadius = old.Tool.Overrides["clay"]["radius"][0]
		newRadius = new.Tool.Overrides["clay"]["radius"][0]
	})

	if err := os.WriteFile(path, []byte(configWithRadius(120)), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	if oldRadius != 80 || newRadius != 120 {
		t.Errorf("callback saw %v -> %v, want 80 -> 120", oldRadius, newRadius)
	}
	if got := h.Get().Tool.Overrides["clay"]["radius"][0]; got != 120 {
		t.Errorf("reloaded radius = %v, want 120", got)
	}
}

func TestHolder_ReloadInvalidConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var reported error
	h.OnError(func(err error) { reported = err })

	if err := os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}
	if err := h.Reload(); err == nil {
		t.Error("Reload should fail for invalid config")
	}
	if reported == nil {
		t.Error("OnError callback was not called")
	}
	if h.Get().Logging.Level != "info" {
		t.Errorf("should keep old config, got level %s", h.Get().Logging.Level)
	}
}

func TestHolder_Static(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	h := config.NewStaticHolder(cfg, zerolog.Nop())
	defer h.Stop()

	if h.Get() != cfg {
		t.Error("Get should return the wrapped config")
	}
	if err := h.Reload(); err == nil {
		t.Error("Reload should fail without a file")
	}
	if err := h.WatchFile(); err == nil {
		t.Error("WatchFile should fail without a file")
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	changed := make(chan struct{}, 8)
	h.OnChange(func(old, new *config.Config) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}
	if err := os.WriteFile(path, []byte(configWithRadius(150)), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("file watcher did not trigger reload")
	}

	// A single write can arrive as several events; wait for the final state.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o := h.Get().Tool.Overrides["clay"]["radius"]; len(o) == 1 && o[0] == 150 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("after file watch, radius = %v, want 150", h.Get().Tool.Overrides["clay"]["radius"])
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = h.Get()
		}()
		go func() {
			defer wg.Done()
			_ = h.Reload()
		}()
	}
	wg.Wait()
}

func TestHolder_StopTwice(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	h.Stop()
	h.Stop()
}

func TestReloadableFields(t *testing.T) {
	reloadable := config.ReloadableFields()
	static := config.NonReloadableFields()

	seen := make(map[string]bool)
	for _, f := range reloadable {
		seen[f] = true
	}
	for _, f := range static {
		if seen[f] {
			t.Errorf("%s listed as both reloadable and non-reloadable", f)
		}
	}
	if !seen["tool.overrides"] {
		t.Error("tool.overrides should be reloadable")
	}
}

func TestLoad_NotExist(t *testing.T) {
	_, err := config.NewHolder(filepath.Join(t.TempDir(), "missing.yaml"), zerolog.Nop())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func validConfig() string {
	return configWithRadius(80)
}

func configWithRadius(r int) string {
	return "tool:\n  overrides:\n    clay:\n      radius: [" + strconv.Itoa(r) + "]\n"
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
