package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func valid() *Config {
	c := Default()
	c.Map, c.Red, c.Black = "world.txt", "red.bug", "black.bug"
	return c
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
map = "maps/tiny.world"
red = "red.bug"
black = "/abs/black.bug"
seed = 7
interval = "50ms"
snapshot_every = 100
store = "runs.db"

[log]
level = "debug"
journal = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Dir(path)
	if cfg.Dir != dir {
		t.Fatalf("dir = %q, want %q", cfg.Dir, dir)
	}
	if got := cfg.Path(cfg.Map); got != filepath.Join(dir, "maps", "tiny.world") {
		t.Fatalf("map path = %q", got)
	}
	if got := cfg.Path(cfg.Black); got != "/abs/black.bug" {
		t.Fatalf("absolute path rewritten to %q", got)
	}
	if cfg.Ticks != 1000 || cfg.Log.Format != "text" {
		t.Fatalf("defaults lost: ticks %d format %q", cfg.Ticks, cfg.Log.Format)
	}
	if cfg.Seed != 7 || cfg.SnapshotEvery != 100 || cfg.Log.Level != "debug" || !cfg.Log.Journal {
		t.Fatalf("values not decoded: %+v", cfg)
	}
	d, err := cfg.IntervalDuration()
	if err != nil || d != 50*time.Millisecond {
		t.Fatalf("interval = %v, %v", d, err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: %v", err)
	}
	if _, err := Load(writeConfig(t, `map = `)); err == nil {
		t.Fatalf("broken toml accepted")
	}
	if _, err := Load(writeConfig(t, "maps = \"x\"\n")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown key: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(c *Config)
	}{
		{"no map", func(c *Config) { c.Map = "" }},
		{"no red", func(c *Config) { c.Red = "" }},
		{"no black", func(c *Config) { c.Black = "" }},
		{"negative ticks", func(c *Config) { c.Ticks = -1 }},
		{"negative snapshot interval", func(c *Config) { c.SnapshotEvery = -5 }},
		{"level", func(c *Config) { c.Log.Level = "loud" }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
		{"resume id", func(c *Config) { c.Store, c.Resume = "runs.db", "yesterday" }},
		{"resume without store", func(c *Config) { c.Resume = "6ba7b810-9dad-11d1-80b4-00c04fd430c8" }},
		{"interval", func(c *Config) { c.Interval = "soon" }},
		{"negative interval", func(c *Config) { c.Interval = "-1s" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.edit(c)
			if err := c.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("got %v, want ErrInvalid", err)
			}
		})
	}

	// a resumed run takes its world from the store
	c := Default()
	c.Store, c.Resume = "runs.db", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	if err := c.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
