// Package config handles the simulation's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
)

var ErrInvalid = errors.New("invalid config")

// Config describes one simulation run. Field names double as TOML keys.
type Config struct {
	Map   string `toml:"map" json:"map"`
	Red   string `toml:"red" json:"red"`
	Black string `toml:"black" json:"black"`

	// Ticks is how many ticks to run; 0 runs until interrupted.
	Ticks         int    `toml:"ticks" json:"ticks"`
	Seed          int64  `toml:"seed" json:"seed"`
	Interval      string `toml:"interval" json:"interval"`
	SnapshotEvery int    `toml:"snapshot_every" json:"snapshot_every"`
	Store         string `toml:"store" json:"store"`
	Resume        string `toml:"resume" json:"resume"`

	Log Log `toml:"log" json:"log"`

	// Dir is the directory relative paths are resolved against (set at load time).
	Dir string `toml:"-" json:"-"`
}

type Log struct {
	Level   string `toml:"level" json:"level"`
	Format  string `toml:"format" json:"format"`
	File    string `toml:"file" json:"file"`
	Journal bool   `toml:"journal" json:"journal"`
}

const schemaSrc = `
map:            string
red:            string
black:          string
ticks:          int & >=0
seed:           int
interval:       string
snapshot_every: int & >=0
store:          string
resume:         *"" | =~"^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$"
log: close({
	level:   "debug" | "info" | "warn" | "error"
	format:  "text" | "json"
	file:    string
	journal: bool
})

if resume == "" {
	map:   != ""
	red:   != ""
	black: != ""
}
if resume != "" {
	store: != ""
}
`

func Default() *Config {
	return &Config{
		Ticks: 1000,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML file on top of the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalid, path, strings.Join(names, ", "))
	}

	cfg.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return cfg, nil
}

// Path resolves p against Dir. Absolute and empty paths are returned as is.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// IntervalDuration is the pause between ticks; zero runs flat out.
func (c *Config) IntervalDuration() (time.Duration, error) {
	if c.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, fmt.Errorf("%w: interval: %w", ErrInvalid, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: interval %s is negative", ErrInvalid, d)
	}
	return d, nil
}

// Validate checks the config against its schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString("close({" + schemaSrc + "})")
	if err := schema.Err(); err != nil {
		return err
	}
	value := ctx.Encode(c)
	if err := value.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	_, err := c.IntervalDuration()
	return err
}
