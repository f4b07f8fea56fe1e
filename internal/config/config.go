// Package config loads runtime settings for the canvas server and the
// compose command.
//
// Settings come from three layers, later ones winning: built-in defaults,
// an optional TOML file, and environment variables.
//
//	log_level = "info"       # debug, info, warn or error
//	workers = 0              # row-parallel workers, 0 means GOMAXPROCS
//	min_parallel_rows = 16   # smaller regions are blended on one goroutine
//	max_dimension = 16384    # largest canvas width or height the server creates
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/ironsheep/canvas-tools-mcp/internal/parallel"
)

// Environment variables read by Load.
const (
	EnvLogLevel = "CANVAS_MCP_LOG_LEVEL"
	EnvWorkers  = "CANVAS_MCP_WORKERS"
)

// Config holds every tunable setting.
type Config struct {
	LogLevel        string `toml:"log_level"`
	Workers         int    `toml:"workers"`
	MinParallelRows int    `toml:"min_parallel_rows"`
	MaxDimension    int    `toml:"max_dimension"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:        "info",
		Workers:         0,
		MinParallelRows: parallel.DefaultMinRows,
		MaxDimension:    16384,
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MinParallelRows < 0 {
		return fmt.Errorf("min_parallel_rows must not be negative, got %d", c.MinParallelRows)
	}
	if c.MaxDimension < 1 {
		return fmt.Errorf("max_dimension must be at least 1, got %d", c.MaxDimension)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (log.Level, error) {
	lvl, err := log.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// Apply pushes the parallelism settings into the compositing engine.
func (c Config) Apply() {
	parallel.Configure(c.Workers, c.MinParallelRows)
}
