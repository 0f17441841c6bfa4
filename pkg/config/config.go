package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/perfwatch/pkg/models"
)

// Config holds all configuration options for perfwatch.
type Config struct {
	// Operations measured on every project
	Metrics []MetricDef `koanf:"metrics" toml:"metrics"`

	// Benchmarking tool settings
	Hyperfine HyperfineConfig `koanf:"hyperfine" toml:"hyperfine"`

	// Baseline store settings
	Baselines BaselinesConfig `koanf:"baselines" toml:"baselines"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`

	// Watch mode settings
	Watch WatchConfig `koanf:"watch" toml:"watch"`
}

// MetricDef defines one operation to measure: a command, plus the command
// that resets state before each timed run.
type MetricDef struct {
	Name    string `koanf:"name" toml:"name"`
	Prepare string `koanf:"prepare" toml:"prepare"`
	Command string `koanf:"command" toml:"command"`
}

// HyperfineConfig controls how the benchmarking tool is invoked.
type HyperfineConfig struct {
	Binary     string `koanf:"binary" toml:"binary"`
	Warmup     int    `koanf:"warmup" toml:"warmup"`
	ShowOutput bool   `koanf:"show_output" toml:"show_output"`
	Timeout    int    `koanf:"timeout" toml:"timeout"` // seconds per invocation, 0 = none
}

// BaselinesConfig controls baseline serialization.
type BaselinesConfig struct {
	Pretty bool `koanf:"pretty" toml:"pretty"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format   string `koanf:"format" toml:"format"` // text, json, markdown, toon, yaml
	Color    bool   `koanf:"color" toml:"color"`
	Progress bool   `koanf:"progress" toml:"progress"`
}

// WatchConfig controls which project changes trigger a new sample.
type WatchConfig struct {
	Debounce    int      `koanf:"debounce" toml:"debounce"` // milliseconds
	ExcludeDirs []string `koanf:"exclude_dirs" toml:"exclude_dirs"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Metrics: []MetricDef{
			{
				Name:    "parse",
				Prepare: "dbt clean",
				Command: "dbt parse --no-version-check --profiles-dir ../../project_config/",
			},
		},
		Hyperfine: HyperfineConfig{
			Binary:     "hyperfine",
			Warmup:     1,
			ShowOutput: true,
			Timeout:    0,
		},
		Baselines: BaselinesConfig{
			Pretty: true,
		},
		Output: OutputConfig{
			Format:   "text",
			Color:    true,
			Progress: true,
		},
		Watch: WatchConfig{
			Debounce:    1000,
			ExcludeDirs: []string{".git", "target", "logs", "dbt_packages"},
		},
	}
}

// Validate checks the configuration for values the pipelines cannot use.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Metrics) == 0 {
		errs = append(errs, errors.New("metrics: at least one metric must be defined"))
	}
	seen := make(map[string]bool, len(c.Metrics))
	for i, m := range c.Metrics {
		switch {
		case m.Name == "":
			errs = append(errs, fmt.Errorf("metrics[%d]: name is required", i))
		case strings.Contains(m.Name, models.MetricSeparator):
			errs = append(errs, fmt.Errorf("metrics[%d]: name %q must not contain %q", i, m.Name, models.MetricSeparator))
		case seen[m.Name]:
			errs = append(errs, fmt.Errorf("metrics[%d]: duplicate name %q", i, m.Name))
		}
		seen[m.Name] = true
		if m.Command == "" {
			errs = append(errs, fmt.Errorf("metrics[%d]: command is required", i))
		}
	}

	if c.Hyperfine.Binary == "" {
		errs = append(errs, errors.New("hyperfine.binary is required"))
	}
	if c.Hyperfine.Warmup < 0 {
		errs = append(errs, fmt.Errorf("hyperfine.warmup must be >= 0 (got %d)", c.Hyperfine.Warmup))
	}
	if c.Hyperfine.Timeout < 0 {
		errs = append(errs, fmt.Errorf("hyperfine.timeout must be >= 0 (got %d)", c.Hyperfine.Timeout))
	}

	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must be >= 0 (got %d)", c.Watch.Debounce))
	}

	return errors.Join(errs...)
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	// A file that defines metrics replaces the default set rather than merging into it.
	if k.Exists("metrics") {
		cfg.Metrics = nil
	}
	if k.Exists("watch.exclude_dirs") {
		cfg.Watch.ExcludeDirs = nil
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// configNames are the file names searched for by LoadOrDefault.
var configNames = []string{
	"perfwatch.toml",
	"perfwatch.yaml",
	"perfwatch.yml",
	"perfwatch.json",
	".perfwatch.toml",
	".perfwatch.yaml",
	".perfwatch.yml",
	".perfwatch.json",
}

// searchDirs are the directories searched for by LoadOrDefault.
var searchDirs = []string{".", ".perfwatch"}

// findConfig returns the first config file in the standard locations.
func findConfig() string {
	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	if path := findConfig(); path != "" {
		cfg, err := Load(path)
		if err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// LoadResult is a loaded configuration and the file it came from.
// Source is empty when defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
}

// WithPath loads from an explicit file instead of searching standard locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// LoadConfig loads configuration, reporting where it came from. Unlike
// LoadOrDefault, errors in a discovered or explicit file are returned.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	path := o.path
	if path == "" {
		path = findConfig()
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}
