// Package config loads runtime settings for the substrate pools and stores
// from TOML or YAML files, with SUBSTRATE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SUBSTRATE_"

// Config holds the complete runtime configuration
type Config struct {
	Workers  WorkersConfig  `toml:"workers" yaml:"workers"`
	Parallel ParallelConfig `toml:"parallel" yaml:"parallel"`
	Store    StoreConfig    `toml:"store" yaml:"store"`
	Log      LogConfig      `toml:"log" yaml:"log"`
	Metrics  MetricsConfig  `toml:"metrics" yaml:"metrics"`
}

// WorkersConfig sizes the shared-queue WorkerPool
type WorkersConfig struct {
	Threads       int      `toml:"threads" yaml:"threads"`
	QueueCapacity int      `toml:"queue_capacity" yaml:"queue_capacity"`
	StopTimeout   Duration `toml:"stop_timeout" yaml:"stop_timeout"`
}

// ParallelConfig sizes the per-worker ParallelPool
type ParallelConfig struct {
	Workers int `toml:"workers" yaml:"workers"`
	Reserve int `toml:"reserve" yaml:"reserve"`
}

// StoreConfig bounds values kept in heterogeneous stores
type StoreConfig struct {
	SlotCapacity int `toml:"slot_capacity" yaml:"slot_capacity"`
}

// LogConfig selects the zap logger
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set
type MetricsConfig struct {
	Addr         string   `toml:"addr" yaml:"addr"`
	PollInterval Duration `toml:"poll_interval" yaml:"poll_interval"`
}

// Duration wraps time.Duration for text parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Format is a configuration file syntax
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path, picking the syntax from its extension, then applies
// environment overrides and defaults. An empty path yields Default with
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		path = os.ExpandEnv(path)
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		format, err := detectFormat(path)
		if err != nil {
			return nil, err
		}
		if err := decode(content, format, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromString parses content in the given format and applies defaults.
// Environment overrides are not consulted.
func LoadFromString(content string, format Format) (*Config, error) {
	cfg := &Config{}
	if err := decode([]byte(content), format, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("config %s: unsupported extension %q", path, filepath.Ext(path))
	}
}

func decode(content []byte, format Format, cfg *Config) error {
	switch format {
	case FormatTOML:
		_, err := toml.Decode(string(content), cfg)
		return err
	case FormatYAML:
		return yaml.Unmarshal(content, cfg)
	default:
		return fmt.Errorf("unsupported format %v", format)
	}
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Workers.Threads <= 0 {
		c.Workers.Threads = runtime.GOMAXPROCS(0)
	}
	if c.Workers.QueueCapacity <= 0 {
		c.Workers.QueueCapacity = 1024
	}
	if c.Workers.StopTimeout.Duration <= 0 {
		c.Workers.StopTimeout.Duration = 5 * time.Second
	}
	if c.Parallel.Workers <= 0 {
		c.Parallel.Workers = c.Workers.Threads
	}
	if c.Parallel.Reserve <= 0 {
		c.Parallel.Reserve = 16
	}
	if c.Store.SlotCapacity <= 0 {
		c.Store.SlotCapacity = 1024
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Metrics.PollInterval.Duration <= 0 {
		c.Metrics.PollInterval.Duration = time.Second
	}
}

// applyEnv overrides fields from SUBSTRATE_<SECTION>_<KEY> variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"WORKERS_THREADS":        &c.Workers.Threads,
		"WORKERS_QUEUE_CAPACITY": &c.Workers.QueueCapacity,
		"PARALLEL_WORKERS":       &c.Parallel.Workers,
		"PARALLEL_RESERVE":       &c.Parallel.Reserve,
		"STORE_SLOT_CAPACITY":    &c.Store.SlotCapacity,
	}
	strs := map[string]*string{
		"LOG_LEVEL":    &c.Log.Level,
		"LOG_FORMAT":   &c.Log.Format,
		"METRICS_ADDR": &c.Metrics.Addr,
	}
	durs := map[string]*Duration{
		"WORKERS_STOP_TIMEOUT":  &c.Workers.StopTimeout,
		"METRICS_POLL_INTERVAL": &c.Metrics.PollInterval,
	}

	var errs []error
	for key, dst := range ints {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				continue
			}
			*dst = n
		}
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	for key, dst := range durs {
		if v, ok := lookup(EnvPrefix + key); ok {
			if err := dst.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Validate rejects settings the pools cannot honour.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers.Threads < 1 {
		errs = append(errs, fmt.Errorf("workers.threads must be positive, got %d", c.Workers.Threads))
	}
	if c.Workers.QueueCapacity < 1 {
		errs = append(errs, fmt.Errorf("workers.queue_capacity must be positive, got %d", c.Workers.QueueCapacity))
	}
	if c.Parallel.Workers < 1 {
		errs = append(errs, fmt.Errorf("parallel.workers must be positive, got %d", c.Parallel.Workers))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
