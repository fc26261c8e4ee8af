package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tomlConfig = `
[workers]
threads = 3
queue_capacity = 64
stop_timeout = "250ms"

[parallel]
workers = 2
reserve = 8

[log]
level = "debug"
format = "json"

[metrics]
addr = ":9090"
poll_interval = "2s"
`

const yamlConfig = `
workers:
  threads: 3
  queue_capacity: 64
  stop_timeout: 250ms
parallel:
  workers: 2
  reserve: 8
log:
  level: debug
  format: json
metrics:
  addr: ":9090"
  poll_interval: 2s
`

func assertLoaded(t *testing.T, cfg *Config) {
	t.Helper()
	assert.Equal(t, 3, cfg.Workers.Threads)
	assert.Equal(t, 64, cfg.Workers.QueueCapacity)
	assert.Equal(t, 250*time.Millisecond, cfg.Workers.StopTimeout.Duration)
	assert.Equal(t, 2, cfg.Parallel.Workers)
	assert.Equal(t, 8, cfg.Parallel.Reserve)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, 2*time.Second, cfg.Metrics.PollInterval.Duration)
	// not set in either file
	assert.Equal(t, 1024, cfg.Store.SlotCapacity)
}

func TestLoadFromString_TOMLAndYAMLAgree(t *testing.T) {
	fromTOML, err := LoadFromString(tomlConfig, FormatTOML)
	require.NoError(t, err)
	assertLoaded(t, fromTOML)

	fromYAML, err := LoadFromString(yamlConfig, FormatYAML)
	require.NoError(t, err)
	assertLoaded(t, fromYAML)
}

func TestLoad_DetectsFormatByExtension(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "substrate.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlConfig), 0o600))
	cfg, err := Load(tomlPath)
	require.NoError(t, err)
	assertLoaded(t, cfg)

	ymlPath := filepath.Join(dir, "substrate.yml")
	require.NoError(t, os.WriteFile(ymlPath, []byte(yamlConfig), 0o600))
	cfg, err = Load(ymlPath)
	require.NoError(t, err)
	assertLoaded(t, cfg)

	iniPath := filepath.Join(dir, "substrate.ini")
	require.NoError(t, os.WriteFile(iniPath, []byte("x=1"), 0o600))
	_, err = Load(iniPath)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "substrate.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlConfig), 0o600))

	t.Setenv("SUBSTRATE_WORKERS_THREADS", "7")
	t.Setenv("SUBSTRATE_LOG_LEVEL", "warn")
	t.Setenv("SUBSTRATE_METRICS_POLL_INTERVAL", "5s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers.Threads)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Metrics.PollInterval.Duration)
	assert.Equal(t, 64, cfg.Workers.QueueCapacity)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("SUBSTRATE_PARALLEL_RESERVE", "lots")
	_, err := Load("")
	assert.ErrorContains(t, err, "SUBSTRATE_PARALLEL_RESERVE")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers.Threads)
	assert.Equal(t, cfg.Workers.Threads, cfg.Parallel.Workers)
	assert.Equal(t, 1024, cfg.Workers.QueueCapacity)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsUnknownLogFormat(t *testing.T) {
	_, err := LoadFromString("[log]\nformat = \"xml\"\n", FormatTOML)
	assert.ErrorContains(t, err, "log.format")
}

func TestDuration_MarshalText(t *testing.T) {
	text, err := Duration{Duration: 1500 * time.Millisecond}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", string(text))
	assert.Equal(t, "yaml", FormatYAML.String())
}
