package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 5*time.Second, cfg.NoticeTTL())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "  \n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[storage]
path = "/var/lib/deckcfg/state.db"

[inventory]
path = "/etc/deckcfg/apps.yaml"

[sync]
debounce_ms = 250

[logging]
level = "DEBUG"
`))
	require.NoError(t, err)

	path, err := cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/deckcfg/state.db", path)

	inv, err := cfg.InventoryPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/deckcfg/apps.yaml", inv)

	assert.Equal(t, 250*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval(), "untouched sections keep defaults")
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestLoad_InvalidTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[sync\ndebounce_ms ="))
	assert.Error(t, err)
}

func TestIntervalsAreClamped(t *testing.T) {
	cfg := Default()
	cfg.Sync.DebounceMS = 1
	cfg.Hardware.PollIntervalMS = 10_000_000
	cfg.Notices.TTLMS = -5

	assert.Equal(t, 10*time.Millisecond, cfg.Debounce())
	assert.Equal(t, time.Minute, cfg.PollInterval())
	assert.Equal(t, 5*time.Second, cfg.NoticeTTL())
}

func TestOptionalPathsDefaultEmpty(t *testing.T) {
	cfg := Default()

	inv, err := cfg.InventoryPath()
	require.NoError(t, err)
	assert.Empty(t, inv)

	hw, err := cfg.HardwareStatePath()
	require.NoError(t, err)
	assert.Empty(t, hw)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := Default()
	cfg.Storage.Path = "~/decks/state.db"
	path, err := cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "decks/state.db"), path)
}
