// Package config loads the tool configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	appDirName        = ".deckcfg"
	defaultDBName     = "deckcfg.db"
	defaultDebounceMS = 500
	defaultPollMS     = 500
	defaultNoticeMS   = 5000
	minIntervalMS     = 10
	maxIntervalMS     = 60_000
)

type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Inventory InventoryConfig `toml:"inventory"`
	Sync      SyncConfig      `toml:"sync"`
	Hardware  HardwareConfig  `toml:"hardware"`
	Notices   NoticesConfig   `toml:"notices"`
	Logging   LoggingConfig   `toml:"logging"`
}

type StorageConfig struct {
	Path string `toml:"path"`
}

type InventoryConfig struct {
	Path string `toml:"path"`
}

type SyncConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

type HardwareConfig struct {
	StatePath      string `toml:"state_path"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
}

type NoticesConfig struct {
	TTLMS int `toml:"ttl_ms"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Sync:     SyncConfig{DebounceMS: defaultDebounceMS},
		Hardware: HardwareConfig{PollIntervalMS: defaultPollMS},
		Notices:  NoticesConfig{TTLMS: defaultNoticeMS},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// DataDir returns the directory holding the default database.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads path over the defaults. A missing or empty file yields the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

// StoragePath returns the database path, defaulting to the data dir.
func (c Config) StoragePath() (string, error) {
	if p := strings.TrimSpace(c.Storage.Path); p != "" {
		return expandHome(p)
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultDBName), nil
}

// InventoryPath returns the app list file path, or "" for none.
func (c Config) InventoryPath() (string, error) {
	if p := strings.TrimSpace(c.Inventory.Path); p != "" {
		return expandHome(p)
	}
	return "", nil
}

// HardwareStatePath returns the controller snapshot path, or "" for none.
func (c Config) HardwareStatePath() (string, error) {
	if p := strings.TrimSpace(c.Hardware.StatePath); p != "" {
		return expandHome(p)
	}
	return "", nil
}

// Debounce returns the save quiet window.
func (c Config) Debounce() time.Duration {
	return interval(c.Sync.DebounceMS, defaultDebounceMS)
}

// PollInterval returns the hardware polling period.
func (c Config) PollInterval() time.Duration {
	return interval(c.Hardware.PollIntervalMS, defaultPollMS)
}

// NoticeTTL returns how long notices stay visible.
func (c Config) NoticeTTL() time.Duration {
	return interval(c.Notices.TTLMS, defaultNoticeMS)
}

// LogLevel parses the logging level, defaulting to info.
func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func interval(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	ms = max(minIntervalMS, min(ms, maxIntervalMS))
	return time.Duration(ms) * time.Millisecond
}

func expandHome(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
