package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// StoreConfig holds persistence settings.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `mapstructure:"path" yaml:"path"`

	// BusyTimeoutMs is how long a connection waits on a locked database
	// before reporting a conflict.
	BusyTimeoutMs int `mapstructure:"busy_timeout_ms" yaml:"busy_timeout_ms"`

	// MaxRetries bounds how often a conflicting write transaction is re-run.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// EventsConfig holds change-notification settings.
type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size" yaml:"buffer_size"`
}

// DragDropConfig holds placement state machine settings.
type DragDropConfig struct {
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// MaintenanceConfig holds background sweep settings.
type MaintenanceConfig struct {
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec"`
}

// LimitsConfig holds advisory per-day caps. Zero disables a cap.
type LimitsConfig struct {
	MaxStartPerDay int `mapstructure:"max_start_per_day" yaml:"max_start_per_day"`
	MaxEndPerDay   int `mapstructure:"max_end_per_day" yaml:"max_end_per_day"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Store       StoreConfig       `mapstructure:"store" yaml:"store"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	Events      EventsConfig      `mapstructure:"events" yaml:"events"`
	DragDrop    DragDropConfig    `mapstructure:"dragdrop" yaml:"dragdrop"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance" yaml:"maintenance"`
	Limits      LimitsConfig      `mapstructure:"limits" yaml:"limits"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/reminders/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "reminders", "config.yaml")
}

// DefaultDatabasePath returns ~/.local/share/reminders/reminders.db.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "reminders.db")
	}
	return filepath.Join(home, ".local", "share", "reminders", "reminders.db")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Store: StoreConfig{
			Path:          DefaultDatabasePath(),
			BusyTimeoutMs: 5000,
			MaxRetries:    3,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Events:      EventsConfig{BufferSize: 64},
		DragDrop:    DragDropConfig{DebounceMs: 300},
		Maintenance: MaintenanceConfig{IntervalSec: 3600},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.busy_timeout_ms", d.Store.BusyTimeoutMs)
	v.SetDefault("store.max_retries", d.Store.MaxRetries)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("events.buffer_size", d.Events.BufferSize)
	v.SetDefault("dragdrop.debounce_ms", d.DragDrop.DebounceMs)
	v.SetDefault("maintenance.interval_sec", d.Maintenance.IntervalSec)
	v.SetDefault("limits.max_start_per_day", 0)
	v.SetDefault("limits.max_end_per_day", 0)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with REMINDERS_ override file values
// (REMINDERS_STORE_PATH and so on). If the file does not exist, defaults
// are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("reminders")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Store.MaxRetries < 0 {
		cfg.Store.MaxRetries = 0
	}
	if cfg.Events.BufferSize <= 0 {
		cfg.Events.BufferSize = 64
	}
	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("store", cfg.Store)
	v.Set("log", cfg.Log)
	v.Set("events", cfg.Events)
	v.Set("dragdrop", cfg.DragDrop)
	v.Set("maintenance", cfg.Maintenance)
	v.Set("limits", cfg.Limits)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
