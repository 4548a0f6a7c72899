// Package config loads the lumen configuration from YAML and the
// LUMEN_ environment, and resolves the XDG directories used for the
// socket, the persisted index and the logs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// LibraryConfig points at the photo library to index.
type LibraryConfig struct {
	Path    string   `mapstructure:"path"`
	Exclude []string `mapstructure:"exclude"`
}

// IndexConfig controls rebuild cadence and query defaults.
type IndexConfig struct {
	RebuildDays   int    `mapstructure:"rebuild_days"`
	CheckInterval string `mapstructure:"check_interval"`
	QueryLimit    int    `mapstructure:"query_limit"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// DaemonConfig configures the background daemon. BinaryPath is
// auto-discovered when empty.
type DaemonConfig struct {
	AutoStart  bool   `mapstructure:"auto_start"`
	BinaryPath string `mapstructure:"binary_path"`
	SocketPath string `mapstructure:"socket_path"`
	PIDPath    string `mapstructure:"pid_path"`
}

// Config is the full lumen configuration.
type Config struct {
	Library LibraryConfig `mapstructure:"library"`
	Index   IndexConfig   `mapstructure:"index"`
	Logging LoggingConfig `mapstructure:"logging"`
	Daemon  DaemonConfig  `mapstructure:"daemon"`
}

// Load reads config.yaml from $XDG_CONFIG_HOME/lumen or
// ~/.config/lumen, then applies LUMEN_ environment overrides
// (LUMEN_LIBRARY_PATH and so on). A missing file means defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if h := os.Getenv("XDG_CONFIG_HOME"); h != "" {
		v.AddConfigPath(filepath.Join(h, "lumen"))
	}
	v.AddConfigPath(filepath.Join(home, ".config", "lumen"))

	v.SetEnvPrefix("LUMEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, home)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if strings.HasPrefix(cfg.Library.Path, "~") {
		cfg.Library.Path = filepath.Join(home, cfg.Library.Path[1:])
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("library.path", filepath.Join(home, "Pictures"))
	v.SetDefault("library.exclude", DefaultExclusions)

	v.SetDefault("index.rebuild_days", DefaultRebuildDays)
	v.SetDefault("index.check_interval", DefaultCheckInterval)
	v.SetDefault("index.query_limit", DefaultQueryLimit)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.components", map[string]string{
		"daemon":    "info",
		"fslibrary": "warn",
		"indexer":   "info",
		"syncer":    "info",
	})

	v.SetDefault("daemon.auto_start", true)
	v.SetDefault("daemon.socket_path", "")
	v.SetDefault("daemon.pid_path", "")
}

// ConfigDir returns the directory config.yaml lives in.
func ConfigDir() (string, error) {
	if h := os.Getenv("XDG_CONFIG_HOME"); h != "" {
		return filepath.Join(h, "lumen"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "lumen"), nil
}

// EnsureConfigDir creates the config directory if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return ensureDir(dir)
}

// WriteDefault writes a commented default config file. It is a no-op
// when a config file already exists.
func WriteDefault() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := ensureDir(dir); err != nil {
		return err
	}

	path := filepath.Join(dir, "config.yaml")
	switch _, err := os.Stat(path); {
	case err == nil:
		return nil
	case !os.IsNotExist(err):
		return fmt.Errorf("checking config file: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}

	body := fmt.Sprintf(`# Lumen Photo Index Configuration

# Photo library to index
library:
  path: %s
  # Library-relative glob patterns to hide from the index
  exclude:
    - "**/*.tmp"
    - "Trash/**"

# Index maintenance
index:
  # Full rebuild once the index is older than this many days
  rebuild_days: %d
  # How often the daemon checks index staleness
  check_interval: %s
  # Default number of results for ranked queries
  query_limit: %d

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/lumen/lumen.log)
  path: ""
  # Log rotation settings
  rotation:
    max_size: 10MB
    max_backups: 5
  # Per-component log levels
  components:
    daemon: info
    fslibrary: warn
    indexer: info
    syncer: info

# Daemon configuration
daemon:
  # Automatically start daemon when running lumen commands
  auto_start: true
  # Unix socket path (empty means use default: $XDG_DATA_HOME/lumen/lumen.sock)
  socket_path: ""
  # PID file path (empty means use default: $XDG_DATA_HOME/lumen/lumen.pid)
  pid_path: ""
`, filepath.Join(home, "Pictures"), DefaultRebuildDays, DefaultCheckInterval, DefaultQueryLimit)

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/lumen/ for socket and pid files.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "lumen")
}

// StateDir returns $XDG_STATE_HOME/lumen/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "lumen")
}

// CacheDir returns $XDG_CACHE_HOME/lumen/ for the persisted index and
// the dimension cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "lumen")
}

// DefaultSocketPath returns the default Unix socket path.
func DefaultSocketPath() string {
	return filepath.Join(DataDir(), "lumen.sock")
}

// DefaultPIDPath returns the default PID file path.
func DefaultPIDPath() string {
	return filepath.Join(DataDir(), "lumen.pid")
}

// DefaultIndexPath returns the default persisted index path.
func DefaultIndexPath() string {
	return filepath.Join(CacheDir(), "index.json")
}

// DefaultMetaCacheDir returns the default image dimension cache
// directory.
func DefaultMetaCacheDir() string {
	return filepath.Join(CacheDir(), "metacache")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "lumen.log")
}

// EnsureDataDir creates the data directory if needed.
func EnsureDataDir() error { return ensureDir(DataDir()) }

// EnsureStateDir creates the state directory if needed.
func EnsureStateDir() error { return ensureDir(StateDir()) }

// EnsureCacheDir creates the cache directory if needed.
func EnsureCacheDir() error { return ensureDir(CacheDir()) }

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}
