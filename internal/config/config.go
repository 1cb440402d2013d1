// Package config provides configuration management for stylesync using
// Viper for loading from files, environment variables, and command-line
// flags.
//
// The configuration system supports YAML files, environment variable
// overrides with the STYLESYNC_ prefix, and validation. It covers the style
// manager's container capacity, the live preview server, the style file
// watcher and logging.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	serrors "github.com/conneroisu/stylesync/internal/errors"
	"github.com/conneroisu/stylesync/internal/logging"
	"github.com/conneroisu/stylesync/internal/manager"
)

// Defaults applied when a setting is absent.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 8080
	DefaultDebounce = 300 * time.Millisecond
	DefaultLogLevel = "info"
)

// DefaultStylePaths are scanned when no style path is configured.
var DefaultStylePaths = []string{"./styles"}

type Config struct {
	Manager ManagerConfig `yaml:"manager" mapstructure:"manager"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	// StyleFiles are CLI arguments, not read from the config file.
	StyleFiles []string `yaml:"-" mapstructure:"-"`
}

type ManagerConfig struct {
	// Capacity is the container text length at which a new container is started.
	Capacity int `yaml:"capacity" mapstructure:"capacity"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	Host           string   `yaml:"host" mapstructure:"host"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type WatchConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Paths    []string      `yaml:"paths" mapstructure:"paths"`
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load builds the configuration from viper, applies defaults and validates.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, serrors.WrapConfig(err, serrors.ErrCodeConfigInvalid, "cannot decode configuration")
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, serrors.WrapConfig(err, serrors.ErrCodeConfigInvalid, "invalid configuration")
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Manager.Capacity == 0 {
		config.Manager.Capacity = manager.DefaultCapacity
	}

	if !viper.IsSet("server.port") {
		config.Server.Port = DefaultPort
	}
	if config.Server.Host == "" {
		config.Server.Host = DefaultHost
	}

	// Handle slices set as comma separated strings through env or flags
	if viper.IsSet("watch.paths") && len(config.Watch.Paths) == 0 {
		config.Watch.Paths = viper.GetStringSlice("watch.paths")
	}
	if len(config.Watch.Paths) == 0 {
		config.Watch.Paths = append([]string(nil), DefaultStylePaths...)
	}
	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = DefaultDebounce
	}
	if !viper.IsSet("watch.enabled") {
		config.Watch.Enabled = true
	}

	if config.Log.Level == "" {
		config.Log.Level = DefaultLogLevel
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if config.Manager.Capacity < 0 {
		return fmt.Errorf("manager config: capacity %d must be positive", config.Manager.Capacity)
	}

	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateWatchConfig(&config.Watch); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	switch config.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log config: unknown format %q", config.Log.Format)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			return fmt.Errorf("host %q: %w", config.Host, err)
		}
	}

	return nil
}

// validateWatchConfig validates watch configuration values
func validateWatchConfig(config *WatchConfig) error {
	for _, path := range config.Paths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid style path '%s': %w", path, err)
		}
	}
	if config.Debounce < 0 {
		return fmt.Errorf("debounce %s must not be negative", config.Debounce)
	}
	return nil
}

// validatePath validates a file path for safety
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	// Reject dangerous characters
	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
