package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/conneroisu/stylesync/internal/errors"
	"github.com/conneroisu/stylesync/internal/manager"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		setup         func()
		expectError   bool
		expectedPaths []string
	}{
		{
			name: "successful load with defaults",
			setup: func() {
				viper.Reset()
			},
			expectedPaths: DefaultStylePaths,
		},
		{
			name: "custom watch paths",
			setup: func() {
				viper.Reset()
				viper.Set("watch.paths", []string{"./ui", "./themes"})
			},
			expectedPaths: []string{"./ui", "./themes"},
		},
		{
			name: "watch paths from a comma separated env value",
			setup: func() {
				viper.Reset()
				viper.Set("watch.paths", "./ui,./themes")
			},
			expectedPaths: []string{"./ui", "./themes"},
		},
		{
			name: "invalid port type",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", "invalid_port")
			},
			expectError: true,
		},
		{
			name: "port out of range",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", 70000)
			},
			expectError: true,
		},
		{
			name: "unknown log level",
			setup: func() {
				viper.Reset()
				viper.Set("log.level", "loud")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer viper.Reset()

			config, err := Load()

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, config)
				assert.True(t, errors.Is(err, &serrors.StyleError{Type: serrors.ErrorTypeConfig, Code: serrors.ErrCodeConfigInvalid}))
				return
			}
			require.NoError(t, err)
			require.NotNil(t, config)
			assert.Equal(t, tt.expectedPaths, config.Watch.Paths)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, manager.DefaultCapacity, config.Manager.Capacity)
	assert.Equal(t, DefaultHost, config.Server.Host)
	assert.Equal(t, DefaultPort, config.Server.Port)
	assert.True(t, config.Watch.Enabled)
	assert.Equal(t, DefaultDebounce, config.Watch.Debounce)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
}

func TestConfigStructure(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("manager.capacity", 4096)
	viper.Set("server.port", 0)
	viper.Set("server.host", "127.0.0.1")
	viper.Set("server.allowed_origins", []string{"localhost:3000"})
	viper.Set("watch.enabled", false)
	viper.Set("watch.debounce", "50ms")
	viper.Set("log.level", "debug")
	viper.Set("log.format", "json")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4096, config.Manager.Capacity)
	assert.Equal(t, 0, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, []string{"localhost:3000"}, config.Server.AllowedOrigins)
	assert.False(t, config.Watch.Enabled)
	assert.Equal(t, 50*time.Millisecond, config.Watch.Debounce)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	path := filepath.Join(t.TempDir(), ".stylesync.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
manager:
  capacity: 2048
watch:
  paths: [./ui]
  debounce: 1s
`), 0o644))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2048, config.Manager.Capacity)
	assert.Equal(t, []string{"./ui"}, config.Watch.Paths)
	assert.Equal(t, time.Second, config.Watch.Debounce)
}

func TestValidateHostname(t *testing.T) {
	for _, host := range []string{"localhost", "127.0.0.1", "::1", "styles.example.com"} {
		assert.NoError(t, validateHostname(host), host)
	}
	for _, host := range []string{"bad;host", "$(whoami)", "-leading", "under_score"} {
		assert.Error(t, validateHostname(host), host)
	}
}

func TestValidateConfigWithDetails(t *testing.T) {
	dir := t.TempDir()
	config := &Config{
		Manager: ManagerConfig{Capacity: 100},
		Server:  ServerConfig{Port: 80, Host: "bad host"},
		Watch:   WatchConfig{Paths: []string{dir, filepath.Join(dir, "missing")}, Debounce: -1},
		Log:     LogConfig{Level: "loud", Format: "xml"},
	}

	result := ValidateConfigWithDetails(config)
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors())
	assert.True(t, result.HasWarnings())

	fields := map[string]bool{}
	for _, e := range result.Errors {
		fields[e.Field] = true
	}
	assert.Equal(t, map[string]bool{
		"server.host":    true,
		"watch.debounce": true,
		"log.level":      true,
		"log.format":     true,
	}, fields)

	warnings := map[string]bool{}
	for _, w := range result.Warnings {
		warnings[w.Field] = true
	}
	assert.True(t, warnings["manager.capacity"])
	assert.True(t, warnings["server.port"])
	assert.True(t, warnings["watch.paths"])

	assert.Contains(t, result.String(), "Validation errors:")
	assert.Contains(t, result.String(), "hint:")
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yml")
	require.NoError(t, os.WriteFile(good, []byte("manager:\n  capacity: 1024\nwatch:\n  debounce: 200ms\n"), 0o644))
	config, err := CheckFile(good)
	require.NoError(t, err)
	assert.Equal(t, 1024, config.Manager.Capacity)
	assert.Equal(t, 200*time.Millisecond, config.Watch.Debounce)

	unknown := filepath.Join(dir, "unknown.yml")
	require.NoError(t, os.WriteFile(unknown, []byte("manager:\n  capacty: 1024\n"), 0o644))
	_, err = CheckFile(unknown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacty")

	duplicate := filepath.Join(dir, "duplicate.yml")
	require.NoError(t, os.WriteFile(duplicate, []byte("log:\n  level: info\n  level: debug\n"), 0o644))
	_, err = CheckFile(duplicate)
	assert.Error(t, err)

	_, err = CheckFile(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}
