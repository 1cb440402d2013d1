package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"

	"github.com/conneroisu/stylesync/internal/logging"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateConfigWithDetails performs validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateManagerConfigDetails(&config.Manager, result)
	validateServerConfigDetails(&config.Server, result)
	validateWatchConfigDetails(&config.Watch, result)
	validateLogConfigDetails(&config.Log, result)

	result.Valid = !result.HasErrors()
	return result
}

func validateManagerConfigDetails(config *ManagerConfig, result *ValidationResult) {
	switch {
	case config.Capacity < 0:
		result.Errors = append(result.Errors, ValidationError{
			Field:       "manager.capacity",
			Value:       config.Capacity,
			Message:     "capacity must be positive",
			Suggestions: []string{"Remove the setting to use the default of 8192"},
		})
	case config.Capacity > 0 && config.Capacity < 256:
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       "manager.capacity",
			Value:       config.Capacity,
			Message:     fmt.Sprintf("capacity %d starts a new container every few rules", config.Capacity),
			Suggestions: []string{"Use a capacity of a few kilobytes"},
		})
	}
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	if config.Port < 0 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			Suggestions: []string{
				"Use a port between 1024-65535 for non-privileged access",
			},
		})
	} else if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       "server.port",
			Value:       config.Port,
			Message:     fmt.Sprintf("port %d is privileged", config.Port),
			Suggestions: []string{"Use a port above 1024"},
		})
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:       "server.host",
				Value:       config.Host,
				Message:     err.Error(),
				Suggestions: []string{"Use localhost, an IP address or a hostname"},
			})
		}
	}

	for _, origin := range config.AllowedOrigins {
		if strings.TrimSpace(origin) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.allowed_origins",
				Value:   origin,
				Message: "empty origin",
			})
		}
	}
}

func validateWatchConfigDetails(config *WatchConfig, result *ValidationResult) {
	for _, path := range config.Paths {
		if err := validatePath(path); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "watch.paths",
				Value:   path,
				Message: err.Error(),
			})
			continue
		}
		if !pathExists(path) {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:       "watch.paths",
				Value:       path,
				Message:     fmt.Sprintf("style path %s does not exist", path),
				Suggestions: []string{fmt.Sprintf("Create it with: mkdir -p %s", path)},
			})
		}
	}

	if config.Debounce < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "watch.debounce",
			Value:   config.Debounce,
			Message: "debounce must not be negative",
		})
	}
}

func validateLogConfigDetails(config *LogConfig, result *ValidationResult) {
	if config.Level != "" {
		if _, err := logging.ParseLevel(config.Level); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:       "log.level",
				Value:       config.Level,
				Message:     err.Error(),
				Suggestions: []string{"Use one of debug, info, warn, error"},
			})
		}
	}
	switch config.Format {
	case "", "text", "json":
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.format",
			Value:       config.Format,
			Message:     fmt.Sprintf("unknown format %q", config.Format),
			Suggestions: []string{"Use text or json"},
		})
	}
}

// Helper validation functions

func validateHostname(host string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil {
		return nil
	}

	hostnameRegex := regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
