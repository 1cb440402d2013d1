// Package cmd provides the command-line interface for stylesync with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. STYLESYNC_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (STYLESYNC_SERVER_PORT, etc.)
//	4. Configuration files (.stylesync.yml) - lowest priority
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/stylesync/internal/config"
	"github.com/conneroisu/stylesync/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stylesync",
	Short: "Compile nested style trees into atomic, tiered CSS rules",
	Long: `Stylesync compiles nested style trees written as YAML into content-addressed
atomic CSS rules, bucketed into low, medium and high precedence tiers, and
writes them into style containers with reference counting and batching.

Key Features:
  • Deterministic class names from rule content
  • Shorthand/longhand ordering through precedence tiers
  • Server-rendered containers that are adopted without rewrites
  • Live preview following style file edits over WebSocket

Quick Start:
  stylesync compile               Compile ./styles to CSS
  stylesync inspect               Show the compiled rules as a tree
  stylesync serve                 Start the live preview server
  stylesync doctor                Check configuration and style files`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .stylesync.yml, can also use STYLESYNC_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. STYLESYNC_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .stylesync.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("STYLESYNC_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".stylesync")
	}

	// STYLESYNC_SERVER_PORT, STYLESYNC_WATCH_PATHS, ...
	viper.SetEnvPrefix("STYLESYNC")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or malformed file falls back to defaults; doctor reports it.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads the configuration and records the style file arguments.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.StyleFiles = args
	return cfg, nil
}

// newLogger builds the CLI logger from the log section of cfg.
func newLogger(cfg *config.Config) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    os.Stderr,
		Component: "cli",
	})
}
