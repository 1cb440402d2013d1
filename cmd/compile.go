package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/stylesync/internal/target"
)

var compileCmd = &cobra.Command{
	Use:     "compile [paths...]",
	Aliases: []string{"c"},
	Short:   "Compile style files into CSS",
	Long: `Compile style files into atomic CSS rules.

Each YAML file becomes a consumer named after the file. Rules are written
through the style manager, so the stylesheet is ordered by precedence tier
and every rule appears once however many consumers use it.

Examples:
  stylesync compile                        # Compile the configured style paths
  stylesync compile styles/button.yml      # Compile one file
  stylesync compile -o dist/styles.css     # Write to a file
  stylesync compile -f json                # List consumers, classes and rules`,
	RunE: runCompile,
}

var compileFlags *StandardFlags

func init() {
	rootCmd.AddCommand(compileCmd)

	compileFlags = AddOutputFlags(compileCmd, "css", "json", "yaml")
}

// compiledRule and compiledConsumer are the json/yaml listing shapes.
type compiledRule struct {
	ID   string `json:"id" yaml:"id"`
	Tier string `json:"tier" yaml:"tier"`
	Text string `json:"text" yaml:"text"`
}

type compiledConsumer struct {
	Name       string         `json:"name" yaml:"name"`
	File       string         `json:"file" yaml:"file"`
	ClassNames string         `json:"class_names" yaml:"class_names"`
	Rules      []compiledRule `json:"rules" yaml:"rules"`
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	memory := target.NewMemory()
	session, err := newStyleSession(ctx, cfg, memory, logger)
	if err != nil {
		return err
	}
	if err := session.load(ctx, true); err != nil {
		return err
	}

	w, closeOutput, err := openOutput(cmd, compileFlags.Output)
	if err != nil {
		return err
	}
	defer closeOutput()

	switch compileFlags.OutputFormat {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(session.listing())
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		err = encoder.Encode(session.listing())
		if closeErr := encoder.Close(); err == nil {
			err = closeErr
		}
	default:
		err = writeStylesheet(w, memory)
	}
	if err != nil {
		return err
	}

	if !compileFlags.Quiet && compileFlags.Output != "" {
		stats := session.manager.Stats()
		fmt.Fprintf(cmd.ErrOrStderr(), "Compiled %d consumers into %d rules (%s)\n",
			session.registry.Count(), stats.Rules, compileFlags.Output)
	}
	return nil
}

func (s *styleSession) listing() []compiledConsumer {
	consumers := s.registry.GetAll()
	out := make([]compiledConsumer, 0, len(consumers))
	for _, c := range consumers {
		entry := compiledConsumer{
			Name:       c.Name,
			File:       c.FilePath,
			ClassNames: c.Result.ClassNames,
		}
		for _, rule := range c.Rules() {
			entry.Rules = append(entry.Rules, compiledRule{
				ID:   rule.ID,
				Tier: rule.Tier.String(),
				Text: rule.Text,
			})
		}
		out = append(out, entry)
	}
	return out
}

// writeStylesheet writes one rule per line, containers in document order.
func writeStylesheet(w io.Writer, memory *target.Memory) error {
	for _, container := range memory.Containers() {
		segments := target.SplitSegments(container.Text)
		if len(segments) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "/* %s */\n%s\n", container.Tier, strings.Join(segments, "\n")); err != nil {
			return err
		}
	}
	return nil
}

// openOutput returns the command's stdout, or a created file when path is set.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	if err := validateArgument(path); err != nil {
		return nil, nil, fmt.Errorf("invalid output path: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
