package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/stylesync/internal/target"
)

var renderCmd = &cobra.Command{
	Use:     "render [paths...]",
	Aliases: []string{"r"},
	Short:   "Render style containers into an HTML document",
	Long: `Render the compiled rules as <style> containers in the <head> of an HTML
document. With --template, containers already present in the page are
adopted: rules they hold are not written again and new rules are packed
into them. With --fragment, only the server-rendered containers are written,
one per tier, ready to be embedded in a page and adopted later.

Examples:
  stylesync render                                 # Empty page with the styles
  stylesync render --template index.html -o out.html
  stylesync render --fragment > styles.html`,
	RunE: runRender,
}

var (
	renderFlags    *StandardFlags
	renderTemplate string
	renderFragment bool
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderFlags = AddOutputFlags(renderCmd, "html")
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "HTML page to render into")
	renderCmd.Flags().BoolVar(&renderFragment, "fragment", false, "Write only the server-rendered containers")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := context.Background()

	doc, err := openDocument(renderTemplate)
	if err != nil {
		return err
	}
	session, err := newStyleSession(ctx, cfg, doc, logger)
	if err != nil {
		return err
	}
	if err := session.load(ctx, true); err != nil {
		return err
	}

	w, closeOutput, err := openOutput(cmd, renderFlags.Output)
	if err != nil {
		return err
	}
	defer closeOutput()

	if renderFragment {
		return target.Styles(session.registry.Results()...).Render(ctx, w)
	}
	return doc.Render(w)
}

// openDocument parses the page at path, or returns an empty document.
func openDocument(path string) (*target.Document, error) {
	if path == "" {
		return target.NewDocument(), nil
	}
	if err := validateArgument(path); err != nil {
		return nil, fmt.Errorf("invalid template path: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer f.Close()

	doc, err := target.ParseDocument(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	return doc, nil
}
