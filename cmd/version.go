package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/stylesync/internal/version"
)

var (
	versionFormat   string
	versionShort    bool
	versionDetailed bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for stylesync including the version, git
commit, build time, Go version and target platform.

Examples:
  stylesync version              # Show version
  stylesync version --detailed   # Show detailed version info
  stylesync version --format json # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "Show detailed version information")
	AddFlagValidation(versionCmd, "format", ValidateFormat("text", "json"))
}

func runVersionCommand(cmd *cobra.Command, _ []string) error {
	info := version.Get()
	w := cmd.OutOrStdout()

	if versionFormat == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			*version.BuildInfo
			IsRelease bool `json:"is_release"`
		}{info, info.IsRelease()})
	}

	switch {
	case versionShort:
		fmt.Fprintln(w, info.Short())
	case versionDetailed:
		fmt.Fprintln(w, info.Detailed())
		if info.IsRelease() {
			fmt.Fprintln(w, "Build type: release")
		} else {
			fmt.Fprintln(w, "Build type: development")
		}
	default:
		fmt.Fprintf(w, "stylesync %s\n", info.Short())
	}
	return nil
}
