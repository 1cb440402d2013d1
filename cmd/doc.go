// Package cmd provides the command-line interface for stylesync.
//
// This package implements the CLI commands using the Cobra framework. Every
// command loads style files (YAML style trees) from the configured paths or
// from its arguments, mounts them as consumers, and writes their rules
// through the style manager into a render target.
//
// # Available Commands
//
//   - compile: Compile style files to a stylesheet or a rule listing
//   - inspect: Show the compiled rules of each consumer as a tree
//   - render: Render the style containers into an HTML document
//   - serve: Serve a live preview that follows style file edits
//   - doctor: Check configuration and style files
//   - version: Show build information
//
// # Command Examples
//
//	// Compile every style file under ./styles
//	stylesync compile -o dist/styles.css
//
//	// Show the rules of one file and the origin of a rule
//	stylesync inspect styles/button.yml --id h1x2k9a
//
//	// Render into an existing page, adopting its server-rendered containers
//	stylesync render --template index.html -o dist/index.html
//
//	// Serve a live preview
//	stylesync serve --port 3000
//
// # Configuration
//
// Commands read .stylesync.yml (or the file named by --config or
// STYLESYNC_CONFIG_FILE) and STYLESYNC_<SECTION>_<OPTION> environment
// variables through Viper. Flags take precedence over both.
package cmd
