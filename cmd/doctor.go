package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/conneroisu/stylesync/internal/config"
	"github.com/conneroisu/stylesync/internal/logging"
	"github.com/conneroisu/stylesync/internal/registry"
	"github.com/conneroisu/stylesync/internal/target"
	"github.com/conneroisu/stylesync/internal/version"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [paths...]",
	Short: "Check configuration and style files",
	Long: `Diagnose the stylesync setup of the current directory. The doctor command
checks:

- the configuration file, strictly (unknown or duplicate keys are errors)
- configuration values, with suggestions
- that the style paths exist and hold style files
- that every style file parses and compiles
- that the preview server port is free

Examples:
  stylesync doctor                    # Full diagnosis
  stylesync doctor --verbose          # Include check details
  stylesync doctor --format json      # Output as JSON for tooling`,
	RunE: runDoctor,
}

var (
	doctorVerbose bool
	doctorFormat  string
)

// DiagnosticResult represents the result of a diagnostic check
type DiagnosticResult struct {
	Name       string                 `json:"name" yaml:"name"`
	Category   string                 `json:"category" yaml:"category"`
	Status     string                 `json:"status" yaml:"status"` // "ok", "warning", "error", "info"
	Message    string                 `json:"message" yaml:"message"`
	Suggestion string                 `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
}

// DoctorReport represents the complete diagnostic report
type DoctorReport struct {
	Timestamp   time.Time          `json:"timestamp" yaml:"timestamp"`
	Environment map[string]string  `json:"environment" yaml:"environment"`
	Results     []DiagnosticResult `json:"results" yaml:"results"`
	Summary     ReportSummary      `json:"summary" yaml:"summary"`
}

// ReportSummary provides an overview of diagnostic results
type ReportSummary struct {
	Total    int `json:"total" yaml:"total"`
	OK       int `json:"ok" yaml:"ok"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Errors   int `json:"errors" yaml:"errors"`
	Info     int `json:"info" yaml:"info"`
}

// doctorRun carries what the checks share.
type doctorRun struct {
	args    []string
	cfg     *config.Config
	loadErr error
}

type doctorCheck func(ctx context.Context, run *doctorRun) DiagnosticResult

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVarP(&doctorVerbose, "verbose", "v", false, "Show verbose diagnostic information")
	doctorCmd.Flags().StringVarP(&doctorFormat, "format", "f", "table", "Output format (table|json|yaml)")
	AddFlagValidation(doctorCmd, "format", ValidateFormat("table", "json", "yaml"))
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	w := cmd.OutOrStdout()

	run := &doctorRun{args: args}
	run.cfg, run.loadErr = loadConfig(args)

	report := &DoctorReport{
		Timestamp:   time.Now(),
		Environment: gatherEnvironmentInfo(),
	}

	checks := []doctorCheck{
		checkConfigFile,
		checkConfigValues,
		checkStylePaths,
		checkStyleFiles,
		checkPortAvailability,
	}
	for _, check := range checks {
		report.Results = append(report.Results, check(ctx, run))
	}
	report.Summary = calculateSummary(report.Results)

	switch doctorFormat {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return err
		}
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	default:
		fmt.Fprintln(w, "stylesync doctor")
		fmt.Fprintln(w, "================")
		for _, result := range report.Results {
			if !doctorVerbose && result.Status == "info" {
				continue
			}
			displayResult(w, result)
		}
		displaySummary(w, report.Summary)
	}

	if report.Summary.Errors > 0 {
		return fmt.Errorf("doctor found %d errors", report.Summary.Errors)
	}
	return nil
}

func gatherEnvironmentInfo() map[string]string {
	env := map[string]string{
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"go_version": runtime.Version(),
		"version":    version.Get().Short(),
	}
	if wd, err := os.Getwd(); err == nil {
		env["working_dir"] = wd
	}
	return env
}

func checkConfigFile(_ context.Context, _ *doctorRun) DiagnosticResult {
	result := DiagnosticResult{
		Name:     "Configuration File",
		Category: "Configuration",
		Status:   "ok",
	}

	path := viper.ConfigFileUsed()
	if path == "" {
		path = ".stylesync.yml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		result.Status = "info"
		result.Message = "No configuration file found, defaults apply"
		result.Suggestion = "Create .stylesync.yml to change the style paths or the manager capacity"
		return result
	}

	if _, err := config.CheckFile(path); err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("%s is not valid: %v", path, err)
		result.Suggestion = "Remove unknown or duplicate keys; see 'stylesync doctor --verbose'"
		return result
	}

	result.Message = fmt.Sprintf("%s is valid", path)
	result.Details = map[string]interface{}{"path": path}
	return result
}

func checkConfigValues(_ context.Context, run *doctorRun) DiagnosticResult {
	result := DiagnosticResult{
		Name:     "Configuration Values",
		Category: "Configuration",
		Status:   "ok",
	}

	if run.loadErr != nil {
		result.Status = "error"
		result.Message = run.loadErr.Error()
		return result
	}

	validation := config.ValidateConfigWithDetails(run.cfg)
	result.Details = map[string]interface{}{
		"capacity":    run.cfg.Manager.Capacity,
		"style_paths": run.cfg.Watch.Paths,
		"server":      net.JoinHostPort(run.cfg.Server.Host, strconv.Itoa(run.cfg.Server.Port)),
		"debounce":    run.cfg.Watch.Debounce.String(),
	}
	switch {
	case validation.HasErrors():
		result.Status = "error"
		result.Message = fmt.Sprintf("%d invalid settings", len(validation.Errors))
		result.Suggestion = strings.TrimSpace(validation.String())
	case validation.HasWarnings():
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d settings need attention", len(validation.Warnings))
		result.Suggestion = strings.TrimSpace(validation.String())
	default:
		result.Message = "Configuration values are valid"
	}
	return result
}

func checkStylePaths(_ context.Context, run *doctorRun) DiagnosticResult {
	result := DiagnosticResult{
		Name:     "Style Paths",
		Category: "Styles",
		Status:   "ok",
	}
	if run.cfg == nil {
		result.Status = "info"
		result.Message = "Skipped, configuration did not load"
		return result
	}

	paths := run.args
	if len(paths) == 0 {
		paths = run.cfg.Watch.Paths
	}

	var missing []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		result.Status = "error"
		result.Message = fmt.Sprintf("Style paths do not exist: %s", strings.Join(missing, ", "))
		result.Suggestion = fmt.Sprintf("Create them with: mkdir -p %s", strings.Join(missing, " "))
		return result
	}

	files, err := registry.FindStyleFiles(paths...)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		return result
	}
	result.Details = map[string]interface{}{"files": files}
	if len(files) == 0 {
		result.Status = "warning"
		result.Message = "No style files (.yml, .yaml) found"
		result.Suggestion = "Add a style file such as styles/button.yml"
		return result
	}
	result.Message = fmt.Sprintf("%d style files found", len(files))
	return result
}

func checkStyleFiles(ctx context.Context, run *doctorRun) DiagnosticResult {
	result := DiagnosticResult{
		Name:     "Style Files",
		Category: "Styles",
		Status:   "ok",
	}
	if run.cfg == nil {
		result.Status = "info"
		result.Message = "Skipped, configuration did not load"
		return result
	}

	session, err := newStyleSession(ctx, run.cfg, target.NewMemory(), logging.Nop())
	if err == nil {
		err = session.load(ctx, false)
	}
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		return result
	}

	stats := session.manager.Stats()
	result.Details = map[string]interface{}{
		"consumers":  session.registry.Count(),
		"rules":      stats.Rules,
		"containers": stats.Containers,
		"collisions": session.cache.Collisions(),
	}

	if diagnostics := session.collector.Diagnostics(); len(diagnostics) > 0 {
		messages := make([]string, 0, len(diagnostics))
		for _, d := range diagnostics {
			messages = append(messages, d.Error())
		}
		result.Status = "error"
		result.Message = fmt.Sprintf("%d style files failed to load", len(diagnostics))
		result.Suggestion = strings.Join(messages, "\n   ")
		return result
	}
	if session.cache.Collisions() > 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d rule id collisions; colliding rules share a class", session.cache.Collisions())
		return result
	}
	result.Message = fmt.Sprintf("%d consumers compiled into %d rules", session.registry.Count(), stats.Rules)
	return result
}

func checkPortAvailability(_ context.Context, run *doctorRun) DiagnosticResult {
	result := DiagnosticResult{
		Name:     "Port Availability",
		Category: "Network",
		Status:   "ok",
	}
	if run.cfg == nil || run.cfg.Server.Port == 0 {
		result.Status = "info"
		result.Message = "No fixed preview port configured"
		return result
	}

	addr := net.JoinHostPort(run.cfg.Server.Host, strconv.Itoa(run.cfg.Server.Port))
	if !isPortAvailable(addr) {
		result.Status = "warning"
		result.Message = fmt.Sprintf("%s is in use", addr)
		result.Suggestion = "Use 'stylesync serve --port <port>' or set server.port"
		return result
	}
	result.Message = fmt.Sprintf("%s is available for 'stylesync serve'", addr)
	return result
}

func isPortAvailable(addr string) bool {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	_ = listener.Close()
	return true
}

func displayResult(w io.Writer, result DiagnosticResult) {
	var icon string
	switch result.Status {
	case "ok":
		icon = "✅"
	case "warning":
		icon = "⚠️"
	case "error":
		icon = "❌"
	case "info":
		icon = "ℹ️"
	default:
		icon = "•"
	}

	fmt.Fprintf(w, "%s [%s] %s: %s\n", icon, strings.ToUpper(result.Category), result.Name, result.Message)

	if result.Suggestion != "" {
		fmt.Fprintf(w, "   💡 %s\n", result.Suggestion)
	}

	if doctorVerbose && len(result.Details) > 0 {
		fmt.Fprintf(w, "   📋 Details: %+v\n", result.Details)
	}
}

func calculateSummary(results []DiagnosticResult) ReportSummary {
	summary := ReportSummary{
		Total: len(results),
	}

	for _, result := range results {
		switch result.Status {
		case "ok":
			summary.OK++
		case "warning":
			summary.Warnings++
		case "error":
			summary.Errors++
		case "info":
			summary.Info++
		}
	}

	return summary
}

func displaySummary(w io.Writer, summary ReportSummary) {
	fmt.Fprintf(w, "\nTotal Checks: %d\n", summary.Total)
	fmt.Fprintf(w, "✅ OK: %d\n", summary.OK)
	fmt.Fprintf(w, "⚠️  Warnings: %d\n", summary.Warnings)
	fmt.Fprintf(w, "❌ Errors: %d\n", summary.Errors)
	fmt.Fprintf(w, "ℹ️  Info: %d\n", summary.Info)
}
