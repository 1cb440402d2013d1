// Package version reports build information for the stylesync binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string    `json:"version" yaml:"version"`
	GitCommit string    `json:"git_commit" yaml:"git_commit"`
	BuildTime time.Time `json:"build_time" yaml:"build_time"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	Platform  string    `json:"platform" yaml:"platform"`
	Dirty     bool      `json:"dirty" yaml:"dirty"`
}

// These variables are set at build time using -ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	// BuildTime is RFC3339.
	BuildTime = "unknown"
)

// Get returns the build information of the running binary.
func Get() *BuildInfo {
	info := &BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: parseBuildTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" {
				info.GitCommit = setting.Value
			}
		case "vcs.time":
			if info.BuildTime.IsZero() {
				info.BuildTime = parseBuildTime(setting.Value)
			}
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}
	return info
}

// Short returns "<version> (<commit>)", or the version alone when the
// commit is unknown.
func (b *BuildInfo) Short() string {
	if b.GitCommit == "unknown" || len(b.GitCommit) < 7 {
		return b.Version
	}
	if b.Version == "dev" {
		return "dev-" + b.GitCommit[:7]
	}
	return fmt.Sprintf("%s (%s)", b.Version, b.GitCommit[:7])
}

// Detailed returns one "Key: value" line per known field.
func (b *BuildInfo) Detailed() string {
	parts := []string{"Version: " + b.Version}
	if b.GitCommit != "unknown" {
		commit := b.GitCommit
		if b.Dirty {
			commit += " (dirty)"
		}
		parts = append(parts, "Commit: "+commit)
	}
	if !b.BuildTime.IsZero() {
		parts = append(parts, "Built: "+b.BuildTime.UTC().Format(time.RFC3339))
	}
	parts = append(parts, "Go: "+b.GoVersion, "Platform: "+b.Platform)
	return strings.Join(parts, "\n")
}

// IsRelease reports whether the version is a tagged release.
func (b *BuildInfo) IsRelease() bool {
	return b.Version != "dev" && !strings.HasPrefix(b.Version, "dev-") && !b.Dirty
}

// parseBuildTime returns the zero time for values it cannot parse.
func parseBuildTime(value string) time.Time {
	if value == "" || value == "unknown" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
