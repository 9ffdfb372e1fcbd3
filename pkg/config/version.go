// Package config holds build-time version information.
package config

import "fmt"

// Build information, set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildInfo bundles the build metadata for structured output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// GetBuildInfo returns the build metadata.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}
}

// VersionString returns a human-readable version line.
func VersionString() string {
	return fmt.Sprintf("pulseboard %s (commit %s, built %s)", Version, Commit, BuildTime)
}
