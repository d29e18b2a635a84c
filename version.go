/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgate

import (
	"fmt"
	"runtime"
)

// Build metadata. GitCommit and BuildDate are set with -ldflags -X.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// GetVersionInfo returns the metadata of the running build.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
	}
}

// String renders a one-line summary, e.g. "recordgate 0.1.0 (abc123, go1.24.0)".
func (v VersionInfo) String() string {
	return fmt.Sprintf("recordgate %s (%s, %s)", v.Version, v.GitCommit, v.GoVersion)
}
