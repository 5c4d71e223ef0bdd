// Package version reports build information for the health endpoint and startup log.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set via -ldflags at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Info contains version and build information
type Info struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified"`
}

// Get returns the current version and build information
func Get() Info {
	info := Info{Version: Version, BuildTime: BuildTime}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = buildInfo.GoVersion
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Revision = setting.Value
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}
	return info
}

// Short returns the version, with the abbreviated revision for development builds
func (i Info) Short() string {
	if i.Version != "dev" || i.Revision == "" {
		return i.Version
	}
	rev := i.Revision
	if len(rev) > 8 {
		rev = rev[:8]
	}
	if i.Modified {
		rev += "+dirty"
	}
	return "dev-" + rev
}

// String returns a human-readable version line
func (i Info) String() string {
	s := fmt.Sprintf("ridership %s (%s)", i.Short(), i.GoVersion)
	if i.BuildTime != "unknown" {
		s += ", built " + i.BuildTime
	}
	return s
}
