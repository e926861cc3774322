// Package version reports what build of habit is running.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Overridden at release time:
//
//	-ldflags "-X github.com/rnwolfe/habit/internal/version.Version=v1.2.0"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build description served by `habit version --json` and
// GET /healthz.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go"`
}

// Get returns the current build Info.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
}

// Full is the one-line form printed by `habit version`.
func Full() string {
	return fmt.Sprintf("%s (%s) %s", Version, Commit, Date)
}

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		backfill(info)
	}
}

// backfill fills in whatever ldflags left at its default so that
// `go install` builds still carry a module version and VCS stamp.
func backfill(info *debug.BuildInfo) {
	if info == nil {
		return
	}
	if Version == "dev" {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			Version = v
		}
	}
	for _, s := range info.Settings {
		if s.Value == "" {
			continue
		}
		switch {
		case s.Key == "vcs.revision" && Commit == "none":
			Commit = s.Value[:min(len(s.Value), 7)]
		case s.Key == "vcs.time" && Date == "unknown":
			Date = s.Value
		}
	}
}
