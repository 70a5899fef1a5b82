// Package version reports the build identity of the hookpress binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/hookpress/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/hookpress/internal/version.Commit=abc123
//	  -X github.com/soyeahso/hookpress/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// BuildInfo is the machine-readable form of Info.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the build identity. When no version was set at link time it
// falls back to the module version and VCS revision recorded by the Go
// toolchain, if any.
func Get() BuildInfo {
	bi := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if Version != "dev" {
		return bi
	}
	info, ok := readBuildInfo()
	if !ok {
		return bi
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		bi.Version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if bi.Commit == "unknown" {
				bi.Commit = s.Value
			}
		case "vcs.time":
			if bi.Date == "unknown" {
				bi.Date = s.Value
			}
		}
	}
	return bi
}

// Info returns a formatted version string.
func Info() string {
	bi := Get()
	return fmt.Sprintf("hookpress %s (commit: %s, built: %s, %s)",
		bi.Version, short(bi.Commit), bi.Date, bi.Platform)
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
