// Package misc provides build identity used across the program.
package misc

import (
	"runtime/debug"
	"sync"
)

const appName = "ccb"

var buildInfo = sync.OnceValue(func() *debug.BuildInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return &debug.BuildInfo{}
	}
	return bi
})

// GetAppName returns the short program name used for log files, temporary
// directories and the CLI itself.
func GetAppName() string {
	return appName
}

// GetVersion returns the module version recorded in the binary.
func GetVersion() string {
	if v := buildInfo().Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return "development"
}

// GetGitHash returns the vcs revision recorded in the binary.
func GetGitHash() string {
	for _, s := range buildInfo().Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return "unknown"
}
