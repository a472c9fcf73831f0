// Package version reports the gcu build and the YANG models it validates
// against.
package version

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Set with -ldflags "-X github.com/rzbill/gcu/pkg/version.Version=...".
var (
	Version   = "dev"
	BuildTime = "unknown"
	Commit    = "unknown"
)

// Info returns the one-line build description.
func Info() string {
	commitID := Commit
	if len(commitID) > 8 {
		commitID = commitID[:8]
	}
	return fmt.Sprintf("gcu %s (%s) - %s %s/%s", Version, commitID, BuildTime, runtime.GOOS, runtime.GOARCH)
}

// Map returns the build description as a map.
func Map() map[string]string {
	return map[string]string{
		"version":   Version,
		"commit":    Commit,
		"buildTime": BuildTime,
		"goVersion": runtime.Version(),
		"os":        runtime.GOOS,
		"arch":      runtime.GOARCH,
	}
}

// Models lists YANG modules by name with their revision date, one per line.
// A module without a revision statement shows "-".
func Models(dir string, revisions map[string]string) string {
	names := make([]string, 0, len(revisions))
	width := 0
	for name := range revisions {
		names = append(names, name)
		if len(name) > width {
			width = len(name)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "YANG models (%s):\n", dir)
	for _, name := range names {
		rev := revisions[name]
		if rev == "" {
			rev = "-"
		}
		fmt.Fprintf(&b, "  %-*s  %s\n", width, name, rev)
	}
	return b.String()
}
