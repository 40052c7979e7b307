// Package version holds build metadata injected with -ldflags.
package version

import "fmt"

var (
	// Version is the release tag.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String formats the build metadata for --version and the startup log.
func String() string {
	return fmt.Sprintf("swing.report %s (%s, built %s)", Version, GitSHA, BuildTime)
}
