// Package version holds build metadata for the pivotlog binary, injected
// via ldflags by the release build:
//
//	go build -ldflags "-X .../internal/version.Version=v1.2.0 \
//	  -X .../internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String returns the one-line form used in startup logs,
// e.g. "pivotlog v1.2.0 (a1b2c3d)".
func String() string {
	return fmt.Sprintf("pivotlog %s (%s)", Version, Commit)
}
