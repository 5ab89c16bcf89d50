// Package version holds build metadata set via -ldflags at release time.
package version

var (
	// GitRelease is the tagged release version, or "dev" for local builds.
	GitRelease = "dev"
	// GitCommit is the short commit hash the binary was built from.
	GitCommit = "unknown"
	// GitCommitDate is the commit timestamp, set at build time.
	GitCommitDate = "unknown"
	// GoInfo is the Go toolchain version used to build the binary.
	GoInfo = "unknown"
)
