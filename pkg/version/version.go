// Package version exposes build metadata injected at link time.
package version

// Build metadata, set with -ldflags "-X github.com/rshade/youseo/pkg/version.version=...".
//
//nolint:gochecknoglobals // Link-time injection requires package variables.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// GetVersion returns the release version, or "dev" for local builds.
func GetVersion() string {
	return version
}

// GetGitCommit returns the commit the binary was built from.
func GetGitCommit() string {
	return gitCommit
}

// GetBuildDate returns the build timestamp.
func GetBuildDate() string {
	return buildDate
}
