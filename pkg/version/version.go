// Package version exposes build metadata for balena-sd.
package version

// Set via -ldflags "-X github.com/carverauto/balena-sd/pkg/version.version=..."
//
//nolint:gochecknoglobals // These are intentionally global for ldflags injection
var (
	version = "dev"
	buildID = "dev"
)

// GetVersion returns the current version
func GetVersion() string {
	return version
}

// GetBuildID returns the current build ID
func GetBuildID() string {
	return buildID
}

// GetFullVersion returns version with build ID
func GetFullVersion() string {
	return version + " (build: " + buildID + ")"
}

// UserAgent is the default User-Agent sent to the fleet API.
func UserAgent() string {
	return "balena-sd/" + version
}
