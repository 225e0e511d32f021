package version

// Version is the service current released version.
// This value can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/procura-labs/procura/internal/version.Version=v0.3.0"
//
// Semantic versioning: https://semver.org/
var Version = "0.0.0-dev"

// DevVersion is the service current development version.
var DevVersion = Version

// GitCommit is the git commit hash at build time.
// Set via ldflags: -X github.com/procura-labs/procura/internal/version.GitCommit=$(git rev-parse HEAD)
var GitCommit = "unknown"

// BuildTime is the build timestamp in RFC3339 format.
// Set via ldflags: -X github.com/procura-labs/procura/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)
var BuildTime = "unknown"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}
