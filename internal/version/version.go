package version

import "fmt"

// Version and Commit identify the cp build.
// They can be overridden at build time with ldflags:
//
//	go build -ldflags "-X github.com/spluca/filecopy/internal/version.Version=1.0.0 -X github.com/spluca/filecopy/internal/version.Commit=abc123" ./cmd/cp
var (
	Version = "0.1.0"
	Commit  = "unknown"
)

// String formats the version for --version output.
func String() string {
	return fmt.Sprintf("%s (commit %s)", Version, Commit)
}
