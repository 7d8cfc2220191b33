// Package version provides build and version information for flowboard.
package version

// Version is the current release version of flowboard.
// This can be overridden at build time using:
//
//	go build -ldflags "-X flowboard/internal/version.Version=x.y.z"
var Version = "0.1.0"
