// Package version holds the leash release version.
package version

// Version is the current leash version. It can be overridden at build time:
//
//	go build -ldflags "-X leash/pkg/version.Version=1.2.3" ./cmd/leash
var Version = "0.3.0"
