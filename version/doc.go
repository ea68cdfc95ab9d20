// Package version reports the build version of the collector binary.
//
// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/collector/version.Version=1.0.0" ./cmd/collector
//
// Fields left empty are filled from the module build info when available.
package version
