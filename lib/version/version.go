// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build and protocol version information for
// pipes binaries.
//
// Build information is injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/pipes-foundation/pipes/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
)

// ProtocolVersion is the Pipes wire protocol version this module
// implements. The parameter encoding, environment variable names, and
// message methods are all fixed per protocol version.
const ProtocolVersion = "0.1"

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Info returns a formatted version string suitable for --version output.
func Info() string {
	return fmt.Sprintf("%s (protocol %s, %s, %s)", Version, ProtocolVersion, GitCommit, BuildTime)
}

// Print writes the --version output for the named binary.
func Print(binary string) {
	fmt.Printf("%s %s\n  Go: %s\n  Platform: %s/%s\n",
		binary, Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
