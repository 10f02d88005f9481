// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "fmt"

// AssetCheckSeverity is the severity attached to an asset check
// result. Pure data: the orchestrator decides what a failed check of
// each severity means for the run.
type AssetCheckSeverity string

const (
	// SeverityWarn marks a check whose failure should be surfaced but
	// does not invalidate the asset.
	SeverityWarn AssetCheckSeverity = "WARN"

	// SeverityError marks a check whose failure means the asset is
	// not usable.
	SeverityError AssetCheckSeverity = "ERROR"
)

// Validate checks that the severity is one of the protocol constants.
func (severity AssetCheckSeverity) Validate() error {
	switch severity {
	case SeverityWarn, SeverityError:
		return nil
	case "":
		return fmt.Errorf("wire: severity is required")
	default:
		return fmt.Errorf("wire: unsupported severity %q", severity)
	}
}

// LogLevel is the level of a forwarded log line.
type LogLevel string

const (
	LevelDebug    LogLevel = "debug"
	LevelInfo     LogLevel = "info"
	LevelWarning  LogLevel = "warning"
	LevelError    LogLevel = "error"
	LevelCritical LogLevel = "critical"
)

// Validate checks that the level is one of the protocol constants.
func (level LogLevel) Validate() error {
	switch level {
	case LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical:
		return nil
	case "":
		return fmt.Errorf("wire: log level is required")
	default:
		return fmt.Errorf("wire: unsupported log level %q", level)
	}
}
