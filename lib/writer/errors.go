// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package writer

import "fmt"

// OpenError represents a failure to open a message channel: the
// messages params name no supported sink, or the target cannot be
// created or opened for writing.
type OpenError struct {
	// Target describes the sink that failed to open (a path or stream
	// name). Empty when the params named no sink at all.
	Target string
	// Err is the underlying failure.
	Err error
}

func (e *OpenError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("pipes channel: %v", e.Err)
	}
	return fmt.Sprintf("pipes channel %s: %v", e.Target, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// WriteError represents an I/O failure while writing a message to an
// open channel (disk full, sink path removed, closed stream), or
// while a buffering channel publishes its content on Close. The
// write that failed was not durably recorded; earlier writes were.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("pipes write: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
