// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

// Package session is the user-facing facade of the Pipes client. User
// code calls [Init] once, reports materializations, checks, and log
// lines through the returned [Session], and closes it on the way out:
//
//	pipes, err := session.Init(session.Options{})
//	if err != nil {
//		return err
//	}
//	defer pipes.Close()
//
//	// ... do work ...
//	if err := pipes.ReportAssetMaterialization("", metadata, version); err != nil {
//		return err
//	}
//
// Close writes the terminating "closed" sentinel as the final line of
// the message stream; deferring it guarantees the sentinel on every
// exit path, including panics. [Run] packages the same guarantee for
// callers that prefer a scoped form.
//
// One session per process: Init while another session is open fails.
// A Session serializes its own methods, so misuse from multiple
// goroutines degrades to a predictable error rather than interleaved
// lines, but the protocol assumes a single caller.
package session
