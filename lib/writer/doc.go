// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

// Package writer turns messages params into an open message channel
// and serializes protocol messages onto it.
//
// A [Channel] is an append-only sink owned by exactly one session.
// Writes are strictly sequential from a single writer; concurrent use
// of one channel must be serialized by the caller. The durable
// channels flush synchronously on every write so that a reader
// tailing the sink observes each message promptly, and a process
// killed mid-stream leaves a valid prefix of well-formed lines rather
// than a torn write.
//
// [DefaultWriter] selects the channel implementation from the
// messages params: an append-mode file ("path"), a file replaced
// atomically on close ("atomic_path"), or the process's own standard
// streams ("stdio", "buffered_stdio").
package writer
