// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

// Package harness is the orchestrator half of the Pipes protocol: it
// prepares the environment for a launched process and reads back the
// message stream the process writes.
//
// [Prepare] writes the context file, encodes both parameter blobs,
// and returns the environment entries to inject into the child.
// [Tail] follows the messages file while the child runs, decoding
// each complete line into a wire message; [ReadMessages] decodes a
// finished file in one shot.
//
// cmd/pipes-run composes these into a launcher; tests use them to
// drive full protocol round trips without a real orchestrator.
package harness
