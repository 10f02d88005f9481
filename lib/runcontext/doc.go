// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

// Package runcontext defines the run metadata a Pipes orchestrator
// hands to a launched process, and the loader that materializes it
// from context params.
//
// A [Context] is built exactly once per session and is read-only
// after construction. The default [Loader] implementation supports
// the two context-params shapes of the protocol: the full context
// inlined under the "context" key, or a "path" key pointing at a JSON
// file written by the orchestrator. Context files may use JSONC (//
// comments, trailing commas) when hand-authored by an operator; the
// orchestrator always writes plain JSON.
package runcontext
