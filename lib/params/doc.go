// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

// Package params locates and decodes the two opaque parameter blobs a
// Pipes orchestrator injects into the environment of a process it
// launches: the context params (where to find run metadata) and the
// messages params (where to write status messages).
//
// The blob encoding is fixed per protocol version: a JSON object,
// zlib-compressed, then base64-encoded. [Encode] and [Decode] are
// exact inverses; the orchestrator side uses Encode (see lib/harness)
// and the launched process uses Decode via a [Loader].
//
// [EnvLoader] is the default Loader, reading the fixed PIPES_CONTEXT
// and PIPES_MESSAGES environment variables. Alternative transports
// implement Loader and are injected at session init.
package params
