// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataversion derives data version strings for asset
// materializations. A data version is an opaque fingerprint of an
// asset's content: two materializations with equal versions produced
// equal data, so the orchestrator can skip downstream recomputation.
//
// Versions are 32-byte BLAKE3 keyed hashes, hex-encoded. The fixed
// domain key separates pipes data versions from any other BLAKE3 use
// of the same bytes. Changing the key invalidates all previously
// recorded versions.
package dataversion
