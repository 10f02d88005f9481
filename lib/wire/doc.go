// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the JSON message types exchanged between a
// Pipes-launched process and its orchestrator. Both the client-side
// session (lib/session) and the orchestrator-side harness (lib/harness)
// import this package so the wire types are defined once rather than
// mirrored.
//
// The wire format is one JSON object per line:
//
//	{"method": "report_asset_materialization", "params": {...}}
//
// Methods, payload keys, and enum values are protocol constants;
// changing them breaks compatibility with orchestrators reading the
// message stream.
package wire
