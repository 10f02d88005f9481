// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/json"
	"fmt"
)

// Method identifies the kind of a protocol message.
type Method string

const (
	// MethodReportAssetMaterialization reports that a named data
	// asset was produced or updated.
	MethodReportAssetMaterialization Method = "report_asset_materialization"

	// MethodReportAssetCheck reports the pass/fail result of a named
	// validation against an asset.
	MethodReportAssetCheck Method = "report_asset_check"

	// MethodLog forwards a log line to the orchestrator.
	MethodLog Method = "log"

	// MethodClosed is the terminating sentinel. It is written exactly
	// once, as the final line of the stream. An orchestrator that
	// sees it knows the stream is complete rather than truncated.
	MethodClosed Method = "closed"
)

// Validate checks that the method is one of the protocol constants.
func (method Method) Validate() error {
	switch method {
	case MethodReportAssetMaterialization, MethodReportAssetCheck,
		MethodLog, MethodClosed:
		return nil
	case "":
		return fmt.Errorf("wire: method is required")
	default:
		return fmt.Errorf("wire: unsupported method %q", method)
	}
}

// Message is a single protocol event. It serializes as one compact
// JSON object, written on its own line on the message channel.
type Message struct {
	// Method is the message kind.
	Method Method `json:"method"`

	// Params is the method-specific payload. Always non-nil so the
	// wire form is {} rather than null for parameterless methods.
	Params map[string]any `json:"params"`
}

// Payload keys. Like the methods, these are protocol constants.
const (
	paramAssetKey    = "asset_key"
	paramMetadata    = "metadata"
	paramDataVersion = "data_version"
	paramCheckName   = "check_name"
	paramPassed      = "passed"
	paramSeverity    = "severity"
	paramLevel       = "level"
	paramMessage     = "message"
)

// NewMaterialization builds a report_asset_materialization message.
// dataVersion is omitted from the payload when empty. metadata may be
// nil; the key is always present so readers see a stable shape.
func NewMaterialization(assetKey string, metadata map[string]any, dataVersion string) Message {
	payload := map[string]any{
		paramAssetKey: assetKey,
		paramMetadata: metadataOrEmpty(metadata),
	}
	if dataVersion != "" {
		payload[paramDataVersion] = dataVersion
	}
	return Message{Method: MethodReportAssetMaterialization, Params: payload}
}

// NewAssetCheck builds a report_asset_check message.
func NewAssetCheck(checkName, assetKey string, passed bool, severity AssetCheckSeverity, metadata map[string]any) Message {
	return Message{
		Method: MethodReportAssetCheck,
		Params: map[string]any{
			paramCheckName: checkName,
			paramAssetKey:  assetKey,
			paramPassed:    passed,
			paramSeverity:  string(severity),
			paramMetadata:  metadataOrEmpty(metadata),
		},
	}
}

// NewLog builds a log message.
func NewLog(level LogLevel, text string) Message {
	return Message{
		Method: MethodLog,
		Params: map[string]any{
			paramLevel:   string(level),
			paramMessage: text,
		},
	}
}

// NewClosed builds the terminating sentinel message.
func NewClosed() Message {
	return Message{Method: MethodClosed, Params: map[string]any{}}
}

// ParseLine decodes one line of the message stream. The line must be
// a single JSON object with a recognized method. Used by the
// orchestrator-side reader; the client never parses messages.
func ParseLine(line []byte) (Message, error) {
	var message Message
	if err := json.Unmarshal(line, &message); err != nil {
		return Message{}, fmt.Errorf("parsing message line: %w", err)
	}
	if err := message.Method.Validate(); err != nil {
		return Message{}, err
	}
	if message.Params == nil {
		message.Params = map[string]any{}
	}
	return message, nil
}

// metadataOrEmpty normalizes nil metadata to an empty map so the
// serialized payload carries {} instead of null.
func metadataOrEmpty(metadata map[string]any) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	return metadata
}
