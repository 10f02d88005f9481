// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package params

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Params is an opaque mapping decoded from a parameter blob. Callers
// must treat a Params value as immutable once decoded: the loaders
// hand out the decoded map directly, without defensive copies.
type Params map[string]any

// Encode serializes a Params mapping into its blob form: JSON object,
// zlib-compressed, base64-encoded. Inverse of [Decode].
func Encode(parameters Params) (string, error) {
	encoded, err := json.Marshal(parameters)
	if err != nil {
		return "", fmt.Errorf("encoding params to JSON: %w", err)
	}

	var compressed bytes.Buffer
	compressor := zlib.NewWriter(&compressed)
	if _, err := compressor.Write(encoded); err != nil {
		return "", fmt.Errorf("compressing params: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return "", fmt.Errorf("compressing params: %w", err)
	}

	return base64.StdEncoding.EncodeToString(compressed.Bytes()), nil
}

// Decode parses a parameter blob back into a Params mapping. The blob
// must be base64, the decoded bytes a valid zlib stream, and the
// inflated bytes a JSON object. Any other input is an error.
func Decode(blob string) (Params, error) {
	compressed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding params base64: %w", err)
	}

	decompressor, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("opening params zlib stream: %w", err)
	}
	inflated, err := io.ReadAll(decompressor)
	if err != nil {
		return nil, fmt.Errorf("decompressing params: %w", err)
	}
	if err := decompressor.Close(); err != nil {
		return nil, fmt.Errorf("decompressing params: %w", err)
	}

	var parameters Params
	if err := json.Unmarshal(inflated, &parameters); err != nil {
		return nil, fmt.Errorf("parsing params JSON object: %w", err)
	}
	// Unmarshal leaves the map nil for a JSON null, without error.
	if parameters == nil {
		return nil, fmt.Errorf("params JSON is null, want an object")
	}
	return parameters, nil
}
