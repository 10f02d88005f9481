// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package runcontext

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/pipes-foundation/pipes/lib/params"
)

// Context-params keys. Protocol constants: the orchestrator writes
// exactly one of them.
const (
	// inlineKey holds the full context object directly in the params.
	inlineKey = "context"

	// pathKey holds a filesystem path to a JSON context file.
	pathKey = "path"
)

// DecodeError represents a failure to build a Context from context
// params: an unrecognized params shape, an unreadable context file,
// malformed JSON, or missing required fields. Construction is
// all-or-nothing: on error no Context value exists.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("pipes context: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Loader builds a run Context from decoded context params. The
// default is [DefaultLoader]; alternative sources implement this
// interface and are injected at session init.
type Loader interface {
	LoadContext(parameters params.Params) (*Context, error)
}

// DefaultLoader resolves the two protocol context-params shapes:
// inline context under "context", or a JSON file named by "path".
// The zero value is ready to use.
type DefaultLoader struct{}

// LoadContext builds and validates a Context. No retries: a read
// failure is terminal for the call.
func (DefaultLoader) LoadContext(parameters params.Params) (*Context, error) {
	raw, err := contextBytes(parameters)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	// Strip JSONC comments and trailing commas before parsing. The
	// orchestrator writes plain JSON, which passes through unchanged;
	// hand-authored context files may use the extended form.
	var context Context
	if err := json.Unmarshal(jsonc.ToJSON(raw), &context); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("parsing context JSON: %w", err)}
	}
	if err := context.Validate(); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &context, nil
}

// contextBytes extracts the raw context JSON from the params, per the
// shape present.
func contextBytes(parameters params.Params) ([]byte, error) {
	if inline, ok := parameters[inlineKey]; ok {
		// The inline value was decoded from the params blob into
		// generic JSON types; re-encode it so both shapes funnel
		// through the same strict struct decode.
		raw, err := json.Marshal(inline)
		if err != nil {
			return nil, fmt.Errorf("re-encoding inline context: %w", err)
		}
		return raw, nil
	}

	if pathValue, ok := parameters[pathKey]; ok {
		path, ok := pathValue.(string)
		if !ok {
			return nil, fmt.Errorf("context params %q value is %T, want string", pathKey, pathValue)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading context file: %w", err)
		}
		return raw, nil
	}

	return nil, fmt.Errorf("context params contain neither %q nor %q", inlineKey, pathKey)
}
