// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package params

import (
	"errors"
	"fmt"
	"os"
)

// Environment variable names, fixed per protocol version. The
// orchestrator sets both before spawning the launched process.
const (
	// EnvContext carries the encoded context params.
	EnvContext = "PIPES_CONTEXT"

	// EnvMessages carries the encoded messages params.
	EnvMessages = "PIPES_MESSAGES"
)

// Error represents a failure to locate or decode a parameter blob.
// Callers can use errors.As to extract the source:
//
//	var paramsErr *params.Error
//	if errors.As(err, &paramsErr) { ... paramsErr.Source ... }
type Error struct {
	// Source names where the blob was looked for (for the default
	// loader, the environment variable name).
	Source string
	// Err is the underlying failure.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipes params %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// errNotSet is the underlying error for a missing parameter source.
var errNotSet = errors.New("not set")

// Loader locates and decodes the bootstrap parameter blobs. The
// default is [EnvLoader]; alternative transports implement this
// interface and are injected at session init.
type Loader interface {
	// IsActive reports whether the environment indicates this process
	// was launched under the Pipes protocol. When false, the Load
	// methods will fail.
	IsActive() bool

	// LoadContextParams decodes the context params blob.
	LoadContextParams() (Params, error)

	// LoadMessagesParams decodes the messages params blob.
	LoadMessagesParams() (Params, error)
}

// EnvLoader reads parameter blobs from the fixed PIPES_CONTEXT and
// PIPES_MESSAGES environment variables. The zero value is ready to
// use.
type EnvLoader struct{}

// IsActive reports whether both protocol environment variables are
// set (non-empty).
func (EnvLoader) IsActive() bool {
	return os.Getenv(EnvContext) != "" && os.Getenv(EnvMessages) != ""
}

// LoadContextParams decodes the PIPES_CONTEXT blob.
func (EnvLoader) LoadContextParams() (Params, error) {
	return loadVariable(EnvContext)
}

// LoadMessagesParams decodes the PIPES_MESSAGES blob.
func (EnvLoader) LoadMessagesParams() (Params, error) {
	return loadVariable(EnvMessages)
}

func loadVariable(name string) (Params, error) {
	blob := os.Getenv(name)
	if blob == "" {
		return nil, &Error{Source: name, Err: errNotSet}
	}
	parameters, err := Decode(blob)
	if err != nil {
		return nil, &Error{Source: name, Err: err}
	}
	return parameters, nil
}
