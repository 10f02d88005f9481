// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package writer

import (
	"fmt"
	"os"

	"github.com/pipes-foundation/pipes/lib/params"
)

// Messages-params keys. Protocol constants; the orchestrator sets
// exactly one sink key.
const (
	// pathKey names a file opened in append mode.
	pathKey = "path"

	// atomicPathKey names a file replaced atomically on close.
	atomicPathKey = "atomic_path"

	// stdioKey selects a standard stream ("stdout" or "stderr")
	// written through directly.
	stdioKey = "stdio"

	// bufferedStdioKey selects a standard stream written in one block
	// on close.
	bufferedStdioKey = "buffered_stdio"

	stdoutStream = "stdout"
	stderrStream = "stderr"
)

// Writer interprets messages params and opens the channel they
// designate. The default is [DefaultWriter]; alternative transports
// implement this interface and are injected at session init.
type Writer interface {
	Open(parameters params.Params) (Channel, error)
}

// DefaultWriter resolves the protocol sink keys, in precedence order:
// "path", "atomic_path", "stdio", "buffered_stdio". The zero value is
// ready to use.
type DefaultWriter struct{}

// Open opens the channel designated by the messages params.
func (DefaultWriter) Open(parameters params.Params) (Channel, error) {
	if path, ok := parameters[pathKey].(string); ok {
		return OpenFileChannel(path)
	}
	if path, ok := parameters[atomicPathKey].(string); ok {
		return OpenAtomicFileChannel(path)
	}
	if stream, ok := parameters[stdioKey].(string); ok {
		sink, err := standardStream(stream)
		if err != nil {
			return nil, &OpenError{Target: stream, Err: err}
		}
		return NewStreamChannel(sink), nil
	}
	if stream, ok := parameters[bufferedStdioKey].(string); ok {
		sink, err := standardStream(stream)
		if err != nil {
			return nil, &OpenError{Target: stream, Err: err}
		}
		return NewBufferedStreamChannel(sink), nil
	}
	return nil, &OpenError{Err: fmt.Errorf(
		"messages params name no supported sink (want %q, %q, %q, or %q)",
		pathKey, atomicPathKey, stdioKey, bufferedStdioKey)}
}

func standardStream(name string) (*os.File, error) {
	switch name {
	case stdoutStream:
		return os.Stdout, nil
	case stderrStream:
		return os.Stderr, nil
	default:
		return nil, fmt.Errorf("unsupported stream %q (want %q or %q)", name, stdoutStream, stderrStream)
	}
}
