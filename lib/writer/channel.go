// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package writer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pipes-foundation/pipes/lib/wire"
)

// Channel is an open, append-only message sink. Exclusively owned by
// one session; a single writer issues strictly sequential writes.
type Channel interface {
	// WriteMessage serializes the message as one JSON line and, for
	// durable channels, flushes it before returning.
	WriteMessage(message wire.Message) error

	// Close releases the underlying handle. The session writes the
	// closed sentinel before calling this. Close is idempotent.
	Close() error
}

// newLineEncoder returns a json.Encoder configured for the wire
// format: one compact object per line, no HTML escaping.
func newLineEncoder(sink io.Writer) *json.Encoder {
	encoder := json.NewEncoder(sink)
	encoder.SetEscapeHTML(false)
	return encoder
}

// FileChannel appends messages to a file, syncing after every write
// so a reader tailing the file sees each message as soon as
// WriteMessage returns.
type FileChannel struct {
	file    *os.File
	encoder *json.Encoder
	closed  bool
}

// OpenFileChannel opens (creating if needed) path in append mode.
func OpenFileChannel(path string) (*FileChannel, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, &OpenError{Target: path, Err: err}
	}
	return &FileChannel{file: file, encoder: newLineEncoder(file)}, nil
}

// WriteMessage appends one JSON line and syncs the file. The sync
// cost is acceptable for status streams, which are low-throughput.
func (channel *FileChannel) WriteMessage(message wire.Message) error {
	if channel.closed {
		return &WriteError{Err: os.ErrClosed}
	}
	if err := channel.encoder.Encode(message); err != nil {
		return &WriteError{Err: fmt.Errorf("encoding message: %w", err)}
	}
	if err := channel.file.Sync(); err != nil {
		return &WriteError{Err: fmt.Errorf("syncing message file: %w", err)}
	}
	return nil
}

// Close closes the underlying file. Idempotent.
func (channel *FileChannel) Close() error {
	if channel.closed {
		return nil
	}
	channel.closed = true
	return channel.file.Close()
}

// AtomicFileChannel buffers all messages in memory and publishes them
// in one atomic step on Close: the buffer is written to a temporary
// file in the target directory, synced, and renamed over the target
// path. A reader never observes a partially written file, only the
// previous content or the complete stream. The trade-off is that a
// process killed before Close leaves nothing at the target.
type AtomicFileChannel struct {
	path    string
	buffer  bytes.Buffer
	encoder *json.Encoder
	closed  bool
}

// OpenAtomicFileChannel prepares an atomic-replace channel for path.
// The target's parent directory must already exist.
func OpenAtomicFileChannel(path string) (*AtomicFileChannel, error) {
	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return nil, &OpenError{Target: path, Err: err}
	}
	if !info.IsDir() {
		return nil, &OpenError{Target: path, Err: fmt.Errorf("parent %s is not a directory", filepath.Dir(path))}
	}
	channel := &AtomicFileChannel{path: path}
	channel.encoder = newLineEncoder(&channel.buffer)
	return channel, nil
}

// WriteMessage appends one JSON line to the in-memory buffer.
func (channel *AtomicFileChannel) WriteMessage(message wire.Message) error {
	if channel.closed {
		return &WriteError{Err: os.ErrClosed}
	}
	if err := channel.encoder.Encode(message); err != nil {
		return &WriteError{Err: fmt.Errorf("encoding message: %w", err)}
	}
	return nil
}

// Close writes the buffered stream to a temporary file next to the
// target and renames it into place. Idempotent.
func (channel *AtomicFileChannel) Close() error {
	if channel.closed {
		return nil
	}
	channel.closed = true

	directory := filepath.Dir(channel.path)
	temporary, err := os.CreateTemp(directory, "."+filepath.Base(channel.path)+".tmp-*")
	if err != nil {
		return &WriteError{Err: fmt.Errorf("creating temporary message file: %w", err)}
	}
	// Remove the temporary file on any failure path below.
	defer os.Remove(temporary.Name())

	if _, err := temporary.Write(channel.buffer.Bytes()); err != nil {
		temporary.Close()
		return &WriteError{Err: fmt.Errorf("writing message buffer: %w", err)}
	}
	if err := temporary.Sync(); err != nil {
		temporary.Close()
		return &WriteError{Err: fmt.Errorf("syncing message file: %w", err)}
	}
	if err := temporary.Chmod(0o644); err != nil {
		temporary.Close()
		return &WriteError{Err: fmt.Errorf("setting message file mode: %w", err)}
	}
	if err := temporary.Close(); err != nil {
		return &WriteError{Err: fmt.Errorf("closing message file: %w", err)}
	}
	if err := os.Rename(temporary.Name(), channel.path); err != nil {
		return &WriteError{Err: fmt.Errorf("publishing message file: %w", err)}
	}
	return nil
}

// StreamChannel writes messages to an io.Writer, typically the
// process's stdout or stderr when the orchestrator captures the
// standard streams instead of providing a file.
type StreamChannel struct {
	encoder *json.Encoder
}

// NewStreamChannel wraps sink in a message channel. The sink is not
// owned: Close does not close it (closing os.Stdout would affect the
// rest of the process).
func NewStreamChannel(sink io.Writer) *StreamChannel {
	return &StreamChannel{encoder: newLineEncoder(sink)}
}

// WriteMessage writes one JSON line to the stream.
func (channel *StreamChannel) WriteMessage(message wire.Message) error {
	if err := channel.encoder.Encode(message); err != nil {
		return &WriteError{Err: fmt.Errorf("encoding message: %w", err)}
	}
	return nil
}

// Close is a no-op; the underlying stream outlives the channel.
func (channel *StreamChannel) Close() error { return nil }

// BufferedStreamChannel accumulates messages in memory and writes
// them all to the stream on Close. Used when the orchestrator wants
// protocol messages separated from the interleaved output of the
// process itself: everything the process prints during the run comes
// first, then the message block.
type BufferedStreamChannel struct {
	sink     io.Writer
	buffered []wire.Message
	closed   bool
}

// NewBufferedStreamChannel wraps sink in a buffering message channel.
func NewBufferedStreamChannel(sink io.Writer) *BufferedStreamChannel {
	return &BufferedStreamChannel{sink: sink}
}

// WriteMessage records the message for the final flush.
func (channel *BufferedStreamChannel) WriteMessage(message wire.Message) error {
	if channel.closed {
		return &WriteError{Err: os.ErrClosed}
	}
	channel.buffered = append(channel.buffered, message)
	return nil
}

// Close flushes all buffered messages to the stream. Idempotent.
func (channel *BufferedStreamChannel) Close() error {
	if channel.closed {
		return nil
	}
	channel.closed = true

	encoder := newLineEncoder(channel.sink)
	for _, message := range channel.buffered {
		if err := encoder.Encode(message); err != nil {
			return &WriteError{Err: fmt.Errorf("flushing buffered messages: %w", err)}
		}
	}
	channel.buffered = nil
	return nil
}
