// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pipes-foundation/pipes/lib/wire"
)

// pollInterval bounds the latency of the tail loop when a filesystem
// event is missed (some filesystems coalesce or drop inotify events).
const pollInterval = 200 * time.Millisecond

// Tail follows the messages file at path, decoding each complete line
// into a wire message on the returned channel. The channel closes
// when the closed sentinel is seen, when ctx is done, or when the
// watcher fails. A torn final line (child killed mid-write) is held
// back until its newline arrives; it is never delivered partially.
//
// The parent directory of path must exist. The file itself may not
// exist yet; an atomic-replace sink appears only when the child
// session closes.
func Tail(ctx context.Context, path string) (<-chan wire.Message, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	// Watch the directory, not the file: the file may not exist yet,
	// and atomic replace swaps the inode out from under a file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	messages := make(chan wire.Message, 32)

	go func() {
		defer watcher.Close()
		defer close(messages)

		reader := tailReader{path: path}
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		deliver := func() bool {
			lines, err := reader.nextLines()
			if err != nil {
				return true
			}
			for _, line := range lines {
				message, err := wire.ParseLine(line)
				if err != nil {
					// A malformed line means the writer violated the
					// protocol; stop rather than resynchronize.
					return true
				}
				select {
				case messages <- message:
				case <-ctx.Done():
					return true
				}
				if message.Method == wire.MethodClosed {
					return true
				}
			}
			return false
		}

		if deliver() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if deliver() {
					return
				}
			case <-ticker.C:
				if deliver() {
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Watch errors are transient on some platforms; the
				// ticker keeps the tail making progress regardless.
			}
		}
	}()

	return messages, nil
}

// tailReader tracks the consumed offset into the messages file and
// hands back only complete lines.
type tailReader struct {
	path    string
	offset  int64
	partial []byte
}

// nextLines reads newly appended bytes and splits off the complete
// lines. A missing file is not an error: the sink may not exist yet.
func (reader *tailReader) nextLines() ([][]byte, error) {
	file, err := os.Open(reader.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	// An atomic replace publishes a complete file shorter than our
	// offset only if the writer violated append-only semantics;
	// a shrunk file otherwise means truncation, so restart from zero.
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < reader.offset {
		reader.offset = 0
		reader.partial = nil
	}

	if _, err := file.Seek(reader.offset, io.SeekStart); err != nil {
		return nil, err
	}
	appended, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	reader.offset += int64(len(appended))
	reader.partial = append(reader.partial, appended...)

	var lines [][]byte
	for {
		line, rest, found := bytes.Cut(reader.partial, []byte("\n"))
		if !found {
			break
		}
		reader.partial = rest
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ReadMessages decodes a finished messages file in one shot. Blank
// lines are skipped; a torn final line (no trailing newline, killed
// writer) is ignored, matching the valid-prefix durability contract.
func ReadMessages(path string) ([]wire.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading messages file: %w", err)
	}

	var messages []wire.Message
	for {
		line, rest, found := bytes.Cut(data, []byte("\n"))
		if !found {
			// No trailing newline: the final write was torn. The
			// complete lines before it are still a valid stream.
			break
		}
		data = rest
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		message, err := wire.ParseLine(line)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
