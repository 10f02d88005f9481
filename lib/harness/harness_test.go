// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pipes-foundation/pipes/lib/params"
	"github.com/pipes-foundation/pipes/lib/runcontext"
	"github.com/pipes-foundation/pipes/lib/session"
	"github.com/pipes-foundation/pipes/lib/wire"
	"github.com/pipes-foundation/pipes/lib/writer"
)

// receiveTimeout bounds every blocking receive in these tests so a
// broken tail fails the test instead of hanging it.
const receiveTimeout = 5 * time.Second

func TestPrepare(t *testing.T) {
	directory := t.TempDir()
	spec := validSpec()

	launch, err := Prepare(spec, directory)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	t.Run("context file loads through the client loader", func(t *testing.T) {
		loaded, err := (runcontext.DefaultLoader{}).LoadContext(params.Params{"path": launch.ContextPath})
		if err != nil {
			t.Fatalf("LoadContext: %v", err)
		}
		if loaded.RunID != spec.Context.RunID {
			t.Fatalf("run_id = %q, want %q", loaded.RunID, spec.Context.RunID)
		}
	})

	t.Run("context file is private", func(t *testing.T) {
		info, err := os.Stat(launch.ContextPath)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if mode := info.Mode().Perm(); mode != 0o600 {
			t.Fatalf("context file mode = %o, want 600", mode)
		}
	})

	t.Run("environment entries decode", func(t *testing.T) {
		if len(launch.Env) != 2 {
			t.Fatalf("env entries = %d, want 2", len(launch.Env))
		}
		decoded := decodeEnvEntry(t, launch.Env[0], params.EnvContext)
		if decoded["path"] != launch.ContextPath {
			t.Fatalf("context params path = %v", decoded["path"])
		}
		decoded = decodeEnvEntry(t, launch.Env[1], params.EnvMessages)
		if decoded["path"] != launch.MessagesPath {
			t.Fatalf("messages params path = %v", decoded["path"])
		}
	})

	t.Run("messages sink pre-created", func(t *testing.T) {
		if _, err := os.Stat(launch.MessagesPath); err != nil {
			t.Fatalf("messages sink: %v", err)
		}
	})
}

func TestPrepareAtomic(t *testing.T) {
	directory := t.TempDir()
	spec := validSpec()
	spec.Messages = filepath.Join(directory, "out.jsonl")
	spec.Atomic = true

	launch, err := Prepare(spec, directory)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	decoded := decodeEnvEntry(t, launch.Env[1], params.EnvMessages)
	if decoded["atomic_path"] != spec.Messages {
		t.Fatalf("messages params = %v, want atomic_path", decoded)
	}
	// The atomic sink must not be pre-created: it appears on close.
	if _, err := os.Stat(spec.Messages); !os.IsNotExist(err) {
		t.Fatal("atomic sink should not exist before the session closes")
	}
}

// TestProtocolRoundTrip drives the full protocol in one process: the
// harness prepares the environment, the client session reads it and
// reports, and the harness reads the stream back.
func TestProtocolRoundTrip(t *testing.T) {
	launch, err := Prepare(validSpec(), t.TempDir())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	setLaunchEnv(t, launch)

	err = session.Run(session.Options{}, func(pipes *session.Session) error {
		if got := pipes.Context().RunID; got != "run-1" {
			t.Fatalf("run_id = %q, want run-1", got)
		}
		return pipes.ReportAssetMaterialization("", map[string]any{"rows": 42}, "v1")
	})
	if err != nil {
		t.Fatalf("session.Run: %v", err)
	}

	messages, err := ReadMessages(launch.MessagesPath)
	if err != nil {
		t.Fatalf("ReadMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	if messages[0].Method != wire.MethodReportAssetMaterialization {
		t.Fatalf("first method = %q", messages[0].Method)
	}
	if messages[1].Method != wire.MethodClosed {
		t.Fatalf("second method = %q", messages[1].Method)
	}
}

func TestTail(t *testing.T) {
	t.Run("delivers messages in order and stops at closed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "messages.jsonl")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), receiveTimeout)
		defer cancel()
		messages, err := Tail(ctx, path)
		if err != nil {
			t.Fatalf("Tail: %v", err)
		}

		// Write through a real channel, as the client would.
		go func() {
			channel, err := writer.OpenFileChannel(path)
			if err != nil {
				return
			}
			channel.WriteMessage(wire.NewLog(wire.LevelInfo, "one"))
			channel.WriteMessage(wire.NewMaterialization("users", nil, "v1"))
			channel.WriteMessage(wire.NewClosed())
			channel.Close()
		}()

		want := []wire.Method{wire.MethodLog, wire.MethodReportAssetMaterialization, wire.MethodClosed}
		for index, method := range want {
			message := receive(t, messages)
			if message.Method != method {
				t.Fatalf("message %d method = %q, want %q", index, message.Method, method)
			}
		}
		if _, open := <-messages; open {
			t.Fatal("stream should close after the closed sentinel")
		}
	})

	t.Run("holds back a torn line until completed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "messages.jsonl")
		// A complete line followed by a torn one.
		torn := `{"method":"log","params":{"level":"info","message":"complete"}}` + "\n" +
			`{"method":"log","params":{"level":"info","mes`
		if err := os.WriteFile(path, []byte(torn), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), receiveTimeout)
		defer cancel()
		messages, err := Tail(ctx, path)
		if err != nil {
			t.Fatalf("Tail: %v", err)
		}

		first := receive(t, messages)
		if first.Params["message"] != "complete" {
			t.Fatalf("first message = %#v", first.Params)
		}

		// Complete the torn line and append the sentinel.
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
		if _, err := file.WriteString("sage\":\"finished\"}}\n{\"method\":\"closed\",\"params\":{}}\n"); err != nil {
			t.Fatalf("WriteString: %v", err)
		}
		file.Close()

		second := receive(t, messages)
		if second.Params["message"] != "finished" {
			t.Fatalf("second message = %#v", second.Params)
		}
		if closed := receive(t, messages); closed.Method != wire.MethodClosed {
			t.Fatalf("final method = %q", closed.Method)
		}
	})

	t.Run("sees an atomic sink appear", func(t *testing.T) {
		directory := t.TempDir()
		path := filepath.Join(directory, "messages.jsonl")

		ctx, cancel := context.WithTimeout(context.Background(), receiveTimeout)
		defer cancel()
		messages, err := Tail(ctx, path)
		if err != nil {
			t.Fatalf("Tail: %v", err)
		}

		go func() {
			channel, err := writer.OpenAtomicFileChannel(path)
			if err != nil {
				return
			}
			channel.WriteMessage(wire.NewLog(wire.LevelInfo, "published"))
			channel.WriteMessage(wire.NewClosed())
			channel.Close()
		}()

		if first := receive(t, messages); first.Params["message"] != "published" {
			t.Fatalf("first message = %#v", first.Params)
		}
		if closed := receive(t, messages); closed.Method != wire.MethodClosed {
			t.Fatalf("final method = %q", closed.Method)
		}
	})

	t.Run("cancellation closes the stream", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "messages.jsonl")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		messages, err := Tail(ctx, path)
		if err != nil {
			t.Fatalf("Tail: %v", err)
		}
		cancel()

		deadline := time.After(receiveTimeout)
		for {
			select {
			case _, open := <-messages:
				if !open {
					return
				}
			case <-deadline:
				t.Fatal("stream did not close after cancellation")
			}
		}
	})
}

func TestReadMessages(t *testing.T) {
	t.Run("skips a torn final line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "messages.jsonl")
		content := `{"method":"log","params":{"level":"info","message":"ok"}}` + "\n" +
			`{"method":"closed","pa`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		messages, err := ReadMessages(path)
		if err != nil {
			t.Fatalf("ReadMessages: %v", err)
		}
		if len(messages) != 1 {
			t.Fatalf("messages = %d, want 1 (torn line dropped)", len(messages))
		}
	})

	t.Run("rejects a malformed complete line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "messages.jsonl")
		if err := os.WriteFile(path, []byte("not json\n"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := ReadMessages(path); err == nil {
			t.Fatal("expected error for malformed line")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ReadMessages(filepath.Join(t.TempDir(), "absent")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}

func decodeEnvEntry(t *testing.T, entry, wantName string) params.Params {
	t.Helper()
	name, blob, found := strings.Cut(entry, "=")
	if !found || name != wantName {
		t.Fatalf("env entry %q, want %s=...", entry, wantName)
	}
	decoded, err := params.Decode(blob)
	if err != nil {
		t.Fatalf("decoding env entry %s: %v", wantName, err)
	}
	return decoded
}

func setLaunchEnv(t *testing.T, launch *Launch) {
	t.Helper()
	for _, entry := range launch.Env {
		name, value, found := strings.Cut(entry, "=")
		if !found {
			t.Fatalf("malformed env entry %q", entry)
		}
		t.Setenv(name, value)
	}
}

func receive(t *testing.T, messages <-chan wire.Message) wire.Message {
	t.Helper()
	select {
	case message, open := <-messages:
		if !open {
			t.Fatal("message stream closed early")
		}
		return message
	case <-time.After(receiveTimeout):
		t.Fatal("timed out waiting for a message")
	}
	panic("unreachable")
}
