// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pipes-foundation/pipes/lib/params"
)

// Launch is the prepared environment for one child process.
type Launch struct {
	// Env holds the two protocol entries ("PIPES_CONTEXT=...",
	// "PIPES_MESSAGES=...") to append to the child's environment.
	Env []string

	// MessagesPath is the sink file the child will write messages to.
	MessagesPath string

	// ContextPath is the context JSON file written for the child.
	ContextPath string
}

// Prepare writes the context file into directory, encodes the two
// parameter blobs, and pre-creates the messages sink so a tailing
// reader can watch it from before the child starts. The directory
// must exist; the caller owns its lifetime (typically a temp dir
// removed after the run).
func Prepare(spec *RunSpec, directory string) (*Launch, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	contextPath := filepath.Join(directory, "context.json")
	contextJSON, err := json.MarshalIndent(&spec.Context, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding run context: %w", err)
	}
	// 0600: the context may carry launcher-supplied extras not meant
	// for other users on the machine.
	if err := os.WriteFile(contextPath, append(contextJSON, '\n'), 0o600); err != nil {
		return nil, fmt.Errorf("writing context file: %w", err)
	}

	messagesPath := spec.Messages
	if messagesPath == "" {
		messagesPath = filepath.Join(directory, "messages.jsonl")
	}

	messagesParams := params.Params{"path": messagesPath}
	if spec.Atomic {
		messagesParams = params.Params{"atomic_path": messagesPath}
	} else {
		// Pre-create the append-mode sink so Tail has a file to
		// follow before the child's first write.
		if err := os.WriteFile(messagesPath, nil, 0o644); err != nil {
			return nil, fmt.Errorf("creating messages file: %w", err)
		}
	}

	contextBlob, err := params.Encode(params.Params{"path": contextPath})
	if err != nil {
		return nil, fmt.Errorf("encoding context params: %w", err)
	}
	messagesBlob, err := params.Encode(messagesParams)
	if err != nil {
		return nil, fmt.Errorf("encoding messages params: %w", err)
	}

	return &Launch{
		Env: []string{
			params.EnvContext + "=" + contextBlob,
			params.EnvMessages + "=" + messagesBlob,
		},
		MessagesPath: messagesPath,
		ContextPath:  contextPath,
	}, nil
}
