// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package harness

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pipes-foundation/pipes/lib/runcontext"
)

// RunSpec describes one launch: the command to run, the run context
// to hand it, and where its messages go. Authored as a YAML file for
// cmd/pipes-run, or constructed directly by embedding callers.
type RunSpec struct {
	// Command is the child command and its arguments. Required.
	Command []string `yaml:"command"`

	// Context is the run context delivered to the child. Required;
	// must validate.
	Context runcontext.Context `yaml:"context"`

	// Messages is the path of the messages sink file. When empty,
	// Prepare places one in its working directory.
	Messages string `yaml:"messages,omitempty"`

	// Atomic selects the atomic-replace sink instead of the default
	// append-mode file. The stream then appears only when the child
	// session closes.
	Atomic bool `yaml:"atomic,omitempty"`

	// Env is extra environment for the child, beyond the two protocol
	// variables.
	Env map[string]string `yaml:"env,omitempty"`

	// WorkDir is the child's working directory. Empty means inherit.
	WorkDir string `yaml:"workdir,omitempty"`
}

// Validate checks that the spec can be launched.
func (spec *RunSpec) Validate() error {
	if len(spec.Command) == 0 {
		return errors.New("run spec: command is required")
	}
	if spec.Command[0] == "" {
		return errors.New("run spec: command[0] is empty")
	}
	if err := spec.Context.Validate(); err != nil {
		return fmt.Errorf("run spec: %w", err)
	}
	if spec.Atomic && spec.Messages == "" {
		return errors.New("run spec: atomic requires an explicit messages path")
	}
	return nil
}

// LoadSpec reads and validates a YAML run spec from a file.
func LoadSpec(path string) (*RunSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run spec: %w", err)
	}
	var spec RunSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing run spec %s: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &spec, nil
}
