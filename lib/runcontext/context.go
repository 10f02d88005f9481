// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package runcontext

import (
	"errors"
	"fmt"
)

// Context is the run metadata for one Pipes invocation. Construction
// goes through a [Loader]; after that the value is read-only.
type Context struct {
	// RunID identifies the orchestrator run that launched this
	// process. Required.
	RunID string `json:"run_id" yaml:"run_id"`

	// JobName is the name of the invoking job, when the orchestrator
	// provides one.
	JobName string `json:"job_name,omitempty" yaml:"job_name,omitempty"`

	// AssetKeys lists the assets this invocation is responsible for.
	// Required (may name a single asset).
	AssetKeys []string `json:"asset_keys" yaml:"asset_keys"`

	// PartitionKey identifies the data partition this run instance
	// covers, when the job is partitioned.
	PartitionKey string `json:"partition_key,omitempty" yaml:"partition_key,omitempty"`

	// CodeVersionTag is the version tag of the code being executed,
	// when the orchestrator tracks one.
	CodeVersionTag string `json:"code_version_tag,omitempty" yaml:"code_version_tag,omitempty"`

	// Extras is launcher-supplied free-form custom data. Preserved
	// verbatim from the context JSON.
	Extras map[string]any `json:"extras" yaml:"extras,omitempty"`
}

// Validate checks that all required fields are present.
func (context *Context) Validate() error {
	if context.RunID == "" {
		return errors.New("run context: run_id is required")
	}
	if context.AssetKeys == nil {
		return errors.New("run context: asset_keys is required")
	}
	for index, key := range context.AssetKeys {
		if key == "" {
			return fmt.Errorf("run context: asset_keys[%d] is empty", index)
		}
	}
	return nil
}

// AssetKey returns the single asset key of this invocation. Errors
// when the context carries zero or several keys; callers reporting
// against a specific asset must then name it explicitly.
func (context *Context) AssetKey() (string, error) {
	switch len(context.AssetKeys) {
	case 1:
		return context.AssetKeys[0], nil
	case 0:
		return "", errors.New("run context: no asset keys")
	default:
		return "", fmt.Errorf("run context: %d asset keys, asset must be named explicitly", len(context.AssetKeys))
	}
}

// HasAssetKey reports whether key is one of the asset keys this
// invocation is responsible for.
func (context *Context) HasAssetKey(key string) bool {
	for _, candidate := range context.AssetKeys {
		if candidate == key {
			return true
		}
	}
	return false
}
