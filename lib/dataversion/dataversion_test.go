// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package dataversion

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromBytes(t *testing.T) {
	first := FromBytes([]byte("users rows 42"))
	second := FromBytes([]byte("users rows 42"))
	if first != second {
		t.Fatal("equal content must produce equal versions")
	}
	if len(first) != 64 {
		t.Fatalf("version length = %d, want 64 hex characters", len(first))
	}
	if FromBytes([]byte("users rows 43")) == first {
		t.Fatal("different content must produce different versions")
	}
}

func TestFromFile(t *testing.T) {
	content := []byte("partition 2026-08-31 payload")
	path := filepath.Join(t.TempDir(), "asset.parquet")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fromFile, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if fromFile != FromBytes(content) {
		t.Fatal("FromFile must match FromBytes for the same content")
	}

	if _, err := FromFile(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFromInputs(t *testing.T) {
	t.Run("order insensitive", func(t *testing.T) {
		forward := FromInputs([]string{"v-users", "v-orders"})
		reversed := FromInputs([]string{"v-orders", "v-users"})
		if forward != reversed {
			t.Fatal("input order must not affect the derived version")
		}
	})

	t.Run("sensitive to membership", func(t *testing.T) {
		base := FromInputs([]string{"v-users", "v-orders"})
		if FromInputs([]string{"v-users"}) == base {
			t.Fatal("dropping an input must change the derived version")
		}
		if FromInputs([]string{"v-users", "v-orders", "v-payments"}) == base {
			t.Fatal("adding an input must change the derived version")
		}
	})

	t.Run("no concatenation collisions", func(t *testing.T) {
		// ["ab"] and ["a", "b"] must not hash identically.
		if FromInputs([]string{"ab"}) == FromInputs([]string{"a", "b"}) {
			t.Fatal("input boundaries must be preserved")
		}
	})

	t.Run("empty input list", func(t *testing.T) {
		if FromInputs(nil) != FromInputs([]string{}) {
			t.Fatal("nil and empty inputs must agree")
		}
	})
}
