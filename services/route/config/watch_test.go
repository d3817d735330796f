// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/crucible/services/route/policy"
)

func startWatcher(t *testing.T, path string) <-chan *Config {
	t.Helper()
	reloads := make(chan *Config, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w, err := NewWatcher(path, func(cfg *Config) { reloads <- cfg }, 20*time.Millisecond, logger)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return reloads
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeFile(t, "policy:\n  kind: bounded\n  max: 3\n")
	reloads := startWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte("policy:\n  kind: constrained\n  min: 4\n  max: 10\n"), 0644))

	select {
	case cfg := <-reloads:
		assert.Equal(t, policy.Spec{Kind: policy.KindConstrained, Min: 4, Max: 10}, cfg.Policy)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatcher_IgnoresInvalidConfig(t *testing.T) {
	path := writeFile(t, "policy:\n  kind: bounded\n  max: 3\n")
	reloads := startWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte("policy:\n  kind: bounded\n  max: 0\n"), 0644))

	select {
	case cfg := <-reloads:
		t.Fatalf("unexpected reload: %+v", cfg.Policy)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNewWatcher_Validation(t *testing.T) {
	_, err := NewWatcher("", func(*Config) {}, 0, nil)
	assert.Error(t, err)

	_, err = NewWatcher("crucible.yaml", nil, 0, nil)
	assert.Error(t, err)

	w, err := NewWatcher("crucible.yaml", func(*Config) {}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)
	w.Stop()
}
