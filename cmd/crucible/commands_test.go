// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/crucible/services/route"
	"github.com/AleutianAI/crucible/services/route/config"
	"github.com/AleutianAI/crucible/services/route/policy"
	"github.com/AleutianAI/crucible/services/route/search"
)

const heatMap = `2413432311323
3215453535623
3255245654254
3446585845452
4546657867536
1438598798454
4457876987766
3637877979653
4654967986887
4564679986453
1224686865563
2546548887735
4322674655533
`

func writeGrid(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

// run executes the root command and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvConfigPath, "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestSolve_Presets(t *testing.T) {
	path := writeGrid(t, heatMap)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default", nil, "cost: 102\n"},
		{"crucible", []string{"--policy", "crucible"}, "cost: 102\n"},
		{"ultra", []string{"-p", "ultra"}, "cost: 94\n"},
		{"custom min max", []string{"--min", "4", "--max", "10"}, "cost: 94\n"},
		{"custom max", []string{"--max", "3"}, "cost: 102\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", append([]string{"solve", path}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSolve_Stdin(t *testing.T) {
	out, err := run(t, "111\n999\n", "solve", "-")
	require.NoError(t, err)
	assert.Equal(t, "cost: 11\n", out)
}

func TestSolve_ShowPath(t *testing.T) {
	path := writeGrid(t, "111\n999\n")

	out, err := run(t, "", "solve", path, "--show-path")
	require.NoError(t, err)
	assert.Equal(t, "cost: 11\n1>>\n99v\n", out)
}

func TestSolve_JSON(t *testing.T) {
	path := writeGrid(t, "111\n999\n")

	out, err := run(t, "", "solve", path, "--json")
	require.NoError(t, err)

	var resp route.SolveResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, uint64(11), resp.Cost)
	assert.Equal(t, 3, resp.Steps)
	assert.Len(t, resp.Path, 4)
	assert.Equal(t, "bounded:3", resp.Policy)
}

func TestSolve_StartHeadings(t *testing.T) {
	path := writeGrid(t, "19\n11\n")

	out, err := run(t, "", "solve", path, "--start-headings", "south")
	require.NoError(t, err)
	assert.Equal(t, "cost: 2\n", out)

	_, err = run(t, "", "solve", path, "--start-headings", "up")
	assert.Error(t, err)
}

func TestSolve_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, "", "solve", filepath.Join(t.TempDir(), "nope.txt"))
		assert.ErrorContains(t, err, "read grid")
	})

	t.Run("malformed grid", func(t *testing.T) {
		path := writeGrid(t, "12\n3\n")
		out, err := run(t, "", "solve", path)
		assert.Error(t, err)
		assert.Contains(t, out, "ERROR: ")
	})

	t.Run("unknown policy", func(t *testing.T) {
		path := writeGrid(t, heatMap)
		_, err := run(t, "", "solve", path, "--policy", "diagonal")
		assert.ErrorIs(t, err, route.ErrUnknownPolicy)
	})

	t.Run("no path", func(t *testing.T) {
		path := writeGrid(t, "11\n")
		_, err := run(t, "", "solve", path, "--min", "4", "--max", "10")
		assert.ErrorIs(t, err, search.ErrNoPathFound)
	})

	t.Run("bad log level", func(t *testing.T) {
		path := writeGrid(t, heatMap)
		_, err := run(t, "", "solve", path, "--log-level", "loud")
		assert.Error(t, err)
	})

	t.Run("arg count", func(t *testing.T) {
		_, err := run(t, "", "solve")
		assert.Error(t, err)
	})
}

func TestSolve_ConfigFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Policy = policy.Spec{Kind: policy.KindConstrained, Min: 4, Max: 10}
	cfgPath := filepath.Join(t.TempDir(), "crucible.yaml")
	require.NoError(t, config.Write(cfgPath, cfg))

	out, err := run(t, "", "solve", writeGrid(t, heatMap), "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "cost: 94\n", out)
}

func TestPolicies(t *testing.T) {
	out, err := run(t, "", "policies")
	require.NoError(t, err)

	assert.Contains(t, out, "crucible: bounded:3 (default)\n")
	assert.Contains(t, out, "ultra: constrained:4-10\n")
	assert.Contains(t, out, "ultra-crucible: constrained:4-10\n")
}

func TestCustomSpec(t *testing.T) {
	tests := []struct {
		name   string
		flags  solveFlags
		want   policy.Spec
		wantOK bool
	}{
		{"none", solveFlags{}, policy.Spec{}, false},
		{"max only", solveFlags{max: 5}, policy.Spec{Kind: policy.KindBounded, Max: 5}, true},
		{"min and max", solveFlags{min: 2, max: 6}, policy.Spec{Kind: policy.KindConstrained, Min: 2, Max: 6}, true},
		{"min only", solveFlags{min: 3}, policy.Spec{Kind: policy.KindConstrained, Min: 3, Max: 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := customSpec(&tt.flags)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
